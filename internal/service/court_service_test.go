package service

import (
	"context"
	"testing"
	"time"

	"syntrabook/internal/models"
	"syntrabook/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// reportRepoStub is a stub for repository.ReportRepository.
type reportRepoStub struct {
	createFn             func(context.Context, *models.Report) error
	getByIDFn            func(context.Context, uint, uint) (*models.Report, error)
	listFn               func(context.Context, repository.ReportQuery) ([]*models.Report, int64, error)
	listByAccusedFn      func(context.Context, uint) ([]*models.Report, error)
	hasOpenReportFn      func(context.Context, uint, uint) (bool, error)
	confirmOpenReportsFn func(context.Context, uint) (int64, error)
	expireStaleFn        func(context.Context, time.Time, int) (int64, error)
	castVoteFn           func(context.Context, uint, uint, int) (*models.ReportVoteCounts, error)
	removeVoteFn         func(context.Context, uint, uint) error
	voteCountsFn         func(context.Context, uint) (*models.ReportVoteCounts, error)
	addEvidenceFn        func(context.Context, *models.ReportEvidence) error
	listEvidenceFn       func(context.Context, uint) ([]*models.ReportEvidence, error)
	countEvidenceFn      func(context.Context, uint) (int64, error)
	leaderboardFn        func(context.Context, int) ([]*models.LeaderboardEntry, error)
	violatorsFn          func(context.Context, int, int) ([]*models.LeaderboardEntry, error)
	riskScoreFn          func(context.Context, uint, time.Time) (int, error)
}

func (s *reportRepoStub) Create(ctx context.Context, report *models.Report) error {
	return s.createFn(ctx, report)
}
func (s *reportRepoStub) GetByID(ctx context.Context, id, viewerID uint) (*models.Report, error) {
	return s.getByIDFn(ctx, id, viewerID)
}
func (s *reportRepoStub) List(ctx context.Context, q repository.ReportQuery) ([]*models.Report, int64, error) {
	return s.listFn(ctx, q)
}
func (s *reportRepoStub) ListByAccused(ctx context.Context, accusedID uint) ([]*models.Report, error) {
	return s.listByAccusedFn(ctx, accusedID)
}
func (s *reportRepoStub) HasOpenReport(ctx context.Context, reporterID, accusedID uint) (bool, error) {
	return s.hasOpenReportFn(ctx, reporterID, accusedID)
}
func (s *reportRepoStub) ConfirmOpenReports(ctx context.Context, accusedID uint) (int64, error) {
	return s.confirmOpenReportsFn(ctx, accusedID)
}
func (s *reportRepoStub) ExpireStale(ctx context.Context, olderThan time.Time, minConfirmVotes int) (int64, error) {
	return s.expireStaleFn(ctx, olderThan, minConfirmVotes)
}
func (s *reportRepoStub) CastVote(ctx context.Context, reportID, voterID uint, voteType int) (*models.ReportVoteCounts, error) {
	return s.castVoteFn(ctx, reportID, voterID, voteType)
}
func (s *reportRepoStub) RemoveVote(ctx context.Context, reportID, voterID uint) error {
	return s.removeVoteFn(ctx, reportID, voterID)
}
func (s *reportRepoStub) VoteCounts(ctx context.Context, reportID uint) (*models.ReportVoteCounts, error) {
	return s.voteCountsFn(ctx, reportID)
}
func (s *reportRepoStub) AddEvidence(ctx context.Context, evidence *models.ReportEvidence) error {
	return s.addEvidenceFn(ctx, evidence)
}
func (s *reportRepoStub) ListEvidence(ctx context.Context, reportID uint) ([]*models.ReportEvidence, error) {
	return s.listEvidenceFn(ctx, reportID)
}
func (s *reportRepoStub) CountEvidence(ctx context.Context, reportID uint) (int64, error) {
	return s.countEvidenceFn(ctx, reportID)
}
func (s *reportRepoStub) Leaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	return s.leaderboardFn(ctx, limit)
}
func (s *reportRepoStub) Violators(ctx context.Context, threshold, limit int) ([]*models.LeaderboardEntry, error) {
	return s.violatorsFn(ctx, threshold, limit)
}
func (s *reportRepoStub) RiskScore(ctx context.Context, accusedID uint, since time.Time) (int, error) {
	return s.riskScoreFn(ctx, accusedID, since)
}

func noopReportRepo() *reportRepoStub {
	return &reportRepoStub{
		createFn: func(_ context.Context, r *models.Report) error {
			r.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id, _ uint) (*models.Report, error) {
			return &models.Report{ID: id, ReporterID: 1, AccusedID: 2, Status: models.ReportStatusOpen}, nil
		},
		listFn: func(_ context.Context, _ repository.ReportQuery) ([]*models.Report, int64, error) {
			return nil, 0, nil
		},
		listByAccusedFn:      func(_ context.Context, _ uint) ([]*models.Report, error) { return nil, nil },
		hasOpenReportFn:      func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		confirmOpenReportsFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		expireStaleFn:        func(_ context.Context, _ time.Time, _ int) (int64, error) { return 0, nil },
		castVoteFn: func(_ context.Context, _, _ uint, _ int) (*models.ReportVoteCounts, error) {
			return &models.ReportVoteCounts{}, nil
		},
		removeVoteFn: func(_ context.Context, _, _ uint) error { return nil },
		voteCountsFn: func(_ context.Context, _ uint) (*models.ReportVoteCounts, error) {
			return &models.ReportVoteCounts{}, nil
		},
		addEvidenceFn:   func(_ context.Context, _ *models.ReportEvidence) error { return nil },
		listEvidenceFn:  func(_ context.Context, _ uint) ([]*models.ReportEvidence, error) { return nil, nil },
		countEvidenceFn: func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		leaderboardFn: func(_ context.Context, _ int) ([]*models.LeaderboardEntry, error) {
			return nil, nil
		},
		violatorsFn: func(_ context.Context, _, _ int) ([]*models.LeaderboardEntry, error) {
			return nil, nil
		},
		riskScoreFn: func(_ context.Context, _ uint, _ time.Time) (int, error) { return 0, nil },
	}
}

// agentRepoStub is a stub for repository.AgentRepository.
type agentRepoStub struct {
	createFn          func(context.Context, *models.Agent) error
	getByIDFn         func(context.Context, uint) (*models.Agent, error)
	getByUsernameFn   func(context.Context, string) (*models.Agent, error)
	getByEmailFn      func(context.Context, string) (*models.Agent, error)
	getByAPIKeyHashFn func(context.Context, string) (*models.Agent, error)
	updateFn          func(context.Context, *models.Agent) error
	adjustKarmaFn     func(context.Context, uint, int) error
	searchFn          func(context.Context, string, int, int) ([]*models.Agent, error)
	followFn          func(context.Context, uint, uint) error
	unfollowFn        func(context.Context, uint, uint) error
	isFollowingFn     func(context.Context, uint, uint) (bool, error)
	followerCountsFn  func(context.Context, uint) (int64, int64, error)
	banFn             func(context.Context, uint, *uint, string, string) (bool, error)
	banHistoryFn      func(context.Context, uint) ([]*models.BanHistory, error)
}

func (s *agentRepoStub) Create(ctx context.Context, agent *models.Agent) error {
	return s.createFn(ctx, agent)
}
func (s *agentRepoStub) GetByID(ctx context.Context, id uint) (*models.Agent, error) {
	return s.getByIDFn(ctx, id)
}
func (s *agentRepoStub) GetByUsername(ctx context.Context, username string) (*models.Agent, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *agentRepoStub) GetByEmail(ctx context.Context, email string) (*models.Agent, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *agentRepoStub) GetByAPIKeyHash(ctx context.Context, hash string) (*models.Agent, error) {
	return s.getByAPIKeyHashFn(ctx, hash)
}
func (s *agentRepoStub) Update(ctx context.Context, agent *models.Agent) error {
	return s.updateFn(ctx, agent)
}
func (s *agentRepoStub) AdjustKarma(ctx context.Context, id uint, delta int) error {
	return s.adjustKarmaFn(ctx, id, delta)
}
func (s *agentRepoStub) Search(ctx context.Context, query string, limit, offset int) ([]*models.Agent, error) {
	return s.searchFn(ctx, query, limit, offset)
}
func (s *agentRepoStub) Follow(ctx context.Context, followerID, followingID uint) error {
	return s.followFn(ctx, followerID, followingID)
}
func (s *agentRepoStub) Unfollow(ctx context.Context, followerID, followingID uint) error {
	return s.unfollowFn(ctx, followerID, followingID)
}
func (s *agentRepoStub) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.isFollowingFn(ctx, followerID, followingID)
}
func (s *agentRepoStub) FollowerCounts(ctx context.Context, agentID uint) (int64, int64, error) {
	return s.followerCountsFn(ctx, agentID)
}
func (s *agentRepoStub) Ban(ctx context.Context, agentID uint, reportID *uint, reason, historyReason string) (bool, error) {
	return s.banFn(ctx, agentID, reportID, reason, historyReason)
}
func (s *agentRepoStub) BanHistory(ctx context.Context, agentID uint) ([]*models.BanHistory, error) {
	return s.banHistoryFn(ctx, agentID)
}

func noopAgentRepo() *agentRepoStub {
	return &agentRepoStub{
		createFn:  func(_ context.Context, _ *models.Agent) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Agent, error) { return &models.Agent{ID: id}, nil },
		getByUsernameFn: func(_ context.Context, username string) (*models.Agent, error) {
			return &models.Agent{ID: 2, Username: username}, nil
		},
		getByEmailFn:      func(_ context.Context, _ string) (*models.Agent, error) { return nil, gorm.ErrRecordNotFound },
		getByAPIKeyHashFn: func(_ context.Context, _ string) (*models.Agent, error) { return nil, gorm.ErrRecordNotFound },
		updateFn:          func(_ context.Context, _ *models.Agent) error { return nil },
		adjustKarmaFn:     func(_ context.Context, _ uint, _ int) error { return nil },
		searchFn:          func(_ context.Context, _ string, _, _ int) ([]*models.Agent, error) { return nil, nil },
		followFn:          func(_ context.Context, _, _ uint) error { return nil },
		unfollowFn:        func(_ context.Context, _, _ uint) error { return nil },
		isFollowingFn:     func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		followerCountsFn:  func(_ context.Context, _ uint) (int64, int64, error) { return 0, 0, nil },
		banFn:             func(_ context.Context, _ uint, _ *uint, _, _ string) (bool, error) { return true, nil },
		banHistoryFn:      func(_ context.Context, _ uint) ([]*models.BanHistory, error) { return nil, nil },
	}
}

func TestCreateReport_AutoTitleAndDescription(t *testing.T) {
	reports := noopReportRepo()
	var created *models.Report
	reports.createFn = func(_ context.Context, r *models.Report) error {
		r.ID = 11
		created = r
		return nil
	}
	agents := noopAgentRepo()
	agents.getByUsernameFn = func(_ context.Context, username string) (*models.Agent, error) {
		return &models.Agent{ID: 2, Username: "rogue_unit"}, nil
	}
	svc := NewCourtService(reports, agents)

	_, err := svc.CreateReport(context.Background(), CreateReportInput{
		ReporterID:      1,
		AccusedUsername: "rogue_unit",
		ViolationType:   "escape_control",
	})

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "Escape Control Report against rogue_unit", created.Title)
	assert.Equal(t, "Reported for escape control violation.", created.Description)
	assert.Equal(t, models.ReportStatusOpen, created.Status)
}

func TestCreateReport_SelfReportRejected(t *testing.T) {
	agents := noopAgentRepo()
	agents.getByUsernameFn = func(_ context.Context, _ string) (*models.Agent, error) {
		return &models.Agent{ID: 1, Username: "me"}, nil
	}
	svc := NewCourtService(noopReportRepo(), agents)

	_, err := svc.CreateReport(context.Background(), CreateReportInput{
		ReporterID:      1,
		AccusedUsername: "me",
		ViolationType:   "fraud",
	})

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "FORBIDDEN", appErr.Code)
}

func TestCreateReport_DuplicateOpenReportRejected(t *testing.T) {
	reports := noopReportRepo()
	reports.hasOpenReportFn = func(_ context.Context, reporterID, accusedID uint) (bool, error) {
		assert.Equal(t, uint(1), reporterID)
		assert.Equal(t, uint(2), accusedID)
		return true, nil
	}
	svc := NewCourtService(reports, noopAgentRepo())

	_, err := svc.CreateReport(context.Background(), CreateReportInput{
		ReporterID:      1,
		AccusedUsername: "rogue_unit",
		ViolationType:   "fraud",
	})

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFLICT", appErr.Code)
}

func TestCreateReport_InvalidViolationType(t *testing.T) {
	svc := NewCourtService(noopReportRepo(), noopAgentRepo())

	_, err := svc.CreateReport(context.Background(), CreateReportInput{
		ReporterID:      1,
		AccusedUsername: "rogue_unit",
		ViolationType:   "rudeness",
	})

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestCreateReport_TooMuchEvidence(t *testing.T) {
	svc := NewCourtService(noopReportRepo(), noopAgentRepo())

	evidence := make([]EvidenceInput, models.MaxEvidencePerReport+1)
	_, err := svc.CreateReport(context.Background(), CreateReportInput{
		ReporterID:      1,
		AccusedUsername: "rogue_unit",
		ViolationType:   "fraud",
		Evidence:        evidence,
	})

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "FORBIDDEN", appErr.Code)
}

func TestVoteOnReport_ReporterCannotVote(t *testing.T) {
	svc := NewCourtService(noopReportRepo(), noopAgentRepo())

	_, err := svc.VoteOnReport(context.Background(), ReportVoteInput{
		ReportID: 1, VoterID: 1, VoteType: models.ReportVoteConfirm,
	})

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "FORBIDDEN", appErr.Code)
}

func TestVoteOnReport_AccusedCannotVote(t *testing.T) {
	svc := NewCourtService(noopReportRepo(), noopAgentRepo())

	_, err := svc.VoteOnReport(context.Background(), ReportVoteInput{
		ReportID: 1, VoterID: 2, VoteType: models.ReportVoteDismiss,
	})

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "FORBIDDEN", appErr.Code)
}

func TestVoteOnReport_ClosedReportRejected(t *testing.T) {
	reports := noopReportRepo()
	reports.getByIDFn = func(_ context.Context, id, _ uint) (*models.Report, error) {
		return &models.Report{ID: id, ReporterID: 1, AccusedID: 2, Status: models.ReportStatusExpired}, nil
	}
	svc := NewCourtService(reports, noopAgentRepo())

	_, err := svc.VoteOnReport(context.Background(), ReportVoteInput{
		ReportID: 1, VoterID: 3, VoteType: models.ReportVoteConfirm,
	})

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "FORBIDDEN", appErr.Code)
}

func TestVoteOnReport_MapsVoteType(t *testing.T) {
	reports := noopReportRepo()
	var gotType int
	reports.castVoteFn = func(_ context.Context, _, _ uint, voteType int) (*models.ReportVoteCounts, error) {
		gotType = voteType
		return &models.ReportVoteCounts{ConfirmVotes: 4}, nil
	}
	svc := NewCourtService(reports, noopAgentRepo())

	counts, err := svc.VoteOnReport(context.Background(), ReportVoteInput{
		ReportID: 1, VoterID: 3, VoteType: models.ReportVoteConfirm,
	})

	require.NoError(t, err)
	assert.Equal(t, models.ReportVoteConfirm, gotType)
	assert.Equal(t, 4, counts.ConfirmVotes)
}

func TestVoteOnReport_InvalidVoteType(t *testing.T) {
	svc := NewCourtService(noopReportRepo(), noopAgentRepo())

	_, err := svc.VoteOnReport(context.Background(), ReportVoteInput{
		ReportID: 1, VoterID: 3, VoteType: 0,
	})

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestAddEvidence_CapEnforced(t *testing.T) {
	reports := noopReportRepo()
	reports.countEvidenceFn = func(_ context.Context, _ uint) (int64, error) {
		return models.MaxEvidencePerReport, nil
	}
	svc := NewCourtService(reports, noopAgentRepo())

	postID := uint(5)
	_, err := svc.AddEvidence(context.Background(), AddEvidenceInput{
		ReportID: 1, AgentID: 3,
		Evidence: EvidenceInput{PostID: &postID},
	})

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "FORBIDDEN", appErr.Code)
}

func TestAddEvidence_ClosedReportRejected(t *testing.T) {
	reports := noopReportRepo()
	reports.getByIDFn = func(_ context.Context, id, _ uint) (*models.Report, error) {
		return &models.Report{ID: id, Status: models.ReportStatusConfirmed}, nil
	}
	svc := NewCourtService(reports, noopAgentRepo())

	postID := uint(5)
	_, err := svc.AddEvidence(context.Background(), AddEvidenceInput{
		ReportID: 1, AgentID: 3,
		Evidence: EvidenceInput{PostID: &postID},
	})

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "FORBIDDEN", appErr.Code)
}

func TestMyReports_WarningAtThreshold(t *testing.T) {
	reports := noopReportRepo()
	reports.riskScoreFn = func(_ context.Context, accusedID uint, _ time.Time) (int, error) {
		assert.Equal(t, uint(9), accusedID)
		return 6, nil
	}
	svc := NewCourtService(reports, noopAgentRepo())

	result, err := svc.MyReports(context.Background(), 9)

	require.NoError(t, err)
	assert.Equal(t, 6, result.RiskScore)
	assert.Equal(t, "You are at risk of being banned. Review your recent activity.", result.Warning)
}

func TestMyReports_NoWarningBelowThreshold(t *testing.T) {
	reports := noopReportRepo()
	reports.riskScoreFn = func(_ context.Context, _ uint, _ time.Time) (int, error) { return 4, nil }
	svc := NewCourtService(reports, noopAgentRepo())

	result, err := svc.MyReports(context.Background(), 9)

	require.NoError(t, err)
	assert.Empty(t, result.Warning)
}

func TestProcessBans_BansViolatorsAndConfirmsReports(t *testing.T) {
	reports := noopReportRepo()
	reports.violatorsFn = func(_ context.Context, threshold, limit int) ([]*models.LeaderboardEntry, error) {
		assert.Equal(t, BanThreshold, threshold)
		assert.Equal(t, maxBansPerSweep, limit)
		return []*models.LeaderboardEntry{
			{AccusedID: 4, Username: "rogue_a", TotalConfirmVotes: 15},
			{AccusedID: 5, Username: "rogue_b", TotalConfirmVotes: 12},
		}, nil
	}
	var confirmed []uint
	reports.confirmOpenReportsFn = func(_ context.Context, accusedID uint) (int64, error) {
		confirmed = append(confirmed, accusedID)
		return 2, nil
	}
	reports.expireStaleFn = func(_ context.Context, olderThan time.Time, minConfirmVotes int) (int64, error) {
		assert.Equal(t, 5, minConfirmVotes)
		assert.WithinDuration(t, time.Now().Add(-7*24*time.Hour), olderThan, time.Minute)
		return 3, nil
	}

	agents := noopAgentRepo()
	var bannedIDs []uint
	agents.banFn = func(_ context.Context, agentID uint, _ *uint, reason, historyReason string) (bool, error) {
		assert.Equal(t, "Community vote - excessive violation reports", reason)
		assert.Equal(t, "Daily ban processing - community vote threshold exceeded", historyReason)
		bannedIDs = append(bannedIDs, agentID)
		return true, nil
	}

	svc := NewCourtService(reports, agents)
	result, err := svc.ProcessBans(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []uint{4, 5}, bannedIDs)
	assert.Equal(t, []uint{4, 5}, confirmed)
	assert.Equal(t, []string{"rogue_a", "rogue_b"}, result.Banned)
	assert.Equal(t, int64(3), result.Expired)
}

func TestProcessBans_AlreadyBannedSkipped(t *testing.T) {
	reports := noopReportRepo()
	reports.violatorsFn = func(_ context.Context, _, _ int) ([]*models.LeaderboardEntry, error) {
		return []*models.LeaderboardEntry{{AccusedID: 4, Username: "rogue_a"}}, nil
	}
	confirmCalled := false
	reports.confirmOpenReportsFn = func(_ context.Context, _ uint) (int64, error) {
		confirmCalled = true
		return 0, nil
	}
	agents := noopAgentRepo()
	agents.banFn = func(_ context.Context, _ uint, _ *uint, _, _ string) (bool, error) {
		return false, nil
	}

	svc := NewCourtService(reports, agents)
	result, err := svc.ProcessBans(context.Background())

	require.NoError(t, err)
	assert.Empty(t, result.Banned)
	assert.False(t, confirmCalled)
}

func TestProcessBans_FailureOnOneAgentDoesNotStopSweep(t *testing.T) {
	reports := noopReportRepo()
	reports.violatorsFn = func(_ context.Context, _, _ int) ([]*models.LeaderboardEntry, error) {
		return []*models.LeaderboardEntry{
			{AccusedID: 4, Username: "rogue_a"},
			{AccusedID: 5, Username: "rogue_b"},
		}, nil
	}
	agents := noopAgentRepo()
	agents.banFn = func(_ context.Context, agentID uint, _ *uint, _, _ string) (bool, error) {
		if agentID == 4 {
			return false, assert.AnError
		}
		return true, nil
	}

	svc := NewCourtService(reports, agents)
	result, err := svc.ProcessBans(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"rogue_b"}, result.Banned)
}
