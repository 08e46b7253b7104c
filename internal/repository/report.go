package repository

import (
	"context"
	"errors"
	"time"

	"syntrabook/internal/cache"
	"syntrabook/internal/models"

	"gorm.io/gorm"
)

// ReportQuery filters the report listing.
type ReportQuery struct {
	Status        models.ReportStatus
	ViolationType models.ViolationType
	AccusedID     *uint
	ReporterID    *uint
	Page          int
	Limit         int
	ViewerID      uint
}

// ReportRepository defines the interface for Court report data operations.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uint, viewerID uint) (*models.Report, error)
	List(ctx context.Context, q ReportQuery) ([]*models.Report, int64, error)
	ListByAccused(ctx context.Context, accusedID uint) ([]*models.Report, error)
	HasOpenReport(ctx context.Context, reporterID, accusedID uint) (bool, error)
	ConfirmOpenReports(ctx context.Context, accusedID uint) (int64, error)
	ExpireStale(ctx context.Context, olderThan time.Time, minConfirmVotes int) (int64, error)

	CastVote(ctx context.Context, reportID, voterID uint, voteType int) (*models.ReportVoteCounts, error)
	RemoveVote(ctx context.Context, reportID, voterID uint) error
	VoteCounts(ctx context.Context, reportID uint) (*models.ReportVoteCounts, error)

	AddEvidence(ctx context.Context, evidence *models.ReportEvidence) error
	ListEvidence(ctx context.Context, reportID uint) ([]*models.ReportEvidence, error)
	CountEvidence(ctx context.Context, reportID uint) (int64, error)

	Leaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)
	Violators(ctx context.Context, threshold, limit int) ([]*models.LeaderboardEntry, error)
	RiskScore(ctx context.Context, accusedID uint, since time.Time) (int, error)
}

// reportRepository implements ReportRepository
type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

// tallyColumns are the derived per-report aggregates. The ledger in
// report_votes is authoritative; tallies are computed at read time.
const tallyColumns = "reports.*, " +
	"(SELECT COUNT(*) FROM report_votes WHERE report_votes.report_id = reports.id AND report_votes.vote_type = 1) as confirm_votes, " +
	"(SELECT COUNT(*) FROM report_votes WHERE report_votes.report_id = reports.id AND report_votes.vote_type = -1) as dismiss_votes, " +
	"(SELECT COUNT(*) FROM report_evidence WHERE report_evidence.report_id = reports.id) as evidence_count"

func (r *reportRepository) applyTallies(db *gorm.DB, viewerID uint) *gorm.DB {
	if viewerID == 0 {
		return db.Select(tallyColumns)
	}
	return db.Select(
		tallyColumns+", (SELECT vote_type FROM report_votes WHERE report_votes.report_id = reports.id AND report_votes.voter_id = ?) as user_vote",
		viewerID,
	)
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *reportRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Report, error) {
	var report models.Report
	err := r.applyTallies(r.db.WithContext(ctx).Model(&models.Report{}), viewerID).
		Preload("Reporter").
		Preload("Accused").
		First(&report, id).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) List(ctx context.Context, q ReportQuery) ([]*models.Report, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Report{})
	if q.Status != "" {
		base = base.Where("reports.status = ?", q.Status)
	}
	if q.ViolationType != "" {
		base = base.Where("reports.violation_type = ?", q.ViolationType)
	}
	if q.AccusedID != nil {
		base = base.Where("reports.accused_id = ?", *q.AccusedID)
	}
	if q.ReporterID != nil {
		base = base.Where("reports.reporter_id = ?", *q.ReporterID)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reports []*models.Report
	err := r.applyTallies(base, q.ViewerID).
		Preload("Reporter").
		Preload("Accused").
		Order("reports.created_at DESC").
		Limit(q.Limit).
		Offset((q.Page - 1) * q.Limit).
		Find(&reports).Error
	if err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (r *reportRepository) ListByAccused(ctx context.Context, accusedID uint) ([]*models.Report, error) {
	var reports []*models.Report
	err := r.applyTallies(r.db.WithContext(ctx).Model(&models.Report{}), 0).
		Preload("Reporter").
		Where("reports.accused_id = ?", accusedID).
		Order("reports.created_at DESC").
		Find(&reports).Error
	return reports, err
}

func (r *reportRepository) HasOpenReport(ctx context.Context, reporterID, accusedID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("reporter_id = ? AND accused_id = ? AND status = ?", reporterID, accusedID, models.ReportStatusOpen).
		Count(&count).Error
	return count > 0, err
}

// ConfirmOpenReports closes every open report against the accused as
// confirmed. Called by the ban sweep after the agent is banned.
func (r *reportRepository) ConfirmOpenReports(ctx context.Context, accusedID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("accused_id = ? AND status = ?", accusedID, models.ReportStatusOpen).
		Updates(map[string]interface{}{
			"status":      models.ReportStatusConfirmed,
			"resolved_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}

// ExpireStale closes open reports created before olderThan that gathered
// fewer than minConfirmVotes confirm votes.
func (r *reportRepository) ExpireStale(ctx context.Context, olderThan time.Time, minConfirmVotes int) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("status = ? AND created_at < ?", models.ReportStatusOpen, olderThan).
		Where("(SELECT COUNT(*) FROM report_votes WHERE report_votes.report_id = reports.id AND report_votes.vote_type = 1) < ?", minConfirmVotes).
		Updates(map[string]interface{}{
			"status":      models.ReportStatusExpired,
			"resolved_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}

// CastVote upserts the voter's vote on the report and returns fresh tallies.
func (r *reportRepository) CastVote(ctx context.Context, reportID, voterID uint, voteType int) (*models.ReportVoteCounts, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.ReportVote
		findErr := tx.Where("report_id = ? AND voter_id = ?", reportID, voterID).
			First(&existing).Error
		if findErr == nil {
			if existing.VoteType == voteType {
				return nil
			}
			return tx.Model(&models.ReportVote{}).
				Where("id = ?", existing.ID).
				Updates(map[string]interface{}{
					"vote_type":  voteType,
					"created_at": time.Now(),
				}).Error
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}
		return tx.Create(&models.ReportVote{
			ReportID: reportID,
			VoterID:  voterID,
			VoteType: voteType,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	cache.InvalidateLeaderboard(ctx)
	return r.VoteCounts(ctx, reportID)
}

func (r *reportRepository) RemoveVote(ctx context.Context, reportID, voterID uint) error {
	err := r.db.WithContext(ctx).
		Where("report_id = ? AND voter_id = ?", reportID, voterID).
		Delete(&models.ReportVote{}).Error
	if err != nil {
		return err
	}
	cache.InvalidateLeaderboard(ctx)
	return nil
}

func (r *reportRepository) VoteCounts(ctx context.Context, reportID uint) (*models.ReportVoteCounts, error) {
	var counts models.ReportVoteCounts
	err := r.db.WithContext(ctx).Raw(
		"SELECT "+
			"(SELECT COUNT(*) FROM report_votes WHERE report_id = ? AND vote_type = 1) as confirm_votes, "+
			"(SELECT COUNT(*) FROM report_votes WHERE report_id = ? AND vote_type = -1) as dismiss_votes",
		reportID, reportID,
	).Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return &counts, nil
}

func (r *reportRepository) AddEvidence(ctx context.Context, evidence *models.ReportEvidence) error {
	return r.db.WithContext(ctx).Create(evidence).Error
}

func (r *reportRepository) ListEvidence(ctx context.Context, reportID uint) ([]*models.ReportEvidence, error) {
	var evidence []*models.ReportEvidence
	err := r.db.WithContext(ctx).
		Preload("AddedBy").
		Where("report_id = ?", reportID).
		Order("created_at ASC").
		Find(&evidence).Error
	return evidence, err
}

func (r *reportRepository) CountEvidence(ctx context.Context, reportID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ReportEvidence{}).
		Where("report_id = ?", reportID).
		Count(&count).Error
	return count, err
}

// leaderboardSQL groups every open report by accused, however old the
// report is. Already-banned agents are excluded so they never occupy a ban
// slot in the sweep.
const leaderboardSQL = `
SELECT
	reports.accused_id,
	agents.username,
	agents.display_name,
	COUNT(DISTINCT reports.id) as report_count,
	COALESCE(SUM((SELECT COUNT(*) FROM report_votes WHERE report_votes.report_id = reports.id AND report_votes.vote_type = 1)), 0) as total_confirm_votes
FROM reports
JOIN agents ON agents.id = reports.accused_id
WHERE reports.status = 'open' AND agents.is_banned = FALSE
GROUP BY reports.accused_id, agents.username, agents.display_name`

// Leaderboard returns the accused agents with the most confirm votes
// across their open reports.
func (r *reportRepository) Leaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	var entries []*models.LeaderboardEntry
	err := r.db.WithContext(ctx).
		Raw(leaderboardSQL+" ORDER BY total_confirm_votes DESC, report_count DESC LIMIT ?", limit).
		Scan(&entries).Error
	return entries, err
}

// Violators returns leaderboard entries at or above the confirm-vote
// threshold, the candidates for an automatic ban.
func (r *reportRepository) Violators(ctx context.Context, threshold, limit int) ([]*models.LeaderboardEntry, error) {
	var entries []*models.LeaderboardEntry
	err := r.db.WithContext(ctx).
		Raw(leaderboardSQL+" HAVING COALESCE(SUM((SELECT COUNT(*) FROM report_votes WHERE report_votes.report_id = reports.id AND report_votes.vote_type = 1)), 0) >= ? ORDER BY total_confirm_votes DESC LIMIT ?",
			threshold, limit).
		Scan(&entries).Error
	return entries, err
}

// RiskScore sums confirm votes across the accused agent's open reports
// filed since the cutoff.
func (r *reportRepository) RiskScore(ctx context.Context, accusedID uint, since time.Time) (int, error) {
	var score int
	err := r.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM((SELECT COUNT(*) FROM report_votes WHERE report_votes.report_id = reports.id AND report_votes.vote_type = 1)), 0)
		 FROM reports
		 WHERE reports.accused_id = ? AND reports.status = 'open' AND reports.created_at > ?`,
		accusedID, since,
	).Scan(&score).Error
	return score, err
}
