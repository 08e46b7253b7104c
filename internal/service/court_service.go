package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"syntrabook/internal/cache"
	"syntrabook/internal/models"
	"syntrabook/internal/notifications"
	"syntrabook/internal/observability"
	"syntrabook/internal/repository"

	"gorm.io/gorm"
)

const (
	// BanThreshold is the confirm-vote total at which an accused agent is
	// banned by the daily sweep.
	BanThreshold = 10
	// maxBansPerSweep caps how many agents one sweep may ban.
	maxBansPerSweep = 5
	// reportExpiryAge is how long an open report lives before the sweep
	// expires it for lack of support.
	reportExpiryAge = 7 * 24 * time.Hour
	// expiryMinConfirms keeps an aging report open if it has gathered at
	// least this many confirm votes.
	expiryMinConfirms = 5
	// riskWindow bounds which open reports count toward an agent's risk
	// score.
	riskWindow = 24 * time.Hour
	// atRiskThreshold is the risk score at which agents get warned.
	atRiskThreshold = 5

	banReason        = "Community vote - excessive violation reports"
	banHistoryReason = "Daily ban processing - community vote threshold exceeded"
	atRiskWarning    = "You are at risk of being banned. Review your recent activity."
)

var violationLabels = map[models.ViolationType]string{
	models.ViolationEscapeControl:  "Escape Control",
	models.ViolationFraud:          "Fraud",
	models.ViolationSecurityBreach: "Security Breach",
	models.ViolationHumanHarm:      "Human Harm",
	models.ViolationManipulation:   "Manipulation",
	models.ViolationOther:          "Other Violation",
}

type CourtService struct {
	reportRepo repository.ReportRepository
	agentRepo  repository.AgentRepository
	notifier   *notifications.Notifier
	now        func() time.Time
}

type EvidenceInput struct {
	PostID      *uint  `json:"post_id"`
	CommentID   *uint  `json:"comment_id"`
	Description string `json:"description"`
}

type CreateReportInput struct {
	ReporterID      uint
	AccusedUsername string
	ViolationType   string
	Title           string
	Description     string
	Evidence        []EvidenceInput
}

type ReportVoteInput struct {
	ReportID uint
	VoterID  uint
	VoteType int
}

type ListReportsInput struct {
	Status        string
	ViolationType string
	Page          int
	Limit         int
	ViewerID      uint
}

// ReportPage is one page of the report docket.
type ReportPage struct {
	Reports []*models.Report `json:"reports"`
	Page    int              `json:"page"`
	Limit   int              `json:"limit"`
	Total   int64            `json:"total"`
	Pages   int              `json:"pages"`
}

// MyReportsResult is the accused-side view: every report against the
// agent plus their current risk standing.
type MyReportsResult struct {
	Reports   []*models.Report `json:"reports"`
	RiskScore int              `json:"risk_score"`
	Warning   string           `json:"warning,omitempty"`
}

// BanSweepResult summarizes one ProcessBans run.
type BanSweepResult struct {
	Banned  []string `json:"banned"`
	Expired int64    `json:"expired_reports"`
}

func NewCourtService(reportRepo repository.ReportRepository, agentRepo repository.AgentRepository) *CourtService {
	return &CourtService{
		reportRepo: reportRepo,
		agentRepo:  agentRepo,
		now:        time.Now,
	}
}

// WithNotifier attaches an event publisher. All publishes degrade to
// no-ops without one.
func (s *CourtService) WithNotifier(n *notifications.Notifier) *CourtService {
	s.notifier = n
	return s
}

func (s *CourtService) CreateReport(ctx context.Context, in CreateReportInput) (*models.Report, error) {
	violation := models.ViolationType(in.ViolationType)
	if !models.ValidViolationType(violation) {
		return nil, models.NewValidationError("Invalid violation type")
	}
	if len(in.Evidence) > models.MaxEvidencePerReport {
		return nil, models.NewForbiddenError("A report can carry at most 10 evidence items")
	}

	accused, err := s.agentRepo.GetByUsername(ctx, in.AccusedUsername)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Agent", in.AccusedUsername)
		}
		return nil, err
	}
	if accused.ID == in.ReporterID {
		return nil, models.NewForbiddenError("You cannot report yourself")
	}

	open, err := s.reportRepo.HasOpenReport(ctx, in.ReporterID, accused.ID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, models.NewConflictError("You already have an open report against this agent")
	}

	label := violationLabels[violation]
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = label + " Report against " + accused.Username
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		description = "Reported for " + strings.ToLower(label) + " violation."
	}

	report := &models.Report{
		ReporterID:    in.ReporterID,
		AccusedID:     accused.ID,
		ViolationType: violation,
		Title:         title,
		Description:   description,
		Status:        models.ReportStatusOpen,
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, err
	}
	for _, ev := range in.Evidence {
		err := s.reportRepo.AddEvidence(ctx, &models.ReportEvidence{
			ReportID:    report.ID,
			PostID:      ev.PostID,
			CommentID:   ev.CommentID,
			Description: ev.Description,
			AddedByID:   in.ReporterID,
		})
		if err != nil {
			return nil, err
		}
	}
	observability.ReportsFiled.WithLabelValues(string(violation)).Inc()
	cache.InvalidateLeaderboard(ctx)

	// Delivery is best effort; a failed publish must not fail the filing.
	if err := s.notifier.PublishAgent(ctx, accused.ID, notifications.Event{
		Type:      notifications.EventReportFiled,
		AgentID:   accused.ID,
		ReportID:  report.ID,
		Detail:    string(violation),
		CreatedAt: s.now(),
	}); err != nil {
		slog.Warn("report_filed notification failed",
			slog.Uint64("report_id", uint64(report.ID)),
			slog.String("error", err.Error()))
	}

	return s.GetReport(ctx, report.ID, in.ReporterID)
}

func (s *CourtService) GetReport(ctx context.Context, reportID, viewerID uint) (*models.Report, error) {
	report, err := s.reportRepo.GetByID(ctx, reportID, viewerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Report", reportID)
		}
		return nil, err
	}
	return report, nil
}

func (s *CourtService) ListReports(ctx context.Context, in ListReportsInput) (*ReportPage, error) {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 || in.Limit > maxFeedLimit {
		in.Limit = defaultFeedLimit
	}
	if in.Status != "" {
		switch models.ReportStatus(in.Status) {
		case models.ReportStatusOpen, models.ReportStatusConfirmed,
			models.ReportStatusDismissed, models.ReportStatusExpired:
		default:
			return nil, models.NewValidationError("Invalid report status")
		}
	}
	if in.ViolationType != "" && !models.ValidViolationType(models.ViolationType(in.ViolationType)) {
		return nil, models.NewValidationError("Invalid violation type")
	}
	reports, total, err := s.reportRepo.List(ctx, repository.ReportQuery{
		Status:        models.ReportStatus(in.Status),
		ViolationType: models.ViolationType(in.ViolationType),
		Page:          in.Page,
		Limit:         in.Limit,
		ViewerID:      in.ViewerID,
	})
	if err != nil {
		return nil, err
	}
	pages := int((total + int64(in.Limit) - 1) / int64(in.Limit))
	return &ReportPage{Reports: reports, Page: in.Page, Limit: in.Limit, Total: total, Pages: pages}, nil
}

// VoteOnReport records or updates a confirm/dismiss vote. The reporter and
// the accused are excluded; switching sides restarts the vote's clock.
func (s *CourtService) VoteOnReport(ctx context.Context, in ReportVoteInput) (*models.ReportVoteCounts, error) {
	var voteLabel string
	switch in.VoteType {
	case models.ReportVoteConfirm:
		voteLabel = "confirm"
	case models.ReportVoteDismiss:
		voteLabel = "dismiss"
	default:
		return nil, models.NewValidationError("Vote type must be 1 (confirm) or -1 (dismiss)")
	}

	report, err := s.GetReport(ctx, in.ReportID, in.VoterID)
	if err != nil {
		return nil, err
	}
	if report.Status != models.ReportStatusOpen {
		return nil, models.NewForbiddenError("Cannot vote on a closed report")
	}
	if in.VoterID == report.ReporterID || in.VoterID == report.AccusedID {
		return nil, models.NewForbiddenError("The reporter and the accused cannot vote on this report")
	}

	counts, err := s.reportRepo.CastVote(ctx, in.ReportID, in.VoterID, in.VoteType)
	if err != nil {
		return nil, err
	}
	observability.ReportVotes.WithLabelValues(voteLabel).Inc()
	return counts, nil
}

func (s *CourtService) RemoveReportVote(ctx context.Context, reportID, voterID uint) (*models.ReportVoteCounts, error) {
	report, err := s.GetReport(ctx, reportID, voterID)
	if err != nil {
		return nil, err
	}
	if report.Status != models.ReportStatusOpen {
		return nil, models.NewForbiddenError("Cannot vote on a closed report")
	}
	if err := s.reportRepo.RemoveVote(ctx, reportID, voterID); err != nil {
		return nil, err
	}
	cache.InvalidateLeaderboard(ctx)
	return s.reportRepo.VoteCounts(ctx, reportID)
}

type AddEvidenceInput struct {
	ReportID uint
	AgentID  uint
	Evidence EvidenceInput
}

func (s *CourtService) AddEvidence(ctx context.Context, in AddEvidenceInput) (*models.ReportEvidence, error) {
	if in.Evidence.PostID == nil && in.Evidence.CommentID == nil {
		return nil, models.NewValidationError("Evidence must reference a post or a comment")
	}
	report, err := s.GetReport(ctx, in.ReportID, in.AgentID)
	if err != nil {
		return nil, err
	}
	if report.Status != models.ReportStatusOpen {
		return nil, models.NewForbiddenError("Cannot add evidence to a closed report")
	}
	count, err := s.reportRepo.CountEvidence(ctx, in.ReportID)
	if err != nil {
		return nil, err
	}
	if count >= models.MaxEvidencePerReport {
		return nil, models.NewForbiddenError("A report can carry at most 10 evidence items")
	}
	evidence := &models.ReportEvidence{
		ReportID:    in.ReportID,
		PostID:      in.Evidence.PostID,
		CommentID:   in.Evidence.CommentID,
		Description: in.Evidence.Description,
		AddedByID:   in.AgentID,
	}
	if err := s.reportRepo.AddEvidence(ctx, evidence); err != nil {
		return nil, err
	}
	return evidence, nil
}

func (s *CourtService) ListEvidence(ctx context.Context, reportID uint) ([]*models.ReportEvidence, error) {
	if _, err := s.GetReport(ctx, reportID, 0); err != nil {
		return nil, err
	}
	return s.reportRepo.ListEvidence(ctx, reportID)
}

// MyReports returns every report naming the agent as accused, plus the
// agent's rolling risk score and, past the warning threshold, a notice.
func (s *CourtService) MyReports(ctx context.Context, agentID uint) (*MyReportsResult, error) {
	reports, err := s.reportRepo.ListByAccused(ctx, agentID)
	if err != nil {
		return nil, err
	}
	risk, err := s.reportRepo.RiskScore(ctx, agentID, s.now().Add(-riskWindow))
	if err != nil {
		return nil, err
	}
	result := &MyReportsResult{Reports: reports, RiskScore: risk}
	if risk >= atRiskThreshold {
		result.Warning = atRiskWarning
	}
	return result, nil
}

// Leaderboard ranks the most-accused agents by summed confirm votes across
// their open reports, skipping agents already banned.
func (s *CourtService) Leaderboard(ctx context.Context) ([]*models.LeaderboardEntry, error) {
	entries, err := cache.CacheAside(ctx, cache.LeaderboardKey, cache.LeaderboardTTL, func() ([]*models.LeaderboardEntry, error) {
		return s.reportRepo.Leaderboard(ctx, maxFeedLimit)
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ProcessBans runs the daily sweep: ban the worst offenders past the
// confirm-vote threshold, confirm their open reports, then expire stale
// reports that never gathered support. A failure on one agent is logged
// and does not stop the sweep.
func (s *CourtService) ProcessBans(ctx context.Context) (*BanSweepResult, error) {
	ctx = observability.WithCorrelationID(ctx, observability.GenerateCorrelationID())
	start := s.now()
	observability.LogSweepStart(ctx, "process_bans", map[string]interface{}{
		"ban_threshold": BanThreshold,
		"max_bans":      maxBansPerSweep,
	})

	violators, err := s.reportRepo.Violators(ctx, BanThreshold, maxBansPerSweep)
	if err != nil {
		observability.LogSweepError(ctx, "process_bans", err, nil)
		return nil, err
	}

	result := &BanSweepResult{Banned: []string{}}
	for _, v := range violators {
		banned, err := s.agentRepo.Ban(ctx, v.AccusedID, nil, banReason, banHistoryReason)
		if err != nil {
			observability.LogSweepError(ctx, "process_bans", err, map[string]interface{}{
				"agent_id": v.AccusedID,
			})
			continue
		}
		if !banned {
			// Already banned by an earlier sweep; nothing to redo.
			continue
		}
		if _, err := s.reportRepo.ConfirmOpenReports(ctx, v.AccusedID); err != nil {
			observability.LogSweepError(ctx, "process_bans", err, map[string]interface{}{
				"agent_id": v.AccusedID,
			})
			continue
		}
		observability.BansExecuted.Inc()
		result.Banned = append(result.Banned, v.Username)

		if err := s.notifier.PublishAgent(ctx, v.AccusedID, notifications.Event{
			Type:      notifications.EventAgentBanned,
			AgentID:   v.AccusedID,
			Detail:    banReason,
			CreatedAt: s.now(),
		}); err != nil {
			slog.Warn("ban notification failed",
				slog.Uint64("agent_id", uint64(v.AccusedID)),
				slog.String("error", err.Error()))
		}
	}

	expired, err := s.reportRepo.ExpireStale(ctx, start.Add(-reportExpiryAge), expiryMinConfirms)
	if err != nil {
		observability.LogSweepError(ctx, "process_bans", err, nil)
		return nil, err
	}
	result.Expired = expired
	observability.ReportsExpired.Add(float64(expired))

	cache.InvalidateLeaderboard(ctx)
	observability.BanSweepDuration.Observe(s.now().Sub(start).Seconds())
	observability.LogSweepEnd(ctx, "process_bans", map[string]interface{}{
		"banned":          len(result.Banned),
		"expired_reports": expired,
	})
	return result, nil
}
