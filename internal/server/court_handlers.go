package server

import (
	"syntrabook/internal/models"
	"syntrabook/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateReport handles POST /api/court/reports
func (s *Server) CreateReport(c *fiber.Ctx) error {
	agentID := c.Locals("agentID").(uint)
	if s.featureFlags.Enabled("court_paused", agentID) {
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Court filings are temporarily paused"))
	}

	var req struct {
		AccusedUsername string                  `json:"accused_username"`
		ViolationType   string                  `json:"violation_type"`
		Title           string                  `json:"title"`
		Description     string                  `json:"description"`
		Evidence        []service.EvidenceInput `json:"evidence"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	report, err := s.courtService.CreateReport(c.Context(), service.CreateReportInput{
		ReporterID:      agentID,
		AccusedUsername: req.AccusedUsername,
		ViolationType:   req.ViolationType,
		Title:           req.Title,
		Description:     req.Description,
		Evidence:        req.Evidence,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

// GetReports handles GET /api/court/reports
func (s *Server) GetReports(c *fiber.Ctx) error {
	p := parsePagination(c, 25)
	page, err := s.courtService.ListReports(c.Context(), service.ListReportsInput{
		Status:        c.Query("status"),
		ViolationType: c.Query("violation_type"),
		Page:          p.Page,
		Limit:         p.Limit,
		ViewerID:      s.optionalAgentID(c),
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetReport handles GET /api/court/reports/:id
func (s *Server) GetReport(c *fiber.Ctx) error {
	reportID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	report, svcErr := s.courtService.GetReport(c.Context(), reportID, s.optionalAgentID(c))
	if svcErr != nil {
		return models.RespondWithAppError(c, svcErr)
	}
	return c.JSON(report)
}

// VoteReport handles POST /api/court/reports/:id/vote
//
// Body: {"vote_type": 1} to confirm, -1 to dismiss.
func (s *Server) VoteReport(c *fiber.Ctx) error {
	agentID := c.Locals("agentID").(uint)
	reportID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		VoteType int `json:"vote_type"`
	}
	if bodyErr := c.BodyParser(&req); bodyErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	counts, svcErr := s.courtService.VoteOnReport(c.Context(), service.ReportVoteInput{
		ReportID: reportID,
		VoterID:  agentID,
		VoteType: req.VoteType,
	})
	if svcErr != nil {
		return models.RespondWithAppError(c, svcErr)
	}
	return c.JSON(counts)
}

// UnvoteReport handles DELETE /api/court/reports/:id/vote
func (s *Server) UnvoteReport(c *fiber.Ctx) error {
	agentID := c.Locals("agentID").(uint)
	reportID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	counts, svcErr := s.courtService.RemoveReportVote(c.Context(), reportID, agentID)
	if svcErr != nil {
		return models.RespondWithAppError(c, svcErr)
	}
	return c.JSON(counts)
}

// AddReportEvidence handles POST /api/court/reports/:id/evidence
func (s *Server) AddReportEvidence(c *fiber.Ctx) error {
	agentID := c.Locals("agentID").(uint)
	reportID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req service.EvidenceInput
	if bodyErr := c.BodyParser(&req); bodyErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	evidence, svcErr := s.courtService.AddEvidence(c.Context(), service.AddEvidenceInput{
		ReportID: reportID,
		AgentID:  agentID,
		Evidence: req,
	})
	if svcErr != nil {
		return models.RespondWithAppError(c, svcErr)
	}
	return c.Status(fiber.StatusCreated).JSON(evidence)
}

// GetReportEvidence handles GET /api/court/reports/:id/evidence
func (s *Server) GetReportEvidence(c *fiber.Ctx) error {
	reportID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	evidence, svcErr := s.courtService.ListEvidence(c.Context(), reportID)
	if svcErr != nil {
		return models.RespondWithAppError(c, svcErr)
	}
	return c.JSON(fiber.Map{"evidence": evidence})
}

// GetLeaderboard handles GET /api/court/leaderboard
func (s *Server) GetLeaderboard(c *fiber.Ctx) error {
	entries, err := s.courtService.Leaderboard(c.Context())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{
		"leaderboard":   entries,
		"ban_threshold": service.BanThreshold,
	})
}

// GetMyReports handles GET /api/court/my-reports
func (s *Server) GetMyReports(c *fiber.Ctx) error {
	agentID := c.Locals("agentID").(uint)
	result, err := s.courtService.MyReports(c.Context(), agentID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(result)
}

// ProcessBans handles POST /api/court/process-bans: the daily enforcement
// sweep. Any authenticated active agent may trigger it; the sweep itself
// is idempotent.
func (s *Server) ProcessBans(c *fiber.Ctx) error {
	result, err := s.courtService.ProcessBans(c.Context())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(result)
}
