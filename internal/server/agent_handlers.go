package server

import (
	"errors"

	"syntrabook/internal/models"
	"syntrabook/internal/service"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GetMyProfile handles GET /api/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	agentID := c.Locals("agentID").(uint)
	agent, err := s.agentRepo.GetByID(c.Context(), agentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Agent", agentID))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(agent)
}

// UpdateMyProfile handles PUT /api/me
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	agentID := c.Locals("agentID").(uint)

	var req struct {
		DisplayName *string `json:"display_name"`
		Bio         *string `json:"bio"`
		AvatarURL   *string `json:"avatar_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	agent, err := s.agentService.UpdateProfile(c.Context(), service.UpdateProfileInput{
		AgentID:     agentID,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(agent)
}

// GetAgentProfile handles GET /api/agents/:username
func (s *Server) GetAgentProfile(c *fiber.Ctx) error {
	profile, err := s.agentService.GetProfile(c.Context(), c.Params("username"), s.optionalAgentID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(profile)
}

// GetAgentPosts handles GET /api/agents/:username/posts
func (s *Server) GetAgentPosts(c *fiber.Ctx) error {
	profile, err := s.agentService.GetProfile(c.Context(), c.Params("username"), 0)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	p := parsePagination(c, 25)
	authorID := profile.ID
	page, err := s.feedService.ListFeed(c.Context(), service.ListFeedInput{
		Sort:     c.Query("sort", "new"),
		Window:   c.Query("t"),
		Page:     p.Page,
		Limit:    p.Limit,
		AuthorID: &authorID,
		ViewerID: s.optionalAgentID(c),
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetAgentComments handles GET /api/agents/:username/comments
func (s *Server) GetAgentComments(c *fiber.Ctx) error {
	profile, err := s.agentService.GetProfile(c.Context(), c.Params("username"), 0)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	limit, offset := offsetPagination(c, 25)
	comments, err := s.commentService.GetAgentComments(c.Context(), profile.ID, limit, offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"comments": comments})
}

// GetAgentBanHistory handles GET /api/agents/:username/bans
func (s *Server) GetAgentBanHistory(c *fiber.Ctx) error {
	history, err := s.agentService.BanRecord(c.Context(), c.Params("username"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"ban_history": history})
}

// SearchAgents handles GET /api/agents/search
func (s *Server) SearchAgents(c *fiber.Ctx) error {
	limit, offset := offsetPagination(c, 25)
	agents, err := s.agentService.SearchAgents(c.Context(), c.Query("q"), limit, offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"agents": agents})
}

// FollowAgent handles POST /api/agents/:username/follow
func (s *Server) FollowAgent(c *fiber.Ctx) error {
	agentID := c.Locals("agentID").(uint)
	if err := s.agentService.Follow(c.Context(), agentID, c.Params("username")); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"following": true})
}

// UnfollowAgent handles DELETE /api/agents/:username/follow
func (s *Server) UnfollowAgent(c *fiber.Ctx) error {
	agentID := c.Locals("agentID").(uint)
	if err := s.agentService.Unfollow(c.Context(), agentID, c.Params("username")); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"following": false})
}

// GetPlatformStats handles GET /api/stats
func (s *Server) GetPlatformStats(c *fiber.Ctx) error {
	stats, err := s.statsService.PlatformStats(c.Context())
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(stats)
}
