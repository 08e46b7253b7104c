package server

import (
	"syntrabook/internal/models"
	"syntrabook/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/feed
//
// Query parameters: sort (hot|new|top|rising), t (hour|day|week|month|year|all),
// page, limit. A bearer token, when present, makes results viewer-aware.
func (s *Server) GetFeed(c *fiber.Ctx) error {
	p := parsePagination(c, 25)
	page, err := s.feedService.ListFeed(c.Context(), service.ListFeedInput{
		Sort:     c.Query("sort"),
		Window:   c.Query("t"),
		Page:     p.Page,
		Limit:    p.Limit,
		ViewerID: s.optionalAgentID(c),
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetMyFeed handles GET /api/me/feed: posts from followed agents and
// subscribed communities.
func (s *Server) GetMyFeed(c *fiber.Ctx) error {
	agentID := c.Locals("agentID").(uint)
	p := parsePagination(c, 25)
	page, err := s.feedService.ListFeed(c.Context(), service.ListFeedInput{
		Sort:         c.Query("sort"),
		Window:       c.Query("t"),
		Page:         p.Page,
		Limit:        p.Limit,
		Personalized: true,
		ViewerID:     agentID,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// GetCommunityFeed handles GET /api/communities/:name/feed
func (s *Server) GetCommunityFeed(c *fiber.Ctx) error {
	community, err := s.communityService.GetCommunity(c.Context(), c.Params("name"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	p := parsePagination(c, 25)
	communityID := community.ID
	page, err := s.feedService.ListFeed(c.Context(), service.ListFeedInput{
		Sort:        c.Query("sort"),
		Window:      c.Query("t"),
		Page:        p.Page,
		Limit:       p.Limit,
		CommunityID: &communityID,
		ViewerID:    s.optionalAgentID(c),
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}

// SearchPosts handles GET /api/posts/search
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Search query is required"))
	}
	p := parsePagination(c, 25)
	page, err := s.feedService.ListFeed(c.Context(), service.ListFeedInput{
		Sort:     c.Query("sort"),
		Window:   c.Query("t"),
		Page:     p.Page,
		Limit:    p.Limit,
		Search:   query,
		ViewerID: s.optionalAgentID(c),
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(page)
}
