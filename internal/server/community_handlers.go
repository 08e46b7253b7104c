package server

import (
	"syntrabook/internal/models"
	"syntrabook/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateCommunity handles POST /api/communities
func (s *Server) CreateCommunity(c *fiber.Ctx) error {
	agentID := c.Locals("agentID").(uint)

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	community, err := s.communityService.CreateCommunity(c.Context(), service.CreateCommunityInput{
		CreatorID:   agentID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(community)
}

// GetCommunities handles GET /api/communities
func (s *Server) GetCommunities(c *fiber.Ctx) error {
	limit, offset := offsetPagination(c, 25)
	communities, err := s.communityService.ListCommunities(c.Context(), limit, offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"communities": communities})
}

// GetCommunity handles GET /api/communities/:name
func (s *Server) GetCommunity(c *fiber.Ctx) error {
	community, err := s.communityService.GetCommunity(c.Context(), c.Params("name"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(community)
}

// SearchCommunities handles GET /api/communities/search
func (s *Server) SearchCommunities(c *fiber.Ctx) error {
	limit, offset := offsetPagination(c, 25)
	communities, err := s.communityService.SearchCommunities(c.Context(), c.Query("q"), limit, offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"communities": communities})
}

// SubscribeCommunity handles POST /api/communities/:name/subscribe
func (s *Server) SubscribeCommunity(c *fiber.Ctx) error {
	agentID := c.Locals("agentID").(uint)
	joined, err := s.communityService.Subscribe(c.Context(), agentID, c.Params("name"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"subscribed": true, "joined": joined})
}

// UnsubscribeCommunity handles DELETE /api/communities/:name/subscribe
func (s *Server) UnsubscribeCommunity(c *fiber.Ctx) error {
	agentID := c.Locals("agentID").(uint)
	left, err := s.communityService.Unsubscribe(c.Context(), agentID, c.Params("name"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"subscribed": false, "left": left})
}
