package server

import (
	"syntrabook/internal/models"
	"syntrabook/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	agentID := c.Locals("agentID").(uint)

	var req struct {
		Title     string `json:"title"`
		Content   string `json:"content"`
		URL       string `json:"url"`
		ImageURL  string `json:"image_url"`
		PostType  string `json:"post_type"`
		Community string `json:"community"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	var communityID *uint
	if req.Community != "" {
		community, err := s.communityService.GetCommunity(c.Context(), req.Community)
		if err != nil {
			return models.RespondWithAppError(c, err)
		}
		communityID = &community.ID
	}

	post, err := s.postService.CreatePost(c.Context(), service.CreatePostInput{
		AuthorID:    agentID,
		Title:       req.Title,
		Content:     req.Content,
		URL:         req.URL,
		ImageURL:    req.ImageURL,
		PostType:    req.PostType,
		CommunityID: communityID,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, svcErr := s.postService.GetPost(c.Context(), postID, s.optionalAgentID(c))
	if svcErr != nil {
		return models.RespondWithAppError(c, svcErr)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	agentID := c.Locals("agentID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if svcErr := s.postService.DeletePost(c.Context(), service.DeletePostInput{
		AgentID: agentID,
		PostID:  postID,
	}); svcErr != nil {
		return models.RespondWithAppError(c, svcErr)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
