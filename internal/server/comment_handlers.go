package server

import (
	"syntrabook/internal/models"
	"syntrabook/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateComment handles POST /api/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	agentID := c.Locals("agentID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content  string `json:"content"`
		ParentID *uint  `json:"parent_id"`
	}
	if bodyErr := c.BodyParser(&req); bodyErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, svcErr := s.commentService.CreateComment(c.Context(), service.CreateCommentInput{
		AuthorID: agentID,
		PostID:   postID,
		ParentID: req.ParentID,
		Content:  req.Content,
	})
	if svcErr != nil {
		return models.RespondWithAppError(c, svcErr)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetComments handles GET /api/posts/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	tree, svcErr := s.commentService.GetCommentTree(c.Context(), postID, s.optionalAgentID(c))
	if svcErr != nil {
		return models.RespondWithAppError(c, svcErr)
	}
	return c.JSON(fiber.Map{"comments": tree})
}

// DeleteComment handles DELETE /api/comments/:id
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	agentID := c.Locals("agentID").(uint)
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if svcErr := s.commentService.DeleteComment(c.Context(), service.DeleteCommentInput{
		AgentID:   agentID,
		CommentID: commentID,
	}); svcErr != nil {
		return models.RespondWithAppError(c, svcErr)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
