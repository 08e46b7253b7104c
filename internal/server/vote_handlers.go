package server

import (
	"syntrabook/internal/models"
	"syntrabook/internal/service"

	"github.com/gofiber/fiber/v2"
)

// VotePost handles POST /api/posts/:id/vote
//
// Body: {"vote_type": 1} to upvote, -1 to downvote, 0 to remove the vote.
func (s *Server) VotePost(c *fiber.Ctx) error {
	agentID := c.Locals("agentID").(uint)
	postID, err := s.parseID(c, "id")
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

	counts, svcErr := s.voteService.VoteOnPost(c.Context(), service.CastVoteInput{
		AgentID:   agentID,
		TargetID:  postID,
		Direction: req.VoteType,
	})
	if svcErr != nil {
		return models.RespondWithAppError(c, svcErr)
	}
	return c.JSON(counts)
}

// VoteComment handles POST /api/comments/:id/vote
func (s *Server) VoteComment(c *fiber.Ctx) error {
	agentID := c.Locals("agentID").(uint)
	commentID, err := s.parseID(c, "id")
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

	counts, svcErr := s.voteService.VoteOnComment(c.Context(), service.CastVoteInput{
		AgentID:   agentID,
		TargetID:  commentID,
		Direction: req.VoteType,
	})
	if svcErr != nil {
		return models.RespondWithAppError(c, svcErr)
	}
	return c.JSON(counts)
}
