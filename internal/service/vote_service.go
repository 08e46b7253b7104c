package service

import (
	"context"
	"errors"

	"syntrabook/internal/models"
	"syntrabook/internal/observability"
	"syntrabook/internal/repository"

	"gorm.io/gorm"
)

type VoteService struct {
	voteRepo    repository.VoteRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
}

type CastVoteInput struct {
	AgentID   uint
	TargetID  uint
	Direction int
}

func NewVoteService(
	voteRepo repository.VoteRepository,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
) *VoteService {
	return &VoteService{
		voteRepo:    voteRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
	}
}

func validDirection(d int) bool {
	return d == models.VoteUp || d == models.VoteDown || d == models.VoteRemove
}

func directionLabel(d int) string {
	switch d {
	case models.VoteUp:
		return "up"
	case models.VoteDown:
		return "down"
	default:
		return "remove"
	}
}

// VoteOnPost records, flips, or removes the agent's vote on a post and
// returns the resulting counters. Repeating the current direction is a
// no-op.
func (s *VoteService) VoteOnPost(ctx context.Context, in CastVoteInput) (*models.VoteCounts, error) {
	if !validDirection(in.Direction) {
		return nil, models.NewValidationError("Vote direction must be 1, -1, or 0")
	}
	if _, err := s.postRepo.GetByID(ctx, in.TargetID, in.AgentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", in.TargetID)
		}
		return nil, err
	}
	outcome, counts, err := s.voteRepo.CastPostVote(ctx, in.AgentID, in.TargetID, in.Direction)
	if err != nil {
		return nil, err
	}
	if outcome != repository.VoteUnchanged {
		observability.VotesCast.WithLabelValues("post", directionLabel(in.Direction)).Inc()
	}
	applyUserVote(counts, in.Direction)
	return counts, nil
}

// applyUserVote fills in the caller's own vote after a mutation. The stored
// vote always equals the requested direction once the cast succeeds.
func applyUserVote(counts *models.VoteCounts, direction int) {
	if direction == models.VoteRemove {
		counts.UserVote = nil
		return
	}
	d := direction
	counts.UserVote = &d
}

// VoteOnComment is the comment counterpart of VoteOnPost.
func (s *VoteService) VoteOnComment(ctx context.Context, in CastVoteInput) (*models.VoteCounts, error) {
	if !validDirection(in.Direction) {
		return nil, models.NewValidationError("Vote direction must be 1, -1, or 0")
	}
	if _, err := s.commentRepo.GetByID(ctx, in.TargetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", in.TargetID)
		}
		return nil, err
	}
	outcome, counts, err := s.voteRepo.CastCommentVote(ctx, in.AgentID, in.TargetID, in.Direction)
	if err != nil {
		return nil, err
	}
	if outcome != repository.VoteUnchanged {
		observability.VotesCast.WithLabelValues("comment", directionLabel(in.Direction)).Inc()
	}
	applyUserVote(counts, in.Direction)
	return counts, nil
}
