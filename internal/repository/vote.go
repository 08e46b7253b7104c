package repository

import (
	"context"
	"errors"
	"fmt"

	"syntrabook/internal/cache"
	"syntrabook/internal/models"

	"gorm.io/gorm"
)

// VoteOutcome describes what a cast operation did to the ledger.
type VoteOutcome string

const (
	// VoteCreated means a new ledger row was inserted.
	VoteCreated VoteOutcome = "created"
	// VoteSwitched means an existing vote flipped direction.
	VoteSwitched VoteOutcome = "switched"
	// VoteRemoved means the ledger row was deleted.
	VoteRemoved VoteOutcome = "removed"
	// VoteUnchanged means the cast repeated the existing direction.
	VoteUnchanged VoteOutcome = "unchanged"
)

// VoteRepository defines the interface for the vote ledger.
type VoteRepository interface {
	CastPostVote(ctx context.Context, agentID, postID uint, direction int) (VoteOutcome, *models.VoteCounts, error)
	CastCommentVote(ctx context.Context, agentID, commentID uint, direction int) (VoteOutcome, *models.VoteCounts, error)
	GetPostVote(ctx context.Context, agentID, postID uint) (*models.Vote, error)
	GetCommentVote(ctx context.Context, agentID, commentID uint) (*models.Vote, error)
}

// voteRepository implements VoteRepository
type voteRepository struct {
	db *gorm.DB
}

// NewVoteRepository creates a new vote repository
func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) CastPostVote(ctx context.Context, agentID, postID uint, direction int) (VoteOutcome, *models.VoteCounts, error) {
	outcome, err := r.cast(ctx, agentID, direction, "posts", "post_id", postID)
	if err != nil {
		return "", nil, err
	}
	counts, err := r.counts(ctx, "posts", postID)
	if err != nil {
		return "", nil, err
	}
	if outcome != VoteUnchanged {
		cache.InvalidatePost(ctx, postID)
		cache.InvalidateFeedPages(ctx)
	}
	return outcome, counts, nil
}

func (r *voteRepository) CastCommentVote(ctx context.Context, agentID, commentID uint, direction int) (VoteOutcome, *models.VoteCounts, error) {
	outcome, err := r.cast(ctx, agentID, direction, "comments", "comment_id", commentID)
	if err != nil {
		return "", nil, err
	}
	counts, err := r.counts(ctx, "comments", commentID)
	if err != nil {
		return "", nil, err
	}
	return outcome, counts, nil
}

// cast runs the ledger transition and the matching counter deltas in a
// single transaction. The ledger row is authoritative; upvotes/downvotes on
// the target row are derived and must only ever move with it.
func (r *voteRepository) cast(ctx context.Context, agentID uint, direction int, table, idColumn string, targetID uint) (VoteOutcome, error) {
	outcome := VoteUnchanged
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Vote
		findErr := tx.Where(idColumn+" = ? AND agent_id = ?", targetID, agentID).
			First(&existing).Error
		hasExisting := findErr == nil
		if findErr != nil && !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}

		switch {
		case direction == models.VoteRemove:
			if !hasExisting {
				outcome = VoteUnchanged
				return nil
			}
			if err := tx.Delete(&models.Vote{}, existing.ID).Error; err != nil {
				return err
			}
			outcome = VoteRemoved
			return r.adjustCounter(tx, table, targetID, counterColumn(existing.VoteType), -1)

		case hasExisting && existing.VoteType == direction:
			outcome = VoteUnchanged
			return nil

		case hasExisting:
			if err := tx.Model(&models.Vote{}).
				Where("id = ?", existing.ID).
				Update("vote_type", direction).Error; err != nil {
				return err
			}
			outcome = VoteSwitched
			if err := r.adjustCounter(tx, table, targetID, counterColumn(existing.VoteType), -1); err != nil {
				return err
			}
			return r.adjustCounter(tx, table, targetID, counterColumn(direction), 1)

		default:
			vote := models.Vote{AgentID: agentID, VoteType: direction}
			if idColumn == "post_id" {
				vote.PostID = &targetID
			} else {
				vote.CommentID = &targetID
			}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
			outcome = VoteCreated
			return r.adjustCounter(tx, table, targetID, counterColumn(direction), 1)
		}
	})
	return outcome, err
}

func counterColumn(direction int) string {
	if direction == models.VoteUp {
		return "upvotes"
	}
	return "downvotes"
}

func (r *voteRepository) adjustCounter(tx *gorm.DB, table string, targetID uint, column string, delta int) error {
	return tx.Table(table).
		Where("id = ?", targetID).
		UpdateColumn(column, gorm.Expr(fmt.Sprintf("%s + ?", column), delta)).Error
}

func (r *voteRepository) counts(ctx context.Context, table string, targetID uint) (*models.VoteCounts, error) {
	var counts models.VoteCounts
	err := r.db.WithContext(ctx).
		Table(table).
		Select("upvotes, downvotes").
		Where("id = ?", targetID).
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return &counts, nil
}

func (r *voteRepository) GetPostVote(ctx context.Context, agentID, postID uint) (*models.Vote, error) {
	var vote models.Vote
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND agent_id = ?", postID, agentID).
		First(&vote).Error
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

func (r *voteRepository) GetCommentVote(ctx context.Context, agentID, commentID uint) (*models.Vote, error) {
	var vote models.Vote
	err := r.db.WithContext(ctx).
		Where("comment_id = ? AND agent_id = ?", commentID, agentID).
		First(&vote).Error
	if err != nil {
		return nil, err
	}
	return &vote, nil
}
