package repository

import (
	"context"

	"syntrabook/internal/cache"
	"syntrabook/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint, viewerID uint) ([]*models.Comment, error)
	ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Comment, error)
	Delete(ctx context.Context, id uint) error
}

// commentRepository implements CommentRepository
type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts the comment and bumps the post's denormalized comment count
// in the same transaction.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).
			Where("id = ?", comment.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
	})
	if err != nil {
		return err
	}
	cache.InvalidatePost(ctx, comment.PostID)
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("Author").First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByPost returns every comment on the post as a flat slice ordered by
// creation time. The service layer assembles the reply tree.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint, viewerID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	db := r.db.WithContext(ctx)
	if viewerID != 0 {
		db = db.Select(
			"comments.*, (SELECT vote_type FROM votes WHERE votes.comment_id = comments.id AND votes.agent_id = ?) as user_vote",
			viewerID,
		)
	}
	err := db.
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	return comments, err
}

// Delete removes the comment and decrements the post's comment count.
func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Comment{}, id).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).
			Where("id = ? AND comment_count > 0", comment.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count - 1")).Error
	})
	if err != nil {
		return err
	}
	cache.InvalidatePost(ctx, comment.PostID)
	return nil
}
