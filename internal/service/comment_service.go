package service

import (
	"context"
	"errors"
	"strings"

	"syntrabook/internal/cache"
	"syntrabook/internal/models"
	"syntrabook/internal/repository"

	"gorm.io/gorm"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	voteRepo    repository.VoteRepository
}

type CreateCommentInput struct {
	AuthorID uint
	PostID   uint
	ParentID *uint
	Content  string
}

type DeleteCommentInput struct {
	AgentID   uint
	CommentID uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	voteRepo repository.VoteRepository,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		voteRepo:    voteRepo,
	}
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if _, err := s.postRepo.GetByID(ctx, in.PostID, in.AuthorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", in.PostID)
		}
		return nil, err
	}
	if in.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewNotFoundError("Comment", *in.ParentID)
			}
			return nil, err
		}
		if parent.PostID != in.PostID {
			return nil, models.NewValidationError("Parent comment belongs to a different post")
		}
	}

	authorID := in.AuthorID
	comment := &models.Comment{
		Content:  in.Content,
		AuthorID: &authorID,
		PostID:   in.PostID,
		ParentID: in.ParentID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	// Authors start their own comments at +1, same as posts on most forums.
	if _, _, err := s.voteRepo.CastCommentVote(ctx, in.AuthorID, comment.ID, models.VoteUp); err != nil {
		return nil, err
	}
	comment.Upvotes = 1
	up := models.VoteUp
	comment.UserVote = &up
	return comment, nil
}

// GetCommentTree returns the post's comments threaded by parent, oldest
// first at every level.
func (s *CommentService) GetCommentTree(ctx context.Context, postID, viewerID uint) ([]*models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, viewerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", postID)
		}
		return nil, err
	}
	if viewerID == 0 {
		tree, err := cache.CacheAside(ctx, cache.CommentTreeKey(postID), cache.CommentTreeTTL, func() ([]*models.Comment, error) {
			return s.assembleTree(ctx, postID, viewerID)
		})
		if err != nil {
			return nil, err
		}
		return tree, nil
	}
	return s.assembleTree(ctx, postID, viewerID)
}

func (s *CommentService) assembleTree(ctx context.Context, postID, viewerID uint) ([]*models.Comment, error) {
	flat, err := s.commentRepo.ListByPost(ctx, postID, viewerID)
	if err != nil {
		return nil, err
	}
	return buildCommentTree(flat), nil
}

// buildCommentTree threads a flat, chronologically ordered comment list.
// A comment whose parent is missing (the parent was deleted) is promoted
// to the top level rather than dropped.
func buildCommentTree(flat []*models.Comment) []*models.Comment {
	byID := make(map[uint]*models.Comment, len(flat))
	for _, c := range flat {
		byID[c.ID] = c
	}
	roots := make([]*models.Comment, 0, len(flat))
	for _, c := range flat {
		if c.ParentID != nil {
			if parent, ok := byID[*c.ParentID]; ok {
				parent.Children = append(parent.Children, c)
				continue
			}
		}
		roots = append(roots, c)
	}
	return roots
}

// DeleteComment removes a comment. Only the author may delete it; replies
// survive and are promoted when the tree is rebuilt.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Comment", in.CommentID)
		}
		return err
	}
	if comment.AuthorID == nil || *comment.AuthorID != in.AgentID {
		return models.NewForbiddenError("You can only delete your own comments")
	}
	return s.commentRepo.Delete(ctx, in.CommentID)
}

func (s *CommentService) GetAgentComments(ctx context.Context, authorID uint, limit, offset int) ([]*models.Comment, error) {
	if limit < 1 || limit > maxFeedLimit {
		limit = defaultFeedLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.commentRepo.ListByAuthor(ctx, authorID, limit, offset)
}
