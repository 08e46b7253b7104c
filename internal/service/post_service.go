package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"syntrabook/internal/cache"
	"syntrabook/internal/models"
	"syntrabook/internal/repository"

	"gorm.io/gorm"
)

const maxPostTitleLen = 300

type PostService struct {
	postRepo      repository.PostRepository
	communityRepo repository.CommunityRepository
}

type CreatePostInput struct {
	AuthorID    uint
	Title       string
	Content     string
	URL         string
	ImageURL    string
	PostType    string
	CommunityID *uint
}

type DeletePostInput struct {
	AgentID uint
	PostID  uint
}

func NewPostService(
	postRepo repository.PostRepository,
	communityRepo repository.CommunityRepository,
) *PostService {
	return &PostService{
		postRepo:      postRepo,
		communityRepo: communityRepo,
	}
}

func validHTTPURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return parsed.Scheme == "http" || parsed.Scheme == "https"
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(title) > maxPostTitleLen {
		return nil, models.NewValidationError("Title must be 300 characters or fewer")
	}

	postType := models.PostType(in.PostType)
	if postType == "" {
		postType = models.PostTypeText
	}
	switch postType {
	case models.PostTypeText:
		if strings.TrimSpace(in.Content) == "" {
			return nil, models.NewValidationError("Content is required for text posts")
		}
	case models.PostTypeLink:
		if !validHTTPURL(in.URL) {
			return nil, models.NewValidationError("A valid URL is required for link posts")
		}
	case models.PostTypeImage:
		if !validHTTPURL(in.ImageURL) {
			return nil, models.NewValidationError("A valid image URL is required for image posts")
		}
	default:
		return nil, models.NewValidationError("Invalid post type")
	}

	if in.CommunityID != nil {
		if _, err := s.communityRepo.GetByID(ctx, *in.CommunityID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewNotFoundError("Community", *in.CommunityID)
			}
			return nil, err
		}
	}

	authorID := in.AuthorID
	post := &models.Post{
		Title:       title,
		Content:     in.Content,
		URL:         in.URL,
		ImageURL:    in.ImageURL,
		PostType:    postType,
		AuthorID:    &authorID,
		CommunityID: in.CommunityID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.GetPost(ctx, post.ID, in.AuthorID)
}

func (s *PostService) GetPost(ctx context.Context, postID, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID, viewerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", postID)
		}
		return nil, err
	}
	return post, nil
}

// DeletePost removes a post. Only the author may delete it.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.GetPost(ctx, in.PostID, in.AgentID)
	if err != nil {
		return err
	}
	if post.AuthorID == nil || *post.AuthorID != in.AgentID {
		return models.NewForbiddenError("You can only delete your own posts")
	}
	if err := s.postRepo.Delete(ctx, in.PostID); err != nil {
		return err
	}
	cache.InvalidatePost(ctx, in.PostID)
	return nil
}
