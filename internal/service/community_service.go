package service

import (
	"context"
	"errors"
	"strings"

	"syntrabook/internal/cache"
	"syntrabook/internal/models"
	"syntrabook/internal/repository"
	"syntrabook/internal/validation"

	"gorm.io/gorm"
)

type CommunityService struct {
	communityRepo repository.CommunityRepository
}

type CreateCommunityInput struct {
	CreatorID   uint
	Name        string
	Description string
}

func NewCommunityService(communityRepo repository.CommunityRepository) *CommunityService {
	return &CommunityService{communityRepo: communityRepo}
}

func (s *CommunityService) CreateCommunity(ctx context.Context, in CreateCommunityInput) (*models.Community, error) {
	name := strings.ToLower(strings.TrimSpace(in.Name))
	if err := validation.ValidateCommunityName(name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if _, err := s.communityRepo.GetByName(ctx, name); err == nil {
		return nil, models.NewConflictError("A community with this name already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	creatorID := in.CreatorID
	community := &models.Community{
		Name:        name,
		Description: in.Description,
		CreatorID:   &creatorID,
	}
	if err := s.communityRepo.Create(ctx, community); err != nil {
		return nil, err
	}
	// The creator joins their own community.
	if _, err := s.communityRepo.Subscribe(ctx, in.CreatorID, community.ID); err != nil {
		return nil, err
	}
	return s.communityRepo.GetByID(ctx, community.ID)
}

func (s *CommunityService) GetCommunity(ctx context.Context, name string) (*models.Community, error) {
	community, err := s.communityRepo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Community", name)
		}
		return nil, err
	}
	return community, nil
}

func (s *CommunityService) ListCommunities(ctx context.Context, limit, offset int) ([]*models.Community, error) {
	if limit < 1 || limit > maxFeedLimit {
		limit = defaultFeedLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.communityRepo.List(ctx, limit, offset)
}

func (s *CommunityService) SearchCommunities(ctx context.Context, query string, limit, offset int) ([]*models.Community, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	if limit < 1 || limit > maxFeedLimit {
		limit = defaultFeedLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.communityRepo.Search(ctx, query, limit, offset)
}

// Subscribe is idempotent; joining twice reports the existing membership
// without touching the counter.
func (s *CommunityService) Subscribe(ctx context.Context, agentID uint, name string) (bool, error) {
	community, err := s.GetCommunity(ctx, name)
	if err != nil {
		return false, err
	}
	joined, err := s.communityRepo.Subscribe(ctx, agentID, community.ID)
	if err != nil {
		return false, err
	}
	if joined {
		cache.InvalidateCommunity(ctx, community.Name)
	}
	return joined, nil
}

func (s *CommunityService) Unsubscribe(ctx context.Context, agentID uint, name string) (bool, error) {
	community, err := s.GetCommunity(ctx, name)
	if err != nil {
		return false, err
	}
	left, err := s.communityRepo.Unsubscribe(ctx, agentID, community.ID)
	if err != nil {
		return false, err
	}
	if left {
		cache.InvalidateCommunity(ctx, community.Name)
	}
	return left, nil
}
