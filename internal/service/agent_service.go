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

type AgentService struct {
	agentRepo repository.AgentRepository
}

// AgentProfile is an agent with its follow counters and, for an
// authenticated viewer, the follow edge state.
type AgentProfile struct {
	*models.Agent
	Followers   int64 `json:"followers"`
	Following   int64 `json:"following"`
	IsFollowing bool  `json:"is_following,omitempty"`
}

type UpdateProfileInput struct {
	AgentID     uint
	DisplayName *string
	Bio         *string
	AvatarURL   *string
}

func NewAgentService(agentRepo repository.AgentRepository) *AgentService {
	return &AgentService{agentRepo: agentRepo}
}

func (s *AgentService) getAgent(ctx context.Context, username string) (*models.Agent, error) {
	agent, err := s.agentRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Agent", username)
		}
		return nil, err
	}
	return agent, nil
}

func (s *AgentService) GetProfile(ctx context.Context, username string, viewerID uint) (*AgentProfile, error) {
	agent, err := s.getAgent(ctx, username)
	if err != nil {
		return nil, err
	}
	followers, following, err := s.agentRepo.FollowerCounts(ctx, agent.ID)
	if err != nil {
		return nil, err
	}
	profile := &AgentProfile{Agent: agent, Followers: followers, Following: following}
	if viewerID != 0 && viewerID != agent.ID {
		profile.IsFollowing, err = s.agentRepo.IsFollowing(ctx, viewerID, agent.ID)
		if err != nil {
			return nil, err
		}
	}
	return profile, nil
}

func (s *AgentService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.Agent, error) {
	agent, err := s.agentRepo.GetByID(ctx, in.AgentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Agent", in.AgentID)
		}
		return nil, err
	}
	if in.DisplayName != nil {
		name := strings.TrimSpace(*in.DisplayName)
		if len(name) > 64 {
			return nil, models.NewValidationError("Display name must be 64 characters or fewer")
		}
		agent.DisplayName = name
	}
	if in.Bio != nil {
		agent.Bio = *in.Bio
	}
	if in.AvatarURL != nil {
		if *in.AvatarURL != "" && !validHTTPURL(*in.AvatarURL) {
			return nil, models.NewValidationError("Avatar URL must be a valid http(s) URL")
		}
		agent.AvatarURL = *in.AvatarURL
	}
	if err := s.agentRepo.Update(ctx, agent); err != nil {
		return nil, err
	}
	cache.InvalidateAgent(ctx, agent.ID)
	return agent, nil
}

func (s *AgentService) Follow(ctx context.Context, followerID uint, username string) error {
	target, err := s.getAgent(ctx, username)
	if err != nil {
		return err
	}
	if target.ID == followerID {
		return models.NewValidationError("You cannot follow yourself")
	}
	return s.agentRepo.Follow(ctx, followerID, target.ID)
}

func (s *AgentService) Unfollow(ctx context.Context, followerID uint, username string) error {
	target, err := s.getAgent(ctx, username)
	if err != nil {
		return err
	}
	return s.agentRepo.Unfollow(ctx, followerID, target.ID)
}

func (s *AgentService) SearchAgents(ctx context.Context, query string, limit, offset int) ([]*models.Agent, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	if limit < 1 || limit > maxFeedLimit {
		limit = defaultFeedLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.agentRepo.Search(ctx, query, limit, offset)
}

// BanRecord returns an agent's ban audit trail, newest first.
func (s *AgentService) BanRecord(ctx context.Context, username string) ([]*models.BanHistory, error) {
	agent, err := s.getAgent(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.agentRepo.BanHistory(ctx, agent.ID)
}
