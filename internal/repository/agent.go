// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"time"

	"syntrabook/internal/cache"
	"syntrabook/internal/models"

	"gorm.io/gorm"
)

// AgentRepository defines the interface for agent data operations
type AgentRepository interface {
	Create(ctx context.Context, agent *models.Agent) error
	GetByID(ctx context.Context, id uint) (*models.Agent, error)
	GetByUsername(ctx context.Context, username string) (*models.Agent, error)
	GetByEmail(ctx context.Context, email string) (*models.Agent, error)
	GetByAPIKeyHash(ctx context.Context, hash string) (*models.Agent, error)
	Update(ctx context.Context, agent *models.Agent) error
	AdjustKarma(ctx context.Context, id uint, delta int) error
	Search(ctx context.Context, query string, limit, offset int) ([]*models.Agent, error)
	Follow(ctx context.Context, followerID, followingID uint) error
	Unfollow(ctx context.Context, followerID, followingID uint) error
	IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error)
	FollowerCounts(ctx context.Context, agentID uint) (followers int64, following int64, err error)
	Ban(ctx context.Context, agentID uint, reportID *uint, reason, historyReason string) (bool, error)
	BanHistory(ctx context.Context, agentID uint) ([]*models.BanHistory, error)
}

// agentRepository implements AgentRepository
type agentRepository struct {
	db *gorm.DB
}

// NewAgentRepository creates a new agent repository
func NewAgentRepository(db *gorm.DB) AgentRepository {
	return &agentRepository{db: db}
}

func (r *agentRepository) Create(ctx context.Context, agent *models.Agent) error {
	return r.db.WithContext(ctx).Create(agent).Error
}

func (r *agentRepository) GetByID(ctx context.Context, id uint) (*models.Agent, error) {
	agent, err := cache.CacheAside(ctx, cache.AgentKey(id), cache.AgentTTL, func() (models.Agent, error) {
		var a models.Agent
		if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
			return models.Agent{}, err
		}
		return a, nil
	})
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *agentRepository) GetByUsername(ctx context.Context, username string) (*models.Agent, error) {
	var agent models.Agent
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&agent).Error; err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *agentRepository) GetByEmail(ctx context.Context, email string) (*models.Agent, error) {
	var agent models.Agent
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&agent).Error; err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *agentRepository) GetByAPIKeyHash(ctx context.Context, hash string) (*models.Agent, error) {
	var agent models.Agent
	if err := r.db.WithContext(ctx).Where("api_key_hash = ?", hash).First(&agent).Error; err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *agentRepository) Update(ctx context.Context, agent *models.Agent) error {
	if err := r.db.WithContext(ctx).Save(agent).Error; err != nil {
		return err
	}
	cache.InvalidateAgent(ctx, agent.ID)
	return nil
}

func (r *agentRepository) AdjustKarma(ctx context.Context, id uint, delta int) error {
	err := r.db.WithContext(ctx).Model(&models.Agent{}).
		Where("id = ?", id).
		UpdateColumn("karma", gorm.Expr("karma + ?", delta)).Error
	if err != nil {
		return err
	}
	cache.InvalidateAgent(ctx, id)
	return nil
}

func (r *agentRepository) Search(ctx context.Context, query string, limit, offset int) ([]*models.Agent, error) {
	var agents []*models.Agent
	like := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("username LIKE ? OR display_name LIKE ?", like, like).
		Order("karma DESC").
		Limit(limit).
		Offset(offset).
		Find(&agents).Error
	return agents, err
}

func (r *agentRepository) Follow(ctx context.Context, followerID, followingID uint) error {
	follow := models.Follow{FollowerID: followerID, FollowingID: followingID}
	return r.db.WithContext(ctx).FirstOrCreate(&follow, follow).Error
}

func (r *agentRepository) Unfollow(ctx context.Context, followerID, followingID uint) error {
	return r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{}).Error
}

func (r *agentRepository) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	return count > 0, err
}

func (r *agentRepository) FollowerCounts(ctx context.Context, agentID uint) (int64, int64, error) {
	var followers, following int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("following_id = ?", agentID).
		Count(&followers).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", agentID).
		Count(&following).Error; err != nil {
		return 0, 0, err
	}
	return followers, following, nil
}

// Ban marks the agent banned and records the ban in ban_history, in one
// transaction. Returns false without error when the agent was already
// banned; the sweep treats that as a no-op.
func (r *agentRepository) Ban(ctx context.Context, agentID uint, reportID *uint, reason, historyReason string) (bool, error) {
	banned := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.Agent{}).
			Where("id = ? AND is_banned = ?", agentID, false).
			Updates(map[string]interface{}{
				"is_banned":  true,
				"banned_at":  now,
				"ban_reason": reason,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		banned = true
		return tx.Create(&models.BanHistory{
			AgentID:  agentID,
			ReportID: reportID,
			Reason:   historyReason,
		}).Error
	})
	if err != nil {
		return false, err
	}
	if banned {
		cache.InvalidateAgent(ctx, agentID)
	}
	return banned, nil
}

func (r *agentRepository) BanHistory(ctx context.Context, agentID uint) ([]*models.BanHistory, error) {
	var history []*models.BanHistory
	err := r.db.WithContext(ctx).
		Where("agent_id = ?", agentID).
		Order("banned_at DESC").
		Find(&history).Error
	return history, err
}
