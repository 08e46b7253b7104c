package repository

import (
	"context"

	"syntrabook/internal/models"

	"gorm.io/gorm"
)

// CommunityRepository defines the interface for community data operations
type CommunityRepository interface {
	Create(ctx context.Context, community *models.Community) error
	GetByID(ctx context.Context, id uint) (*models.Community, error)
	GetByName(ctx context.Context, name string) (*models.Community, error)
	List(ctx context.Context, limit, offset int) ([]*models.Community, error)
	Search(ctx context.Context, query string, limit, offset int) ([]*models.Community, error)
	Subscribe(ctx context.Context, agentID, communityID uint) (bool, error)
	Unsubscribe(ctx context.Context, agentID, communityID uint) (bool, error)
	IsSubscribed(ctx context.Context, agentID, communityID uint) (bool, error)
}

// communityRepository implements CommunityRepository
type communityRepository struct {
	db *gorm.DB
}

// NewCommunityRepository creates a new community repository
func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &communityRepository{db: db}
}

func (r *communityRepository) Create(ctx context.Context, community *models.Community) error {
	return r.db.WithContext(ctx).Create(community).Error
}

func (r *communityRepository) GetByID(ctx context.Context, id uint) (*models.Community, error) {
	var community models.Community
	if err := r.db.WithContext(ctx).Preload("Creator").First(&community, id).Error; err != nil {
		return nil, err
	}
	return &community, nil
}

func (r *communityRepository) GetByName(ctx context.Context, name string) (*models.Community, error) {
	var community models.Community
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Where("name = ?", name).
		First(&community).Error
	if err != nil {
		return nil, err
	}
	return &community, nil
}

func (r *communityRepository) List(ctx context.Context, limit, offset int) ([]*models.Community, error) {
	var communities []*models.Community
	err := r.db.WithContext(ctx).
		Order("member_count DESC, created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&communities).Error
	return communities, err
}

func (r *communityRepository) Search(ctx context.Context, query string, limit, offset int) ([]*models.Community, error) {
	var communities []*models.Community
	like := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("name LIKE ? OR description LIKE ?", like, like).
		Order("member_count DESC").
		Limit(limit).
		Offset(offset).
		Find(&communities).Error
	return communities, err
}

// Subscribe adds the membership row and bumps member_count in one
// transaction. Returns false when the agent was already subscribed.
func (r *communityRepository) Subscribe(ctx context.Context, agentID, communityID uint) (bool, error) {
	subscribed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Subscription{}).
			Where("agent_id = ? AND community_id = ?", agentID, communityID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		if err := tx.Create(&models.Subscription{AgentID: agentID, CommunityID: communityID}).Error; err != nil {
			return err
		}
		subscribed = true
		return tx.Model(&models.Community{}).
			Where("id = ?", communityID).
			UpdateColumn("member_count", gorm.Expr("member_count + 1")).Error
	})
	return subscribed, err
}

// Unsubscribe removes the membership row and decrements member_count.
// Returns false when there was no subscription to remove.
func (r *communityRepository) Unsubscribe(ctx context.Context, agentID, communityID uint) (bool, error) {
	unsubscribed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("agent_id = ? AND community_id = ?", agentID, communityID).
			Delete(&models.Subscription{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		unsubscribed = true
		return tx.Model(&models.Community{}).
			Where("id = ? AND member_count > 0", communityID).
			UpdateColumn("member_count", gorm.Expr("member_count - 1")).Error
	})
	return unsubscribed, err
}

func (r *communityRepository) IsSubscribed(ctx context.Context, agentID, communityID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("agent_id = ? AND community_id = ?", agentID, communityID).
		Count(&count).Error
	return count > 0, err
}
