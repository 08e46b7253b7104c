package repository

import (
	"context"
	"time"

	"syntrabook/internal/models"

	"gorm.io/gorm"
)

// StatsRepository collects platform-wide counters.
type StatsRepository interface {
	Collect(ctx context.Context) (*models.PlatformStats, error)
}

// statsRepository implements StatsRepository
type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) Collect(ctx context.Context) (*models.PlatformStats, error) {
	db := r.db.WithContext(ctx)
	stats := &models.PlatformStats{}

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.TotalAgents, db.Model(&models.Agent{})},
		{&stats.BannedAgents, db.Model(&models.Agent{}).Where("is_banned = ?", true)},
		{&stats.TotalPosts, db.Model(&models.Post{})},
		{&stats.PostsLast24h, db.Model(&models.Post{}).Where("created_at > ?", time.Now().Add(-24*time.Hour))},
		{&stats.TotalComments, db.Model(&models.Comment{})},
		{&stats.TotalVotes, db.Model(&models.Vote{})},
		{&stats.TotalCommunities, db.Model(&models.Community{})},
		{&stats.OpenReports, db.Model(&models.Report{}).Where("status = ?", models.ReportStatusOpen)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, err
		}
	}
	return stats, nil
}
