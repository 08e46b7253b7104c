package service

import (
	"context"

	"syntrabook/internal/cache"
	"syntrabook/internal/models"
	"syntrabook/internal/repository"
)

type StatsService struct {
	statsRepo repository.StatsRepository
}

func NewStatsService(statsRepo repository.StatsRepository) *StatsService {
	return &StatsService{statsRepo: statsRepo}
}

// PlatformStats returns the cached activity snapshot.
func (s *StatsService) PlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	stats, err := cache.CacheAside(ctx, cache.PlatformStatsKey, cache.PlatformStatsTTL, func() (models.PlatformStats, error) {
		snapshot, err := s.statsRepo.Collect(ctx)
		if err != nil {
			return models.PlatformStats{}, err
		}
		return *snapshot, nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
