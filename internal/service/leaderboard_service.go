package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/educhain-labs/educhain-api/internal/models"
	appErrors "github.com/educhain-labs/educhain-api/pkg/errors"
)

type leaderboardRepository interface {
	TopRated(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	TopUpvoted(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	PlatformStats(ctx context.Context) (*models.PlatformStats, error)
}

type leaderboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// LeaderboardService serves the ranking boards with a cache-aside layer.
// Rankings tolerate slight staleness, so cache reads win over freshness.
type LeaderboardService struct {
	repo   leaderboardRepository
	cache  leaderboardCache
	logger *zap.Logger
	ttl    time.Duration
}

// NewLeaderboardService constructs the service.
func NewLeaderboardService(repo leaderboardRepository, cache leaderboardCache, logger *zap.Logger, ttl time.Duration) *LeaderboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &LeaderboardService{repo: repo, cache: cache, logger: logger, ttl: ttl}
}

// TopRated returns students ranked by rating.
func (s *LeaderboardService) TopRated(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	key := fmt.Sprintf("leaderboard:rated:%d", limit)
	var cached []models.LeaderboardEntry
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	entries, err := s.repo.TopRated(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leaderboard")
	}
	if err := s.cache.Set(ctx, key, entries, s.ttl); err != nil {
		s.logger.Warn("failed to cache leaderboard", zap.Error(err))
	}
	return entries, nil
}

// TopUpvoted returns profiles ranked by net votes.
func (s *LeaderboardService) TopUpvoted(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	key := fmt.Sprintf("leaderboard:upvoted:%d", limit)
	var cached []models.LeaderboardEntry
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	entries, err := s.repo.TopUpvoted(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leaderboard")
	}
	if err := s.cache.Set(ctx, key, entries, s.ttl); err != nil {
		s.logger.Warn("failed to cache leaderboard", zap.Error(err))
	}
	return entries, nil
}

// Stats returns the platform dashboard counters.
func (s *LeaderboardService) Stats(ctx context.Context) (*models.PlatformStats, error) {
	const key = "leaderboard:stats"
	var cached models.PlatformStats
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	stats, err := s.repo.PlatformStats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load platform stats")
	}
	if err := s.cache.Set(ctx, key, stats, s.ttl); err != nil {
		s.logger.Warn("failed to cache platform stats", zap.Error(err))
	}
	return stats, nil
}
