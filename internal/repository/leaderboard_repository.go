package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/educhain-labs/educhain-api/internal/models"
)

// LeaderboardRepository runs the ranking and platform statistic queries.
type LeaderboardRepository struct {
	db *sqlx.DB
}

// NewLeaderboardRepository constructs the repository.
func NewLeaderboardRepository(db *sqlx.DB) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

// TopRated returns students ranked by rating. Ties break on review count so
// a profile with more reviews outranks one with fewer at the same average.
func (r *LeaderboardRepository) TopRated(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	const query = `SELECT id AS profile_id, display_name, rating, total_reviews, upvotes, downvotes, is_mentor
        FROM profiles WHERE role = 'STUDENT' AND total_reviews > 0
        ORDER BY rating DESC, total_reviews DESC LIMIT $1`
	var entries []models.LeaderboardEntry
	if err := r.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("top rated: %w", err)
	}
	return entries, nil
}

// TopUpvoted returns profiles ranked by net vote score.
func (r *LeaderboardRepository) TopUpvoted(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	const query = `SELECT id AS profile_id, display_name, rating, total_reviews, upvotes, downvotes, is_mentor
        FROM profiles WHERE upvotes + downvotes > 0
        ORDER BY upvotes - downvotes DESC, upvotes DESC LIMIT $1`
	var entries []models.LeaderboardEntry
	if err := r.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("top upvoted: %w", err)
	}
	return entries, nil
}

// PlatformStats aggregates platform-wide counters in a single query.
func (r *LeaderboardRepository) PlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM profiles WHERE role = 'STUDENT') AS students,
        (SELECT COUNT(*) FROM profiles WHERE role = 'TEACHER') AS teachers,
        (SELECT COUNT(*) FROM profiles WHERE is_mentor = TRUE) AS mentors,
        (SELECT COUNT(*) FROM homeworks) AS homeworks,
        (SELECT COUNT(*) FROM homeworks WHERE current_students < max_students) AS open_homeworks,
        (SELECT COUNT(*) FROM reviews) AS reviews_given,
        (SELECT COUNT(*) FROM questions) AS questions_asked,
        COALESCE((SELECT AVG(CASE WHEN is_answered THEN 1.0 ELSE 0.0 END) FROM questions), 0) AS answered_ratio`
	var stats models.PlatformStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("platform stats: %w", err)
	}
	return &stats, nil
}
