package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/educhain-labs/educhain-api/internal/models"
)

// BadgeRepository persists awarded badges.
type BadgeRepository struct {
	db *sqlx.DB
}

// NewBadgeRepository constructs the repository.
func NewBadgeRepository(db *sqlx.DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// Create inserts a badge award in PENDING mint state.
func (r *BadgeRepository) Create(ctx context.Context, badge *models.Badge) error {
	if badge.ID == "" {
		badge.ID = uuid.NewString()
	}
	badge.AwardedAt = time.Now().UTC()
	badge.MintStatus = models.BadgeMintPending
	const query = `INSERT INTO badges (id, profile_id, kind, title, image_url, token_uri, mint_status, awarded_by, awarded_at)
        VALUES (:id, :profile_id, :kind, :title, :image_url, :token_uri, :mint_status, :awarded_by, :awarded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, badge); err != nil {
		return fmt.Errorf("create badge: %w", err)
	}
	return nil
}

// FindByID returns a badge by its ID.
func (r *BadgeRepository) FindByID(ctx context.Context, id string) (*models.Badge, error) {
	const query = `SELECT id, profile_id, kind, title, image_url, token_uri, mint_status, awarded_by, awarded_at
        FROM badges WHERE id = $1`
	var badge models.Badge
	if err := r.db.GetContext(ctx, &badge, query, id); err != nil {
		return nil, err
	}
	return &badge, nil
}

// ListByProfile returns the badges awarded to a profile, newest first.
func (r *BadgeRepository) ListByProfile(ctx context.Context, profileID string) ([]models.Badge, error) {
	const query = `SELECT id, profile_id, kind, title, image_url, token_uri, mint_status, awarded_by, awarded_at
        FROM badges WHERE profile_id = $1 ORDER BY awarded_at DESC`
	var badges []models.Badge
	if err := r.db.SelectContext(ctx, &badges, query, profileID); err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	return badges, nil
}

// UpdateMintStatus records the outcome of the async mint attempt.
func (r *BadgeRepository) UpdateMintStatus(ctx context.Context, id string, status models.BadgeMintStatus, tokenURI *string) error {
	const query = `UPDATE badges SET mint_status = $2, token_uri = COALESCE($3, token_uri) WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, tokenURI)
	if err != nil {
		return fmt.Errorf("update badge mint status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update badge mint status rows: %w", err)
	}
	if n == 0 {
		return ErrNoTransition
	}
	return nil
}
