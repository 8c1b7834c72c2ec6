package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/educhain-labs/educhain-api/internal/models"
)

// SessionRepository persists wallet refresh sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a session row for an issued refresh token.
func (r *SessionRepository) Create(ctx context.Context, session *models.WalletSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	session.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO wallet_sessions (id, profile_id, token, expires_at, created_at, revoked, ip_address, user_agent)
        VALUES (:id, :profile_id, :token, :expires_at, :created_at, FALSE, :ip_address, :user_agent)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create wallet session: %w", err)
	}
	return nil
}

// Find returns the live session for a refresh token. Revoked or expired
// sessions are not returned.
func (r *SessionRepository) Find(ctx context.Context, token string) (*models.WalletSession, error) {
	const query = `SELECT id, profile_id, token, expires_at, created_at, revoked, revoked_at, ip_address, user_agent
        FROM wallet_sessions WHERE token = $1 AND revoked = FALSE AND expires_at > $2`
	var session models.WalletSession
	if err := r.db.GetContext(ctx, &session, query, token, time.Now().UTC()); err != nil {
		return nil, err
	}
	return &session, nil
}

// Revoke marks a single refresh token as revoked.
func (r *SessionRepository) Revoke(ctx context.Context, token string) error {
	const query = `UPDATE wallet_sessions SET revoked = TRUE, revoked_at = $2 WHERE token = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, token, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke wallet session: %w", err)
	}
	return nil
}

// RevokeProfileSessions revokes every live session of a profile.
func (r *SessionRepository) RevokeProfileSessions(ctx context.Context, profileID string) error {
	const query = `UPDATE wallet_sessions SET revoked = TRUE, revoked_at = $2 WHERE profile_id = $1 AND revoked = FALSE`
	if _, err := r.db.ExecContext(ctx, query, profileID, time.Now().UTC()); err != nil {
		return fmt.Errorf("revoke profile sessions: %w", err)
	}
	return nil
}
