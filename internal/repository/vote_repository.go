package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/educhain-labs/educhain-api/internal/models"
)

// VoteRepository handles persistence of votes. Every mutation adjusts the
// target profile's counters by the exact delta of the transition, inside
// one transaction, so the counters always reflect the net of live votes.
type VoteRepository struct {
	db *sqlx.DB
}

// NewVoteRepository constructs the repository.
func NewVoteRepository(db *sqlx.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

// FindByVoterAndTarget returns the live vote for the pair, if any.
func (r *VoteRepository) FindByVoterAndTarget(ctx context.Context, voterID, targetID string) (*models.Vote, error) {
	const query = `SELECT id, voter_id, target_id, vote_type, created_at, updated_at
        FROM votes WHERE voter_id = $1 AND target_id = $2`
	var vote models.Vote
	if err := r.db.GetContext(ctx, &vote, query, voterID, targetID); err != nil {
		return nil, err
	}
	return &vote, nil
}

// CreateWithDelta inserts a vote and increments the matching counter.
func (r *VoteRepository) CreateWithDelta(ctx context.Context, vote *models.Vote) error {
	if vote.ID == "" {
		vote.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	vote.CreatedAt = now
	vote.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const insert = `INSERT INTO votes (id, voter_id, target_id, vote_type, created_at, updated_at)
        VALUES (:id, :voter_id, :target_id, :vote_type, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, vote); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create vote: %w", err)
	}
	if _, err := tx.ExecContext(ctx, counterQuery(vote.Type, +1), vote.TargetID, now); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("increment vote counter: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit vote: %w", err)
	}
	return nil
}

// DeleteWithDelta retracts a vote and decrements the matching counter.
func (r *VoteRepository) DeleteWithDelta(ctx context.Context, vote *models.Vote) error {
	now := time.Now().UTC()
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM votes WHERE id = $1", vote.ID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("delete vote: %w", err)
	}
	if _, err := tx.ExecContext(ctx, counterQuery(vote.Type, -1), vote.TargetID, now); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("decrement vote counter: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit vote retraction: %w", err)
	}
	return nil
}

// SwitchWithDelta flips a vote to the opposite type, moving one count from
// the old counter to the new one as a single logical transition.
func (r *VoteRepository) SwitchWithDelta(ctx context.Context, vote *models.Vote, newType models.VoteType) error {
	now := time.Now().UTC()
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const update = `UPDATE votes SET vote_type = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, update, vote.ID, newType, now); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("switch vote: %w", err)
	}
	if _, err := tx.ExecContext(ctx, counterQuery(vote.Type, -1), vote.TargetID, now); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("decrement old counter: %w", err)
	}
	if _, err := tx.ExecContext(ctx, counterQuery(newType, +1), vote.TargetID, now); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("increment new counter: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit vote switch: %w", err)
	}
	return nil
}

func counterQuery(t models.VoteType, delta int) string {
	column := "upvotes"
	if t == models.VoteTypeDown {
		column = "downvotes"
	}
	op := "+"
	if delta < 0 {
		op = "-"
	}
	// GREATEST keeps the non-negative invariant even if a retraction races
	// with an account reset.
	return fmt.Sprintf("UPDATE profiles SET %s = GREATEST(%s %s 1, 0), updated_at = $2 WHERE id = $1", column, column, op)
}
