package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/educhain-labs/educhain-api/internal/models"
)

// ErrInsufficientBalance reports a spend larger than the stored balance.
var ErrInsufficientBalance = errors.New("insufficient balance")

// LedgerRepository handles the append-only token transaction ledger.
// Every append also moves the profile's stored balance inside the same
// transaction, keeping balance == sum(ledger) at all times.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository constructs the repository.
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Append inserts a credit entry and increases the profile's balance.
func (r *LedgerRepository) Append(ctx context.Context, entry *models.TokenTransaction) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := AppendTx(ctx, tx, entry); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger entry: %w", err)
	}
	return nil
}

// AppendTx writes a ledger entry and adjusts the balance using an existing
// transaction. The caller owns commit and rollback.
func AppendTx(ctx context.Context, tx *sqlx.Tx, entry *models.TokenTransaction) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const insert = `INSERT INTO token_transactions (id, profile_id, amount, tx_type, description, created_at)
        VALUES (:id, :profile_id, :amount, :tx_type, :description, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insert, entry); err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	const update = `UPDATE profiles SET token_balance = token_balance + $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, update, entry.ProfileID, entry.Amount, time.Now().UTC()); err != nil {
		return fmt.Errorf("apply ledger entry to balance: %w", err)
	}
	return nil
}

// SpendTx writes a negative ledger entry guarded by the current balance.
// The conditional update makes concurrent overspends impossible without a
// separate read. Returns ErrInsufficientBalance when the guard fails.
func SpendTx(ctx context.Context, tx *sqlx.Tx, profileID string, cost decimal.Decimal, txType models.TransactionType, description string) error {
	const update = `UPDATE profiles SET token_balance = token_balance - $2, updated_at = $3
        WHERE id = $1 AND token_balance >= $2`
	res, err := tx.ExecContext(ctx, update, profileID, cost, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deduct balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deduct balance rows: %w", err)
	}
	if n == 0 {
		return ErrInsufficientBalance
	}

	entry := &models.TokenTransaction{
		ID:          uuid.NewString(),
		ProfileID:   profileID,
		Amount:      cost.Neg(),
		Type:        txType,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	const insert = `INSERT INTO token_transactions (id, profile_id, amount, tx_type, description, created_at)
        VALUES (:id, :profile_id, :amount, :tx_type, :description, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insert, entry); err != nil {
		return fmt.Errorf("append spend entry: %w", err)
	}
	return nil
}

// ListByProfile returns the profile's ledger entries, newest first.
func (r *LedgerRepository) ListByProfile(ctx context.Context, profileID string, page, pageSize int) ([]models.TokenTransaction, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT id, profile_id, amount, tx_type, description, created_at
        FROM token_transactions WHERE profile_id = $1 ORDER BY created_at DESC LIMIT %d OFFSET %d`, pageSize, offset)
	var entries []models.TokenTransaction
	if err := r.db.SelectContext(ctx, &entries, query, profileID); err != nil {
		return nil, 0, fmt.Errorf("list ledger entries: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM token_transactions WHERE profile_id = $1", profileID); err != nil {
		return nil, 0, fmt.Errorf("count ledger entries: %w", err)
	}
	return entries, total, nil
}

// ListAllByProfile returns the complete ledger for statement export.
func (r *LedgerRepository) ListAllByProfile(ctx context.Context, profileID string) ([]models.TokenTransaction, error) {
	const query = `SELECT id, profile_id, amount, tx_type, description, created_at
        FROM token_transactions WHERE profile_id = $1 ORDER BY created_at ASC`
	var entries []models.TokenTransaction
	if err := r.db.SelectContext(ctx, &entries, query, profileID); err != nil {
		return nil, fmt.Errorf("list full ledger: %w", err)
	}
	return entries, nil
}

// SumByProfile recomputes the ledger sum from source of truth.
func (r *LedgerRepository) SumByProfile(ctx context.Context, profileID string) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	if err := r.db.GetContext(ctx, &sum, "SELECT SUM(amount) FROM token_transactions WHERE profile_id = $1", profileID); err != nil {
		return decimal.Zero, fmt.Errorf("sum ledger entries: %w", err)
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}
