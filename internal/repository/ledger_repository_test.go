package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/educhain-labs/educhain-api/internal/models"
)

func newLedgerRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestLedgerRepositoryAppend(t *testing.T) {
	db, mock, cleanup := newLedgerRepoMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO token_transactions")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET token_balance = token_balance + $2")).
		WithArgs("prof-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	entry := &models.TokenTransaction{
		ProfileID:   "prof-1",
		Amount:      decimal.NewFromInt(2),
		Type:        models.TransactionTypeInitial,
		Description: "welcome bonus",
	}
	require.NoError(t, repo.Append(context.Background(), entry))
	require.NotEmpty(t, entry.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSpendTxDeductsAndRecords(t *testing.T) {
	db, mock, cleanup := newLedgerRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET token_balance = token_balance - $2")).
		WithArgs("prof-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO token_transactions")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	err = SpendTx(context.Background(), tx, "prof-1", decimal.NewFromInt(1), models.TransactionTypeSpent, "task creation")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSpendTxInsufficientBalance(t *testing.T) {
	db, mock, cleanup := newLedgerRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET token_balance = token_balance - $2")).
		WithArgs("prof-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	err = SpendTx(context.Background(), tx, "prof-1", decimal.NewFromInt(5), models.TransactionTypeSpent, "task creation")
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositorySumByProfileEmpty(t *testing.T) {
	db, mock, cleanup := newLedgerRepoMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT SUM(amount) FROM token_transactions WHERE profile_id = $1")).
		WithArgs("prof-1").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(nil))

	sum, err := repo.SumByProfile(context.Background(), "prof-1")
	require.NoError(t, err)
	require.True(t, sum.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepositoryListByProfile(t *testing.T) {
	db, mock, cleanup := newLedgerRepoMock(t)
	defer cleanup()
	repo := NewLedgerRepository(db)

	rows := sqlmock.NewRows([]string{"id", "profile_id", "amount", "tx_type", "description", "created_at"}).
		AddRow("tx-1", "prof-1", "2", models.TransactionTypeInitial, "welcome bonus", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, profile_id, amount, tx_type, description, created_at")).
		WithArgs("prof-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM token_transactions WHERE profile_id = $1")).
		WithArgs("prof-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	entries, total, err := repo.ListByProfile(context.Background(), "prof-1", 1, 20)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 1, total)
	require.True(t, entries[0].Amount.Equal(decimal.NewFromInt(2)))
	require.NoError(t, mock.ExpectationsWereMet())
}
