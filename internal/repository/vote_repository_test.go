package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/educhain-labs/educhain-api/internal/models"
)

func newVoteRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestVoteRepositoryCreateWithDelta(t *testing.T) {
	db, mock, cleanup := newVoteRepoMock(t)
	defer cleanup()
	repo := NewVoteRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO votes")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET upvotes = GREATEST(upvotes + 1, 0)")).
		WithArgs("target-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	vote := &models.Vote{VoterID: "voter-1", TargetID: "target-1", Type: models.VoteTypeUp}
	require.NoError(t, repo.CreateWithDelta(context.Background(), vote))
	require.NotEmpty(t, vote.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVoteRepositoryDeleteWithDelta(t *testing.T) {
	db, mock, cleanup := newVoteRepoMock(t)
	defer cleanup()
	repo := NewVoteRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM votes WHERE id = $1")).
		WithArgs("vote-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET downvotes = GREATEST(downvotes - 1, 0)")).
		WithArgs("target-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	vote := &models.Vote{ID: "vote-1", VoterID: "voter-1", TargetID: "target-1", Type: models.VoteTypeDown}
	require.NoError(t, repo.DeleteWithDelta(context.Background(), vote))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVoteRepositorySwitchWithDelta(t *testing.T) {
	db, mock, cleanup := newVoteRepoMock(t)
	defer cleanup()
	repo := NewVoteRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE votes SET vote_type = $2")).
		WithArgs("vote-1", models.VoteTypeDown, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET upvotes = GREATEST(upvotes - 1, 0)")).
		WithArgs("target-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET downvotes = GREATEST(downvotes + 1, 0)")).
		WithArgs("target-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	vote := &models.Vote{ID: "vote-1", VoterID: "voter-1", TargetID: "target-1", Type: models.VoteTypeUp, CreatedAt: time.Now()}
	require.NoError(t, repo.SwitchWithDelta(context.Background(), vote, models.VoteTypeDown))
	require.NoError(t, mock.ExpectationsWereMet())
}
