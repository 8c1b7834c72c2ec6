package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/educhain-labs/educhain-api/internal/models"
)

func newProfileRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestProfileRepositorySetMentorAlreadyMentor(t *testing.T) {
	db, mock, cleanup := newProfileRepoMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET is_mentor = TRUE")).
		WithArgs("stu-1", sqlmock.AnyArg(), models.RoleStudent).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetMentor(context.Background(), "stu-1")
	require.ErrorIs(t, err, ErrNoTransition)
	require.NoError(t, mock.ExpectationsWereMet())
}

// Deleting a profile must not strand derived state on surviving rows:
// vote tallies, student ratings, homework capacity and answered flags all
// get recomputed inside the same transaction before the rows disappear.
func TestProfileRepositoryDeleteCascadeCompensatesCounters(t *testing.T) {
	db, mock, cleanup := newProfileRepoMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("upvotes = GREATEST(p.upvotes - v.up_count, 0)")).
		WithArgs("prof-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("rating = COALESCE((SELECT AVG(r.stars) FROM reviews r WHERE r.student_id = p.id AND r.reviewer_id <> $1), 0)")).
		WithArgs("prof-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("current_students = GREATEST(h.current_students - e.cnt, 0)")).
		WithArgs("prof-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE questions q SET is_answered = FALSE")).
		WithArgs("prof-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	deletes := []string{
		"DELETE FROM answers",
		"DELETE FROM questions",
		"DELETE FROM votes",
		"DELETE FROM reviews",
		"DELETE FROM enrollments",
		"DELETE FROM badges",
		"DELETE FROM wallet_sessions",
		"DELETE FROM token_transactions",
		"DELETE FROM profiles",
	}
	for _, stmt := range deletes {
		mock.ExpectExec(regexp.QuoteMeta(stmt)).
			WithArgs("prof-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteCascade(context.Background(), "prof-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepositoryDeleteCascadeRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newProfileRepoMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("upvotes = GREATEST(p.upvotes - v.up_count, 0)")).
		WithArgs("prof-1", sqlmock.AnyArg()).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	err := repo.DeleteCascade(context.Background(), "prof-1")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
