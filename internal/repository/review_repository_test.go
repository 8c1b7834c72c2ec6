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

func newReviewRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestReviewRepositoryCreateAndApply(t *testing.T) {
	db, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reviews")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT AVG(stars) AS rating, COUNT(*) AS count FROM reviews WHERE student_id = $1")).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"rating", "count"}).AddRow(4.5, 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET rating = $2, total_reviews = $3")).
		WithArgs("stu-1", 4.5, 2, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $3")).
		WithArgs("hw-1", "stu-1", models.EnrollmentStatusReviewed, models.EnrollmentStatusCompleted).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET completed_count = completed_count + 1")).
		WithArgs("stu-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	comment := "solid work"
	review := &models.Review{HomeworkID: "hw-1", ReviewerID: "tch-1", StudentID: "stu-1", Stars: 5, Comment: &comment}
	require.NoError(t, repo.CreateAndApply(context.Background(), review))
	require.NotEmpty(t, review.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryCreateAndApplyAlreadyReviewed(t *testing.T) {
	db, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reviews")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT AVG(stars) AS rating, COUNT(*) AS count FROM reviews WHERE student_id = $1")).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"rating", "count"}).AddRow(4.0, 3))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET rating = $2, total_reviews = $3")).
		WithArgs("stu-1", 4.0, 3, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Enrollment already REVIEWED: the guarded transition matches nothing
	// and completed_count must not move.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $3")).
		WithArgs("hw-1", "stu-1", models.EnrollmentStatusReviewed, models.EnrollmentStatusCompleted).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	review := &models.Review{HomeworkID: "hw-1", ReviewerID: "tch-2", StudentID: "stu-1", Stars: 3}
	require.NoError(t, repo.CreateAndApply(context.Background(), review))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryExistsNoRows(t *testing.T) {
	db, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM reviews")).
		WithArgs("tch-1", "stu-1", "hw-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.Exists(context.Background(), "tch-1", "stu-1", "hw-1")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}
