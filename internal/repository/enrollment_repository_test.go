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

func newEnrollmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnrollmentRepositoryCreateWithCount(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE homeworks SET current_students = current_students + 1")).
		WithArgs("hw-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	enrollment := &models.Enrollment{HomeworkID: "hw-1", StudentID: "stu-1"}
	require.NoError(t, repo.CreateWithCount(context.Background(), enrollment))
	require.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	require.NotEmpty(t, enrollment.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateWithCountFull(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE homeworks SET current_students = current_students + 1")).
		WithArgs("hw-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	enrollment := &models.Enrollment{HomeworkID: "hw-1", StudentID: "stu-1"}
	err := repo.CreateWithCount(context.Background(), enrollment)
	require.ErrorIs(t, err, ErrHomeworkFull)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositorySubmitRequiresActive(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $2")).
		WithArgs("enr-1", models.EnrollmentStatusCompleted, "uploads/enr-1.pdf", sqlmock.AnyArg(), models.EnrollmentStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Submit(context.Background(), "enr-1", "uploads/enr-1.pdf", time.Now())
	require.ErrorIs(t, err, ErrNoTransition)
	require.NoError(t, mock.ExpectationsWereMet())
}
