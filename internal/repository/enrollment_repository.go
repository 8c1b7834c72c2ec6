package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/educhain-labs/educhain-api/internal/models"
)

// ErrHomeworkFull reports an enrollment attempt against a homework whose
// seat limit is reached.
var ErrHomeworkFull = errors.New("homework is full")

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, homework_id, student_id, status, submission_path, submitted_at, joined_at
        FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindByHomeworkAndStudent returns the enrollment for the pair.
func (r *EnrollmentRepository) FindByHomeworkAndStudent(ctx context.Context, homeworkID, studentID string) (*models.Enrollment, error) {
	const query = `SELECT id, homework_id, student_id, status, submission_path, submitted_at, joined_at
        FROM enrollments WHERE homework_id = $1 AND student_id = $2`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, homeworkID, studentID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Exists checks for an enrollment for the (homework, student) pair.
func (r *EnrollmentRepository) Exists(ctx context.Context, homeworkID, studentID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE homework_id = $1 AND student_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, homeworkID, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// CreateWithCount inserts an enrollment and claims a seat on the homework
// in one transaction. The conditional seat update enforces the capacity
// invariant under concurrent enrollments; ErrHomeworkFull reports a lost
// claim.
func (r *EnrollmentRepository) CreateWithCount(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.JoinedAt.IsZero() {
		enrollment.JoinedAt = time.Now().UTC()
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusActive
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const claim = `UPDATE homeworks SET current_students = current_students + 1, updated_at = $2
        WHERE id = $1 AND current_students < max_students`
	res, err := tx.ExecContext(ctx, claim, enrollment.HomeworkID, time.Now().UTC())
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("claim homework seat: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("claim homework seat rows: %w", err)
	}
	if n == 0 {
		tx.Rollback() //nolint:errcheck
		return ErrHomeworkFull
	}

	const insert = `INSERT INTO enrollments (id, homework_id, student_id, status, submission_path, submitted_at, joined_at)
        VALUES (:id, :homework_id, :student_id, :status, :submission_path, :submitted_at, :joined_at)`
	if _, err := tx.NamedExecContext(ctx, insert, enrollment); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create enrollment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit enrollment: %w", err)
	}
	return nil
}

// Submit transitions an ACTIVE enrollment to COMPLETED, recording the
// submission file. The status guard keeps the transition one-way.
func (r *EnrollmentRepository) Submit(ctx context.Context, id, submissionPath string, submittedAt time.Time) error {
	const query = `UPDATE enrollments SET status = $2, submission_path = $3, submitted_at = $4
        WHERE id = $1 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, id, models.EnrollmentStatusCompleted, submissionPath, submittedAt, models.EnrollmentStatusActive)
	if err != nil {
		return fmt.Errorf("submit enrollment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("submit enrollment rows: %w", err)
	}
	if n == 0 {
		return ErrNoTransition
	}
	return nil
}

// List returns enrollment details filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e
LEFT JOIN profiles p ON p.id = e.student_id
LEFT JOIN homeworks h ON h.id = e.homework_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.HomeworkID != "" {
		conditions = append(conditions, fmt.Sprintf("e.homework_id = $%d", len(args)+1))
		args = append(args, filter.HomeworkID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.homework_id, e.student_id, e.status, e.submission_path, e.submitted_at, e.joined_at,
        p.display_name AS student_name, h.title AS homework_title
        %s ORDER BY e.joined_at DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}
