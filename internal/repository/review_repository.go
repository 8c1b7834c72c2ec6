package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/educhain-labs/educhain-api/internal/models"
)

// ReviewRepository handles persistence of reviews and the counter updates
// they imply on the reviewed student's profile.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository constructs the repository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Exists checks for an existing review for the (reviewer, student, homework)
// triple.
func (r *ReviewRepository) Exists(ctx context.Context, reviewerID, studentID, homeworkID string) (bool, error) {
	const query = `SELECT 1 FROM reviews WHERE reviewer_id = $1 AND student_id = $2 AND homework_id = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, reviewerID, studentID, homeworkID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check review: %w", err)
	}
	return true, nil
}

// CreateAndApply inserts the review and applies every derived update in one
// transaction: the student's rating is recomputed from the full review set
// (deliberately no running average, so repeated updates cannot drift), the
// review counter moves, the enrollment becomes REVIEWED, and the completed
// counter increments exactly once per enrollment.
func (r *ReviewRepository) CreateAndApply(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	const insert = `INSERT INTO reviews (id, homework_id, reviewer_id, student_id, stars, comment, created_at)
        VALUES (:id, :homework_id, :reviewer_id, :student_id, :stars, :comment, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insert, review); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create review: %w", err)
	}

	// Read the full post-insert review set for the student.
	var agg struct {
		Rating sql.NullFloat64 `db:"rating"`
		Count  int             `db:"count"`
	}
	const aggregate = `SELECT AVG(stars) AS rating, COUNT(*) AS count FROM reviews WHERE student_id = $1`
	if err := tx.GetContext(ctx, &agg, aggregate, review.StudentID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("aggregate reviews: %w", err)
	}

	const updateProfile = `UPDATE profiles SET rating = $2, total_reviews = $3, updated_at = $4 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, updateProfile, review.StudentID, agg.Rating.Float64, agg.Count, time.Now().UTC()); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update student rating: %w", err)
	}

	// COMPLETED -> REVIEWED. The status guard means a concurrent duplicate
	// review cannot double-count the enrollment.
	const updateEnrollment = `UPDATE enrollments SET status = $3
        WHERE homework_id = $1 AND student_id = $2 AND status = $4`
	res, err := tx.ExecContext(ctx, updateEnrollment, review.HomeworkID, review.StudentID, models.EnrollmentStatusReviewed, models.EnrollmentStatusCompleted)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("transition enrollment: %w", err)
	}
	transitioned, err := res.RowsAffected()
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("transition enrollment rows: %w", err)
	}
	if transitioned > 0 {
		const bumpCompleted = `UPDATE profiles SET completed_count = completed_count + 1, updated_at = $2 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, bumpCompleted, review.StudentID, time.Now().UTC()); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("bump completed count: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit review: %w", err)
	}
	return nil
}

// ListByStudent returns the reviews a student has received, newest first.
func (r *ReviewRepository) ListByStudent(ctx context.Context, studentID string) ([]models.ReviewDetail, error) {
	const query = `SELECT r.id, r.homework_id, r.reviewer_id, r.student_id, r.stars, r.comment, r.created_at,
        p.display_name AS reviewer_name, h.title AS homework_title
        FROM reviews r
        LEFT JOIN profiles p ON p.id = r.reviewer_id
        LEFT JOIN homeworks h ON h.id = r.homework_id
        WHERE r.student_id = $1 ORDER BY r.created_at DESC`
	var reviews []models.ReviewDetail
	if err := r.db.SelectContext(ctx, &reviews, query, studentID); err != nil {
		return nil, fmt.Errorf("list student reviews: %w", err)
	}
	return reviews, nil
}

// ListByHomework returns the reviews given for a homework.
func (r *ReviewRepository) ListByHomework(ctx context.Context, homeworkID string) ([]models.ReviewDetail, error) {
	const query = `SELECT r.id, r.homework_id, r.reviewer_id, r.student_id, r.stars, r.comment, r.created_at,
        p.display_name AS reviewer_name, h.title AS homework_title
        FROM reviews r
        LEFT JOIN profiles p ON p.id = r.reviewer_id
        LEFT JOIN homeworks h ON h.id = r.homework_id
        WHERE r.homework_id = $1 ORDER BY r.created_at DESC`
	var reviews []models.ReviewDetail
	if err := r.db.SelectContext(ctx, &reviews, query, homeworkID); err != nil {
		return nil, fmt.Errorf("list homework reviews: %w", err)
	}
	return reviews, nil
}
