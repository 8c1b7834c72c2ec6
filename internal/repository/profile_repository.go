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

// ErrNoTransition reports a guarded update whose WHERE clause matched no
// row, meaning the requested state transition was not applicable.
var ErrNoTransition = errors.New("no matching row for transition")

const profileColumns = `id, wallet_address, display_name, role, rating, total_reviews, upvotes, downvotes, completed_count, is_mentor, token_balance, avatar_url, bio, created_at, updated_at`

// ProfileRepository handles persistence of profiles.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs the repository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindByID returns a profile by its ID.
func (r *ProfileRepository) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM profiles WHERE id = $1`, profileColumns)
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindByWallet returns a profile by its lowercase wallet address.
func (r *ProfileRepository) FindByWallet(ctx context.Context, address string) (*models.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM profiles WHERE wallet_address = $1`, profileColumns)
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, address); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ExistsByWallet checks whether a profile exists for the address.
func (r *ProfileRepository) ExistsByWallet(ctx context.Context, address string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM profiles WHERE wallet_address = $1 LIMIT 1", address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check wallet address: %w", err)
	}
	return true, nil
}

// List returns profiles filtered by the provided criteria.
func (r *ProfileRepository) List(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, int, error) {
	base := "FROM profiles"
	var conditions []string
	var args []interface{}

	if filter.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, filter.Role)
	}
	if filter.IsMentor != nil {
		conditions = append(conditions, fmt.Sprintf("is_mentor = $%d", len(args)+1))
		args = append(args, *filter.IsMentor)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(display_name ILIKE $%d OR wallet_address ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"rating":       "rating",
		"upvotes":      "upvotes",
		"created_at":   "created_at",
		"display_name": "display_name",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", profileColumns, base+clause, orderBy, order, size, offset)

	var profiles []models.Profile
	if err := r.db.SelectContext(ctx, &profiles, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list profiles: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count profiles: %w", err)
	}
	return profiles, total, nil
}

// CreateWithGrant inserts a new profile together with its welcome-bonus
// ledger entry in one transaction, so no profile ever exists with a balance
// that diverges from its ledger.
func (r *ProfileRepository) CreateWithGrant(ctx context.Context, profile *models.Profile, grant *models.TokenTransaction) error {
	now := time.Now().UTC()
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	profile.CreatedAt = now
	profile.UpdatedAt = now
	profile.TokenBalance = grant.Amount

	grant.ProfileID = profile.ID
	if grant.ID == "" {
		grant.ID = uuid.NewString()
	}
	grant.CreatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const insertProfile = `INSERT INTO profiles (id, wallet_address, display_name, role, rating, total_reviews, upvotes, downvotes, completed_count, is_mentor, token_balance, avatar_url, bio, created_at, updated_at)
        VALUES (:id, :wallet_address, :display_name, :role, 0, 0, 0, 0, 0, FALSE, :token_balance, :avatar_url, :bio, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertProfile, profile); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create profile: %w", err)
	}
	const insertGrant = `INSERT INTO token_transactions (id, profile_id, amount, tx_type, description, created_at)
        VALUES (:id, :profile_id, :amount, :tx_type, :description, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertGrant, grant); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create welcome grant: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit profile: %w", err)
	}
	return nil
}

// UpdateInfo updates the mutable presentation fields of a profile.
func (r *ProfileRepository) UpdateInfo(ctx context.Context, id, displayName string, avatarURL, bio *string) error {
	const query = `UPDATE profiles SET display_name = $2, avatar_url = $3, bio = $4, updated_at = $5 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, displayName, avatarURL, bio, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetMentor flips is_mentor for an eligible student. The guard makes the
// transition one-way: it never matches a teacher or an existing mentor.
func (r *ProfileRepository) SetMentor(ctx context.Context, id string) error {
	const query = `UPDATE profiles SET is_mentor = TRUE, updated_at = $2
        WHERE id = $1 AND role = $3 AND is_mentor = FALSE`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC(), models.RoleStudent)
	if err != nil {
		return fmt.Errorf("set mentor: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set mentor rows: %w", err)
	}
	if n == 0 {
		return ErrNoTransition
	}
	return nil
}

// DeleteCascade removes a profile and every dependent row in one
// transaction, honoring the account-deletion contract. Counters derived
// from the doomed rows are recomputed first: vote tallies on other
// profiles, ratings of students the profile reviewed, homework capacity
// for the profile's enrollments and answered flags on questions only the
// profile had answered.
func (r *ProfileRepository) DeleteCascade(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	const compensateVotes = `UPDATE profiles p SET
            upvotes = GREATEST(p.upvotes - v.up_count, 0),
            downvotes = GREATEST(p.downvotes - v.down_count, 0),
            updated_at = $2
        FROM (SELECT target_id,
                     SUM(CASE WHEN vote_type = 'UPVOTE' THEN 1 ELSE 0 END) AS up_count,
                     SUM(CASE WHEN vote_type = 'DOWNVOTE' THEN 1 ELSE 0 END) AS down_count
              FROM votes WHERE voter_id = $1 GROUP BY target_id) v
        WHERE p.id = v.target_id`
	if _, err := tx.ExecContext(ctx, compensateVotes, id, now); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("compensate vote counts: %w", err)
	}

	const compensateRatings = `UPDATE profiles p SET
            rating = COALESCE((SELECT AVG(r.stars) FROM reviews r WHERE r.student_id = p.id AND r.reviewer_id <> $1), 0),
            total_reviews = (SELECT COUNT(*) FROM reviews r WHERE r.student_id = p.id AND r.reviewer_id <> $1),
            updated_at = $2
        WHERE p.id IN (SELECT DISTINCT student_id FROM reviews WHERE reviewer_id = $1)`
	if _, err := tx.ExecContext(ctx, compensateRatings, id, now); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("compensate ratings: %w", err)
	}

	const compensateCapacity = `UPDATE homeworks h SET
            current_students = GREATEST(h.current_students - e.cnt, 0),
            updated_at = $2
        FROM (SELECT homework_id, COUNT(*) AS cnt FROM enrollments WHERE student_id = $1 GROUP BY homework_id) e
        WHERE h.id = e.homework_id`
	if _, err := tx.ExecContext(ctx, compensateCapacity, id, now); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("compensate homework capacity: %w", err)
	}

	const compensateAnswered = `UPDATE questions q SET is_answered = FALSE
        WHERE q.id IN (SELECT question_id FROM answers WHERE answerer_id = $1)
          AND NOT EXISTS (SELECT 1 FROM answers a WHERE a.question_id = q.id AND a.answerer_id <> $1)`
	if _, err := tx.ExecContext(ctx, compensateAnswered, id); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("compensate answered flags: %w", err)
	}

	statements := []string{
		`DELETE FROM answers WHERE answerer_id = $1 OR question_id IN (SELECT id FROM questions WHERE student_id = $1)`,
		`DELETE FROM questions WHERE student_id = $1`,
		`DELETE FROM votes WHERE voter_id = $1 OR target_id = $1`,
		`DELETE FROM reviews WHERE reviewer_id = $1 OR student_id = $1`,
		`DELETE FROM enrollments WHERE student_id = $1`,
		`DELETE FROM badges WHERE profile_id = $1`,
		`DELETE FROM wallet_sessions WHERE profile_id = $1`,
		`DELETE FROM token_transactions WHERE profile_id = $1`,
		`DELETE FROM profiles WHERE id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("delete profile data: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit profile deletion: %w", err)
	}
	return nil
}
