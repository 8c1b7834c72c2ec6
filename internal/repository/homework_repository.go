package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/educhain-labs/educhain-api/internal/models"
)

// HomeworkRepository handles persistence of homeworks and their resources.
type HomeworkRepository struct {
	db *sqlx.DB
}

// NewHomeworkRepository constructs the repository.
func NewHomeworkRepository(db *sqlx.DB) *HomeworkRepository {
	return &HomeworkRepository{db: db}
}

// List returns homework details filtered by the provided criteria.
func (r *HomeworkRepository) List(ctx context.Context, filter models.HomeworkFilter) ([]models.HomeworkDetail, int, error) {
	base := `FROM homeworks h
LEFT JOIN profiles p ON p.id = h.teacher_id`
	var conditions []string
	var args []interface{}

	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("h.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("h.subject = $%d", len(args)+1))
		args = append(args, filter.Subject)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(h.title ILIKE $%d OR h.description ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.OpenOnly {
		conditions = append(conditions, "h.current_students < h.max_students")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"created_at": "h.created_at",
		"deadline":   "h.deadline",
		"title":      "h.title",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "h.created_at"
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

	query := fmt.Sprintf(`SELECT h.id, h.teacher_id, h.title, h.description, h.subject, h.max_students, h.current_students, h.deadline, h.created_at, h.updated_at,
        p.display_name AS teacher_name, p.rating AS teacher_rating
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var homeworks []models.HomeworkDetail
	if err := r.db.SelectContext(ctx, &homeworks, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list homeworks: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count homeworks: %w", err)
	}
	return homeworks, total, nil
}

// FindByID returns a homework by its ID.
func (r *HomeworkRepository) FindByID(ctx context.Context, id string) (*models.Homework, error) {
	const query = `SELECT id, teacher_id, title, description, subject, max_students, current_students, deadline, created_at, updated_at
        FROM homeworks WHERE id = $1`
	var homework models.Homework
	if err := r.db.GetContext(ctx, &homework, query, id); err != nil {
		return nil, err
	}
	return &homework, nil
}

// FindDetailByID returns a homework with teacher info.
func (r *HomeworkRepository) FindDetailByID(ctx context.Context, id string) (*models.HomeworkDetail, error) {
	const query = `SELECT h.id, h.teacher_id, h.title, h.description, h.subject, h.max_students, h.current_students, h.deadline, h.created_at, h.updated_at,
        p.display_name AS teacher_name, p.rating AS teacher_rating
        FROM homeworks h
        LEFT JOIN profiles p ON p.id = h.teacher_id
        WHERE h.id = $1`
	var detail models.HomeworkDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CreateWithSpend inserts the homework and deducts the creation cost from
// the teacher's balance in one transaction, so a failed insert never leaves
// tokens deducted and a successful insert is never free. Returns
// ErrInsufficientBalance when the teacher cannot pay.
func (r *HomeworkRepository) CreateWithSpend(ctx context.Context, homework *models.Homework, cost decimal.Decimal) error {
	now := time.Now().UTC()
	if homework.ID == "" {
		homework.ID = uuid.NewString()
	}
	homework.CreatedAt = now
	homework.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if cost.IsPositive() {
		desc := fmt.Sprintf("task creation: %s", homework.Title)
		if err := SpendTx(ctx, tx, homework.TeacherID, cost, models.TransactionTypeSpent, desc); err != nil {
			tx.Rollback() //nolint:errcheck
			return err
		}
	}
	const insert = `INSERT INTO homeworks (id, teacher_id, title, description, subject, max_students, current_students, deadline, created_at, updated_at)
        VALUES (:id, :teacher_id, :title, :description, :subject, :max_students, 0, :deadline, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, homework); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create homework: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit homework: %w", err)
	}
	return nil
}

// Update rewrites the mutable homework fields.
func (r *HomeworkRepository) Update(ctx context.Context, homework *models.Homework) error {
	homework.UpdatedAt = time.Now().UTC()
	const query = `UPDATE homeworks SET title = :title, description = :description, subject = :subject,
        max_students = :max_students, deadline = :deadline, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, homework); err != nil {
		return fmt.Errorf("update homework: %w", err)
	}
	return nil
}

// Delete removes a homework that has no enrollments. The guard keeps the
// operation safe against a concurrent enroll.
func (r *HomeworkRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM homeworks WHERE id = $1 AND current_students = 0`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete homework: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete homework rows: %w", err)
	}
	if n == 0 {
		return ErrNoTransition
	}
	return nil
}

// AddResource attaches an uploaded file record to a homework.
func (r *HomeworkRepository) AddResource(ctx context.Context, resource *models.HomeworkResource) error {
	if resource.ID == "" {
		resource.ID = uuid.NewString()
	}
	if resource.UploadedAt.IsZero() {
		resource.UploadedAt = time.Now().UTC()
	}
	const query = `INSERT INTO homework_resources (id, homework_id, file_name, file_path, content_type, size_bytes, uploaded_at)
        VALUES (:id, :homework_id, :file_name, :file_path, :content_type, :size_bytes, :uploaded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, resource); err != nil {
		return fmt.Errorf("add homework resource: %w", err)
	}
	return nil
}

// ListResources returns the files attached to a homework.
func (r *HomeworkRepository) ListResources(ctx context.Context, homeworkID string) ([]models.HomeworkResource, error) {
	const query = `SELECT id, homework_id, file_name, file_path, content_type, size_bytes, uploaded_at
        FROM homework_resources WHERE homework_id = $1 ORDER BY uploaded_at ASC`
	var resources []models.HomeworkResource
	if err := r.db.SelectContext(ctx, &resources, query, homeworkID); err != nil {
		return nil, fmt.Errorf("list homework resources: %w", err)
	}
	return resources, nil
}

// FindResource returns one attached file record.
func (r *HomeworkRepository) FindResource(ctx context.Context, id string) (*models.HomeworkResource, error) {
	const query = `SELECT id, homework_id, file_name, file_path, content_type, size_bytes, uploaded_at
        FROM homework_resources WHERE id = $1`
	var resource models.HomeworkResource
	if err := r.db.GetContext(ctx, &resource, query, id); err != nil {
		return nil, err
	}
	return &resource, nil
}
