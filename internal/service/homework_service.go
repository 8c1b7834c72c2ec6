package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/educhain-labs/educhain-api/internal/models"
	"github.com/educhain-labs/educhain-api/internal/repository"
	appErrors "github.com/educhain-labs/educhain-api/pkg/errors"
)

type homeworkRepository interface {
	List(ctx context.Context, filter models.HomeworkFilter) ([]models.HomeworkDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Homework, error)
	FindDetailByID(ctx context.Context, id string) (*models.HomeworkDetail, error)
	CreateWithSpend(ctx context.Context, homework *models.Homework, cost decimal.Decimal) error
	Update(ctx context.Context, homework *models.Homework) error
	Delete(ctx context.Context, id string) error
	AddResource(ctx context.Context, resource *models.HomeworkResource) error
	ListResources(ctx context.Context, homeworkID string) ([]models.HomeworkResource, error)
	FindResource(ctx context.Context, id string) (*models.HomeworkResource, error)
}

type homeworkProfileRepository interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
}

type resourceStorage interface {
	SaveStream(relPath string, r io.Reader) (string, error)
	Delete(relPath string) error
}

type resourceSigner interface {
	Generate(fileID, relPath string) (string, time.Time, error)
}

type homeworkMetrics interface {
	CountLedgerWrite(txType string)
}

// HomeworkService handles the task marketplace. Creating a homework costs
// tokens, deducted atomically with the insert; attached resources are
// served through signed URLs.
type HomeworkService struct {
	homeworks homeworkRepository
	profiles  homeworkProfileRepository
	storage   resourceStorage
	signer    resourceSigner
	metrics   homeworkMetrics
	validator *validator.Validate
	logger    *zap.Logger
	cost      decimal.Decimal
}

// NewHomeworkService constructs the service.
func NewHomeworkService(homeworks homeworkRepository, profiles homeworkProfileRepository, storage resourceStorage, signer resourceSigner, validate *validator.Validate, logger *zap.Logger, cost decimal.Decimal) *HomeworkService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HomeworkService{
		homeworks: homeworks,
		profiles:  profiles,
		storage:   storage,
		signer:    signer,
		validator: validate,
		logger:    logger,
		cost:      cost,
	}
}

// AttachMetrics registers the counter sink. Safe to leave unset in tests.
func (s *HomeworkService) AttachMetrics(metrics homeworkMetrics) {
	s.metrics = metrics
}

// CreateHomeworkRequest describes a new task. TeacherID comes from token
// claims.
type CreateHomeworkRequest struct {
	Title       string     `json:"title" validate:"required,min=3,max=200"`
	Description string     `json:"description" validate:"required,max=4000"`
	Subject     string     `json:"subject" validate:"required,max=100"`
	MaxStudents int        `json:"max_students" validate:"required,min=1,max=500"`
	Deadline    *time.Time `json:"deadline"`
	TeacherID   string     `json:"-" validate:"required"`
}

// UpdateHomeworkRequest describes the editable task fields.
type UpdateHomeworkRequest struct {
	Title       string     `json:"title" validate:"required,min=3,max=200"`
	Description string     `json:"description" validate:"required,max=4000"`
	Subject     string     `json:"subject" validate:"required,max=100"`
	MaxStudents int        `json:"max_students" validate:"required,min=1,max=500"`
	Deadline    *time.Time `json:"deadline"`
}

// ResourceLink is a signed, expiring download link for one resource.
type ResourceLink struct {
	Resource  models.HomeworkResource `json:"resource"`
	URL       string                  `json:"url"`
	ExpiresAt time.Time               `json:"expires_at"`
}

// Create publishes a homework, spending the creation cost from the
// teacher's balance.
func (s *HomeworkService) Create(ctx context.Context, req CreateHomeworkRequest) (*models.Homework, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid homework payload")
	}
	if req.Deadline != nil && req.Deadline.Before(time.Now().UTC()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "deadline must be in the future")
	}

	teacher, err := s.profiles.FindByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	if teacher.Role != models.RoleTeacher {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only teachers can create homeworks")
	}

	homework := &models.Homework{
		TeacherID:   req.TeacherID,
		Title:       req.Title,
		Description: req.Description,
		Subject:     req.Subject,
		MaxStudents: req.MaxStudents,
		Deadline:    req.Deadline,
	}
	if err := s.homeworks.CreateWithSpend(ctx, homework, s.cost); err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			return nil, appErrors.Clone(appErrors.ErrInsufficientTokens, "not enough tokens to create a homework")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create homework")
	}
	if s.metrics != nil && s.cost.IsPositive() {
		s.metrics.CountLedgerWrite(string(models.TransactionTypeSpent))
	}

	s.logger.Info("homework created",
		zap.String("homework_id", homework.ID),
		zap.String("teacher_id", homework.TeacherID),
		zap.String("cost", s.cost.String()))
	return homework, nil
}

// List returns homeworks matching the filter.
func (s *HomeworkService) List(ctx context.Context, filter models.HomeworkFilter) ([]models.HomeworkDetail, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	homeworks, total, err := s.homeworks.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list homeworks")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return homeworks, pagination, nil
}

// Get returns a homework with teacher info.
func (s *HomeworkService) Get(ctx context.Context, id string) (*models.HomeworkDetail, error) {
	detail, err := s.homeworks.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "homework not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load homework")
	}
	return detail, nil
}

// Update edits a homework. Only the owning teacher may update, and the
// capacity cannot drop below the already claimed seats.
func (s *HomeworkService) Update(ctx context.Context, id, teacherID string, req UpdateHomeworkRequest) (*models.Homework, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid homework payload")
	}

	homework, err := s.ownedHomework(ctx, id, teacherID)
	if err != nil {
		return nil, err
	}
	if req.MaxStudents < homework.CurrentStudents {
		return nil, appErrors.Clone(appErrors.ErrValidation, "max_students cannot be below current enrollments")
	}

	homework.Title = req.Title
	homework.Description = req.Description
	homework.Subject = req.Subject
	homework.MaxStudents = req.MaxStudents
	homework.Deadline = req.Deadline
	if err := s.homeworks.Update(ctx, homework); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update homework")
	}
	return homework, nil
}

// Delete removes a homework without enrollments.
func (s *HomeworkService) Delete(ctx context.Context, id, teacherID string) error {
	if _, err := s.ownedHomework(ctx, id, teacherID); err != nil {
		return err
	}
	if err := s.homeworks.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNoTransition) {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "homework has enrollments")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete homework")
	}
	return nil
}

// AttachResource stores an uploaded file and records it on the homework.
func (s *HomeworkService) AttachResource(ctx context.Context, homeworkID, teacherID, fileName, contentType string, size int64, file io.Reader) (*models.HomeworkResource, error) {
	if _, err := s.ownedHomework(ctx, homeworkID, teacherID); err != nil {
		return nil, err
	}

	relPath := filepath.Join("resources", homeworkID, uuid.NewString()+filepath.Ext(fileName))
	storedPath, err := s.storage.SaveStream(relPath, file)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store resource")
	}

	resource := &models.HomeworkResource{
		HomeworkID:  homeworkID,
		FileName:    fileName,
		FilePath:    storedPath,
		ContentType: contentType,
		SizeBytes:   size,
	}
	if err := s.homeworks.AddResource(ctx, resource); err != nil {
		if cleanupErr := s.storage.Delete(storedPath); cleanupErr != nil {
			s.logger.Warn("failed to remove orphaned resource file", zap.Error(cleanupErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record resource")
	}
	return resource, nil
}

// Resources returns signed download links for the homework's files.
func (s *HomeworkService) Resources(ctx context.Context, homeworkID string) ([]ResourceLink, error) {
	if _, err := s.homeworks.FindByID(ctx, homeworkID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "homework not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load homework")
	}

	resources, err := s.homeworks.ListResources(ctx, homeworkID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list resources")
	}

	links := make([]ResourceLink, 0, len(resources))
	for _, resource := range resources {
		token, expiresAt, err := s.signer.Generate(resource.ID, resource.FilePath)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign resource link")
		}
		links = append(links, ResourceLink{Resource: resource, URL: token, ExpiresAt: expiresAt})
	}
	return links, nil
}

func (s *HomeworkService) ownedHomework(ctx context.Context, id, teacherID string) (*models.Homework, error) {
	homework, err := s.homeworks.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "homework not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load homework")
	}
	if homework.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "homework belongs to another teacher")
	}
	return homework, nil
}
