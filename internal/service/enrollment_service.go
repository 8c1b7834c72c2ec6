package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/educhain-labs/educhain-api/internal/models"
	"github.com/educhain-labs/educhain-api/internal/repository"
	appErrors "github.com/educhain-labs/educhain-api/pkg/errors"
)

type enrollmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindByHomeworkAndStudent(ctx context.Context, homeworkID, studentID string) (*models.Enrollment, error)
	Exists(ctx context.Context, homeworkID, studentID string) (bool, error)
	CreateWithCount(ctx context.Context, enrollment *models.Enrollment) error
	Submit(ctx context.Context, id, submissionPath string, submittedAt time.Time) error
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
}

type enrollmentHomeworkRepository interface {
	FindByID(ctx context.Context, id string) (*models.Homework, error)
}

type enrollmentProfileRepository interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
}

type submissionStorage interface {
	SaveStream(relPath string, r io.Reader) (string, error)
}

// EnrollmentService handles homework enrollment and submission. A seat is
// claimed atomically against the homework's capacity; submitting moves the
// enrollment to COMPLETED, which is the precondition for a review.
type EnrollmentService struct {
	enrollments enrollmentRepository
	homeworks   enrollmentHomeworkRepository
	profiles    enrollmentProfileRepository
	storage     submissionStorage
	logger      *zap.Logger
}

// NewEnrollmentService constructs the service.
func NewEnrollmentService(enrollments enrollmentRepository, homeworks enrollmentHomeworkRepository, profiles enrollmentProfileRepository, storage submissionStorage, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		enrollments: enrollments,
		homeworks:   homeworks,
		profiles:    profiles,
		storage:     storage,
		logger:      logger,
	}
}

// Enroll registers a student on a homework.
func (s *EnrollmentService) Enroll(ctx context.Context, homeworkID, studentID string) (*models.Enrollment, error) {
	student, err := s.profiles.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	if student.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can enroll")
	}

	homework, err := s.homeworks.FindByID(ctx, homeworkID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "homework not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load homework")
	}
	if homework.Deadline != nil && time.Now().UTC().After(*homework.Deadline) {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "homework deadline has passed")
	}

	exists, err := s.enrollments.Exists(ctx, homeworkID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "already enrolled in this homework")
	}

	enrollment := &models.Enrollment{HomeworkID: homeworkID, StudentID: studentID}
	if err := s.enrollments.CreateWithCount(ctx, enrollment); err != nil {
		if errors.Is(err, repository.ErrHomeworkFull) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "homework is full")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll")
	}

	s.logger.Info("student enrolled",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("homework_id", homeworkID),
		zap.String("student_id", studentID))
	return enrollment, nil
}

// Submit stores the submission file and completes the enrollment. Only the
// enrolled student may submit, and only while the enrollment is ACTIVE.
func (s *EnrollmentService) Submit(ctx context.Context, enrollmentID, studentID, fileName string, file io.Reader) (*models.Enrollment, error) {
	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.StudentID != studentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "enrollment belongs to another student")
	}
	if enrollment.Status != models.EnrollmentStatusActive {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment is not active")
	}

	relPath := filepath.Join("submissions", enrollment.ID, uuid.NewString()+filepath.Ext(fileName))
	storedPath, err := s.storage.SaveStream(relPath, file)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store submission")
	}

	submittedAt := time.Now().UTC()
	if err := s.enrollments.Submit(ctx, enrollment.ID, storedPath, submittedAt); err != nil {
		if errors.Is(err, repository.ErrNoTransition) {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment is not active")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete enrollment")
	}

	enrollment.Status = models.EnrollmentStatusCompleted
	enrollment.SubmissionPath = &storedPath
	enrollment.SubmittedAt = &submittedAt
	s.logger.Info("submission completed",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("path", storedPath))
	return enrollment, nil
}

// Get returns an enrollment visible to its student or the homework's
// teacher.
func (s *EnrollmentService) Get(ctx context.Context, enrollmentID, requesterID string) (*models.Enrollment, error) {
	enrollment, err := s.enrollments.FindByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.StudentID != requesterID {
		homework, err := s.homeworks.FindByID(ctx, enrollment.HomeworkID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load homework")
		}
		if homework.TeacherID != requesterID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "not a participant of this enrollment")
		}
	}
	return enrollment, nil
}

// List returns enrollment details matching the filter.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	enrollments, total, err := s.enrollments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return enrollments, pagination, nil
}
