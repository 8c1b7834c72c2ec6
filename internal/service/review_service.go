package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/educhain-labs/educhain-api/internal/models"
	appErrors "github.com/educhain-labs/educhain-api/pkg/errors"
)

type reviewRepository interface {
	Exists(ctx context.Context, reviewerID, studentID, homeworkID string) (bool, error)
	CreateAndApply(ctx context.Context, review *models.Review) error
	ListByStudent(ctx context.Context, studentID string) ([]models.ReviewDetail, error)
	ListByHomework(ctx context.Context, homeworkID string) ([]models.ReviewDetail, error)
}

type reviewHomeworkRepository interface {
	FindByID(ctx context.Context, id string) (*models.Homework, error)
}

type reviewEnrollmentRepository interface {
	FindByHomeworkAndStudent(ctx context.Context, homeworkID, studentID string) (*models.Enrollment, error)
}

type reviewProfileRepository interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
}

type reviewMetrics interface {
	CountReview()
}

// ReviewService handles teacher reviews of student submissions. A review
// closes the enrollment lifecycle: it recomputes the student's rating from
// the full review set and marks the enrollment REVIEWED.
type ReviewService struct {
	reviews     reviewRepository
	homeworks   reviewHomeworkRepository
	enrollments reviewEnrollmentRepository
	profiles    reviewProfileRepository
	metrics     reviewMetrics
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewReviewService constructs the service.
func NewReviewService(reviews reviewRepository, homeworks reviewHomeworkRepository, enrollments reviewEnrollmentRepository, profiles reviewProfileRepository, validate *validator.Validate, logger *zap.Logger) *ReviewService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{
		reviews:     reviews,
		homeworks:   homeworks,
		enrollments: enrollments,
		profiles:    profiles,
		validator:   validate,
		logger:      logger,
	}
}

// AttachMetrics registers the counter sink. Safe to leave unset in tests.
func (s *ReviewService) AttachMetrics(metrics reviewMetrics) {
	s.metrics = metrics
}

// CreateReviewRequest describes the review payload. ReviewerID comes from
// the token claims, never the body.
type CreateReviewRequest struct {
	HomeworkID string  `json:"homework_id" validate:"required"`
	StudentID  string  `json:"student_id" validate:"required"`
	Stars      int     `json:"stars" validate:"required,min=1,max=5"`
	Comment    *string `json:"comment" validate:"omitempty,max=1000"`
	ReviewerID string  `json:"-" validate:"required"`
}

// Create records a review for a completed enrollment. Only the homework's
// owning teacher may review, only once per (student, homework), and only
// after the student submitted.
func (s *ReviewService) Create(ctx context.Context, req CreateReviewRequest) (*models.Review, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	homework, err := s.homeworks.FindByID(ctx, req.HomeworkID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "homework not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load homework")
	}
	if homework.TeacherID != req.ReviewerID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the homework's teacher can review")
	}

	student, err := s.profiles.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reviews can only target students")
	}

	enrollment, err := s.enrollments.FindByHomeworkAndStudent(ctx, req.HomeworkID, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student is not enrolled in this homework")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	switch enrollment.Status {
	case models.EnrollmentStatusCompleted:
	case models.EnrollmentStatusReviewed:
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "enrollment already reviewed")
	default:
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student has not submitted yet")
	}

	exists, err := s.reviews.Exists(ctx, req.ReviewerID, req.StudentID, req.HomeworkID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check review")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "review already recorded")
	}

	review := &models.Review{
		HomeworkID: req.HomeworkID,
		ReviewerID: req.ReviewerID,
		StudentID:  req.StudentID,
		Stars:      req.Stars,
		Comment:    req.Comment,
	}
	if err := s.reviews.CreateAndApply(ctx, review); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record review")
	}
	if s.metrics != nil {
		s.metrics.CountReview()
	}

	s.logger.Info("review recorded",
		zap.String("review_id", review.ID),
		zap.String("student_id", review.StudentID),
		zap.Int("stars", review.Stars))
	return review, nil
}

// ListByStudent returns the reviews a student has received.
func (s *ReviewService) ListByStudent(ctx context.Context, studentID string) ([]models.ReviewDetail, error) {
	reviews, err := s.reviews.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reviews")
	}
	return reviews, nil
}

// ListByHomework returns the reviews given for a homework.
func (s *ReviewService) ListByHomework(ctx context.Context, homeworkID string) ([]models.ReviewDetail, error) {
	reviews, err := s.reviews.ListByHomework(ctx, homeworkID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reviews")
	}
	return reviews, nil
}
