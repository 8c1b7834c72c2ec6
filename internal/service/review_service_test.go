package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/educhain-labs/educhain-api/internal/models"
	appErrors "github.com/educhain-labs/educhain-api/pkg/errors"
)

type reviewRepoStub struct {
	exists    bool
	existsErr error
	createErr error
	created   []*models.Review
	byStudent []models.ReviewDetail
}

func (s *reviewRepoStub) Exists(ctx context.Context, reviewerID, studentID, homeworkID string) (bool, error) {
	return s.exists, s.existsErr
}

func (s *reviewRepoStub) CreateAndApply(ctx context.Context, review *models.Review) error {
	if s.createErr != nil {
		return s.createErr
	}
	review.ID = "rev-1"
	s.created = append(s.created, review)
	return nil
}

func (s *reviewRepoStub) ListByStudent(ctx context.Context, studentID string) ([]models.ReviewDetail, error) {
	return s.byStudent, nil
}

func (s *reviewRepoStub) ListByHomework(ctx context.Context, homeworkID string) ([]models.ReviewDetail, error) {
	return nil, nil
}

type reviewHomeworkStub struct {
	homeworks map[string]*models.Homework
}

func (s reviewHomeworkStub) FindByID(ctx context.Context, id string) (*models.Homework, error) {
	if hw, ok := s.homeworks[id]; ok {
		return hw, nil
	}
	return nil, sql.ErrNoRows
}

type reviewEnrollmentStub struct {
	enrollment *models.Enrollment
}

func (s reviewEnrollmentStub) FindByHomeworkAndStudent(ctx context.Context, homeworkID, studentID string) (*models.Enrollment, error) {
	if s.enrollment == nil {
		return nil, sql.ErrNoRows
	}
	return s.enrollment, nil
}

type reviewProfileStub struct {
	profiles map[string]*models.Profile
}

func (s reviewProfileStub) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	if p, ok := s.profiles[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func newReviewFixture(enrollmentStatus models.EnrollmentStatus) (*ReviewService, *reviewRepoStub) {
	reviews := &reviewRepoStub{}
	homeworks := reviewHomeworkStub{homeworks: map[string]*models.Homework{
		"hw-1": {ID: "hw-1", TeacherID: "tch-1"},
	}}
	enrollments := reviewEnrollmentStub{enrollment: &models.Enrollment{
		ID: "enr-1", HomeworkID: "hw-1", StudentID: "stu-1", Status: enrollmentStatus,
	}}
	profiles := reviewProfileStub{profiles: map[string]*models.Profile{
		"stu-1": {ID: "stu-1", Role: models.RoleStudent},
		"tch-1": {ID: "tch-1", Role: models.RoleTeacher},
	}}
	svc := NewReviewService(reviews, homeworks, enrollments, profiles, nil, zap.NewNop())
	return svc, reviews
}

func TestReviewServiceCreate(t *testing.T) {
	svc, reviews := newReviewFixture(models.EnrollmentStatusCompleted)

	review, err := svc.Create(context.Background(), CreateReviewRequest{
		HomeworkID: "hw-1",
		StudentID:  "stu-1",
		Stars:      5,
		ReviewerID: "tch-1",
	})
	require.NoError(t, err)
	require.NotNil(t, review)
	assert.Equal(t, "rev-1", review.ID)
	assert.Len(t, reviews.created, 1)
}

func TestReviewServiceCreateRejectsForeignTeacher(t *testing.T) {
	svc, _ := newReviewFixture(models.EnrollmentStatusCompleted)

	_, err := svc.Create(context.Background(), CreateReviewRequest{
		HomeworkID: "hw-1",
		StudentID:  "stu-1",
		Stars:      4,
		ReviewerID: "tch-2",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestReviewServiceCreateRequiresSubmission(t *testing.T) {
	svc, _ := newReviewFixture(models.EnrollmentStatusActive)

	_, err := svc.Create(context.Background(), CreateReviewRequest{
		HomeworkID: "hw-1",
		StudentID:  "stu-1",
		Stars:      4,
		ReviewerID: "tch-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestReviewServiceCreateRejectsSecondReview(t *testing.T) {
	svc, _ := newReviewFixture(models.EnrollmentStatusReviewed)

	_, err := svc.Create(context.Background(), CreateReviewRequest{
		HomeworkID: "hw-1",
		StudentID:  "stu-1",
		Stars:      2,
		ReviewerID: "tch-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicate.Code, appErrors.FromError(err).Code)
}

func TestReviewServiceCreateValidatesStars(t *testing.T) {
	svc, _ := newReviewFixture(models.EnrollmentStatusCompleted)

	for _, stars := range []int{0, 6} {
		_, err := svc.Create(context.Background(), CreateReviewRequest{
			HomeworkID: "hw-1",
			StudentID:  "stu-1",
			Stars:      stars,
			ReviewerID: "tch-1",
		})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}
