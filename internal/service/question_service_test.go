package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/educhain-labs/educhain-api/internal/models"
	appErrors "github.com/educhain-labs/educhain-api/pkg/errors"
)

type questionRepoStub struct {
	question *models.Question
	answers  []*models.Answer
	rewards  []*models.TokenTransaction
}

func (s *questionRepoStub) Create(ctx context.Context, question *models.Question) error {
	question.ID = "q-1"
	s.question = question
	return nil
}

func (s *questionRepoStub) FindByID(ctx context.Context, id string) (*models.Question, error) {
	if s.question == nil || s.question.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.question, nil
}

func (s *questionRepoStub) ListByHomework(ctx context.Context, homeworkID string) ([]models.Question, error) {
	return nil, nil
}

func (s *questionRepoStub) CreateAnswerWithReward(ctx context.Context, answer *models.Answer, reward *models.TokenTransaction) error {
	answer.ID = "ans-1"
	s.answers = append(s.answers, answer)
	s.rewards = append(s.rewards, reward)
	return nil
}

func (s *questionRepoStub) ListAnswers(ctx context.Context, questionID string) ([]models.AnswerDetail, error) {
	return nil, nil
}

type questionHomeworkStub struct {
	homework *models.Homework
}

func (s questionHomeworkStub) FindByID(ctx context.Context, id string) (*models.Homework, error) {
	if s.homework == nil || s.homework.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.homework, nil
}

type questionProfileStub struct {
	profiles map[string]*models.Profile
}

func (s questionProfileStub) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	if p, ok := s.profiles[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func newQuestionFixture() (*QuestionService, *questionRepoStub) {
	questions := &questionRepoStub{question: &models.Question{
		ID: "q-1", HomeworkID: "hw-1", StudentID: "stu-1",
	}}
	homeworks := questionHomeworkStub{homework: &models.Homework{ID: "hw-1", TeacherID: "tch-1"}}
	profiles := questionProfileStub{profiles: map[string]*models.Profile{
		"stu-1":    {ID: "stu-1", Role: models.RoleStudent},
		"tch-1":    {ID: "tch-1", Role: models.RoleTeacher},
		"mentor-1": {ID: "mentor-1", Role: models.RoleStudent, IsMentor: true},
	}}
	svc := NewQuestionService(questions, homeworks, profiles, nil, zap.NewNop(), decimal.RequireFromString("0.5"))
	return svc, questions
}

func TestQuestionServiceTeacherAnswerEarnsNothing(t *testing.T) {
	svc, questions := newQuestionFixture()

	answer, err := svc.Answer(context.Background(), AnswerQuestionRequest{
		QuestionID: "q-1", Body: "use the distributive law", AnswererID: "tch-1",
	})
	require.NoError(t, err)
	assert.True(t, answer.FromTeacher)
	require.Len(t, questions.rewards, 1)
	assert.Nil(t, questions.rewards[0])
}

func TestQuestionServiceMentorAnswerEarnsReward(t *testing.T) {
	svc, questions := newQuestionFixture()

	answer, err := svc.Answer(context.Background(), AnswerQuestionRequest{
		QuestionID: "q-1", Body: "start with the base case", AnswererID: "mentor-1",
	})
	require.NoError(t, err)
	assert.False(t, answer.FromTeacher)
	require.Len(t, questions.rewards, 1)
	reward := questions.rewards[0]
	require.NotNil(t, reward)
	assert.Equal(t, "mentor-1", reward.ProfileID)
	assert.Equal(t, models.TransactionTypeMentorReward, reward.Type)
	assert.True(t, reward.Amount.Equal(decimal.RequireFromString("0.5")))
}

func TestQuestionServiceRejectsPlainStudentAnswer(t *testing.T) {
	svc, _ := newQuestionFixture()

	_, err := svc.Answer(context.Background(), AnswerQuestionRequest{
		QuestionID: "q-1", Body: "i think the answer is 4", AnswererID: "stu-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestQuestionServiceAskRejectsTeachers(t *testing.T) {
	svc, _ := newQuestionFixture()

	_, err := svc.Ask(context.Background(), AskQuestionRequest{
		HomeworkID: "hw-1", Title: "how do I grade", Body: "a question", StudentID: "tch-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestQuestionServiceAsk(t *testing.T) {
	svc, questions := newQuestionFixture()

	question, err := svc.Ask(context.Background(), AskQuestionRequest{
		HomeworkID: "hw-1", Title: "stuck on part two", Body: "how does the carry work", StudentID: "stu-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "q-1", question.ID)
	assert.False(t, questions.question.IsAnswered)
}
