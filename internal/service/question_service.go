package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/educhain-labs/educhain-api/internal/models"
	appErrors "github.com/educhain-labs/educhain-api/pkg/errors"
)

type questionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	FindByID(ctx context.Context, id string) (*models.Question, error)
	ListByHomework(ctx context.Context, homeworkID string) ([]models.Question, error)
	CreateAnswerWithReward(ctx context.Context, answer *models.Answer, reward *models.TokenTransaction) error
	ListAnswers(ctx context.Context, questionID string) ([]models.AnswerDetail, error)
}

type questionHomeworkRepository interface {
	FindByID(ctx context.Context, id string) (*models.Homework, error)
}

type questionProfileRepository interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
}

type questionMetrics interface {
	CountLedgerWrite(txType string)
}

// QuestionService handles the mentor Q&A board. Students ask against a
// homework; the owning teacher answers for free, mentors answer for a
// token reward.
type QuestionService struct {
	questions    questionRepository
	homeworks    questionHomeworkRepository
	profiles     questionProfileRepository
	metrics      questionMetrics
	validator    *validator.Validate
	logger       *zap.Logger
	answerReward decimal.Decimal
}

// NewQuestionService constructs the service.
func NewQuestionService(questions questionRepository, homeworks questionHomeworkRepository, profiles questionProfileRepository, validate *validator.Validate, logger *zap.Logger, answerReward decimal.Decimal) *QuestionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionService{
		questions:    questions,
		homeworks:    homeworks,
		profiles:     profiles,
		validator:    validate,
		logger:       logger,
		answerReward: answerReward,
	}
}

// AttachMetrics registers the counter sink. Safe to leave unset in tests.
func (s *QuestionService) AttachMetrics(metrics questionMetrics) {
	s.metrics = metrics
}

// AskQuestionRequest describes a new question. StudentID comes from token
// claims.
type AskQuestionRequest struct {
	HomeworkID string `json:"homework_id" validate:"required"`
	Title      string `json:"title" validate:"required,min=3,max=200"`
	Body       string `json:"body" validate:"required,max=4000"`
	StudentID  string `json:"-" validate:"required"`
}

// AnswerQuestionRequest describes an answer. AnswererID comes from token
// claims.
type AnswerQuestionRequest struct {
	QuestionID string `json:"question_id" validate:"required"`
	Body       string `json:"body" validate:"required,max=4000"`
	AnswererID string `json:"-" validate:"required"`
}

// Ask posts a question on a homework.
func (s *QuestionService) Ask(ctx context.Context, req AskQuestionRequest) (*models.Question, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid question payload")
	}

	asker, err := s.profiles.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	if asker.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can ask questions")
	}

	if _, err := s.homeworks.FindByID(ctx, req.HomeworkID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "homework not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load homework")
	}

	question := &models.Question{
		HomeworkID: req.HomeworkID,
		StudentID:  req.StudentID,
		Title:      req.Title,
		Body:       req.Body,
	}
	if err := s.questions.Create(ctx, question); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create question")
	}
	return question, nil
}

// Answer records an answer. The homework's teacher answers without reward;
// a mentor earns the configured reward, credited atomically with the
// answer insert. Everyone else is rejected.
func (s *QuestionService) Answer(ctx context.Context, req AnswerQuestionRequest) (*models.Answer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid answer payload")
	}

	question, err := s.questions.FindByID(ctx, req.QuestionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}
	homework, err := s.homeworks.FindByID(ctx, question.HomeworkID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "homework not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load homework")
	}
	answerer, err := s.profiles.FindByID(ctx, req.AnswererID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}

	fromTeacher := homework.TeacherID == answerer.ID
	if !fromTeacher && !answerer.IsMentor {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the homework's teacher or a mentor can answer")
	}

	answer := &models.Answer{
		QuestionID:  question.ID,
		AnswererID:  answerer.ID,
		Body:        req.Body,
		FromTeacher: fromTeacher,
	}

	var reward *models.TokenTransaction
	if !fromTeacher && s.answerReward.IsPositive() {
		reward = &models.TokenTransaction{
			ProfileID:   answerer.ID,
			Amount:      s.answerReward,
			Type:        models.TransactionTypeMentorReward,
			Description: fmt.Sprintf("mentor answer on question %s", question.ID),
		}
	}

	if err := s.questions.CreateAnswerWithReward(ctx, answer, reward); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record answer")
	}
	if reward != nil && s.metrics != nil {
		s.metrics.CountLedgerWrite(string(models.TransactionTypeMentorReward))
	}

	s.logger.Info("answer recorded",
		zap.String("question_id", question.ID),
		zap.String("answerer_id", answerer.ID),
		zap.Bool("from_teacher", fromTeacher),
		zap.Bool("rewarded", reward != nil))
	return answer, nil
}

// ListByHomework returns the questions asked on a homework.
func (s *QuestionService) ListByHomework(ctx context.Context, homeworkID string) ([]models.Question, error) {
	questions, err := s.questions.ListByHomework(ctx, homeworkID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list questions")
	}
	return questions, nil
}

// ListAnswers returns the answers of a question.
func (s *QuestionService) ListAnswers(ctx context.Context, questionID string) ([]models.AnswerDetail, error) {
	answers, err := s.questions.ListAnswers(ctx, questionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list answers")
	}
	return answers, nil
}
