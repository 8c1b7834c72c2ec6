package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/educhain-labs/educhain-api/internal/models"
)

// QuestionRepository handles persistence of questions and answers.
type QuestionRepository struct {
	db *sqlx.DB
}

// NewQuestionRepository constructs the repository.
func NewQuestionRepository(db *sqlx.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// Create inserts a question.
func (r *QuestionRepository) Create(ctx context.Context, question *models.Question) error {
	if question.ID == "" {
		question.ID = uuid.NewString()
	}
	question.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO questions (id, homework_id, student_id, title, body, is_answered, created_at)
        VALUES (:id, :homework_id, :student_id, :title, :body, FALSE, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, question); err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	return nil
}

// FindByID returns a question by its ID.
func (r *QuestionRepository) FindByID(ctx context.Context, id string) (*models.Question, error) {
	const query = `SELECT id, homework_id, student_id, title, body, is_answered, created_at
        FROM questions WHERE id = $1`
	var question models.Question
	if err := r.db.GetContext(ctx, &question, query, id); err != nil {
		return nil, err
	}
	return &question, nil
}

// ListByHomework returns the questions of a homework, newest first.
func (r *QuestionRepository) ListByHomework(ctx context.Context, homeworkID string) ([]models.Question, error) {
	const query = `SELECT id, homework_id, student_id, title, body, is_answered, created_at
        FROM questions WHERE homework_id = $1 ORDER BY created_at DESC`
	var questions []models.Question
	if err := r.db.SelectContext(ctx, &questions, query, homeworkID); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

// CreateAnswerWithReward inserts the answer, marks the question answered and,
// when a reward entry is given, credits the answerer in the same transaction.
// A mentor reward therefore never lands without its answer and vice versa.
func (r *QuestionRepository) CreateAnswerWithReward(ctx context.Context, answer *models.Answer, reward *models.TokenTransaction) error {
	if answer.ID == "" {
		answer.ID = uuid.NewString()
	}
	answer.CreatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const insert = `INSERT INTO answers (id, question_id, answerer_id, body, from_teacher, created_at)
        VALUES (:id, :question_id, :answerer_id, :body, :from_teacher, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insert, answer); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create answer: %w", err)
	}
	const mark = `UPDATE questions SET is_answered = TRUE WHERE id = $1`
	if _, err := tx.ExecContext(ctx, mark, answer.QuestionID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("mark question answered: %w", err)
	}
	if reward != nil {
		if err := AppendTx(ctx, tx, reward); err != nil {
			tx.Rollback() //nolint:errcheck
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit answer: %w", err)
	}
	return nil
}

// ListAnswers returns the answers of a question with answerer info.
func (r *QuestionRepository) ListAnswers(ctx context.Context, questionID string) ([]models.AnswerDetail, error) {
	const query = `SELECT a.id, a.question_id, a.answerer_id, a.body, a.from_teacher, a.created_at,
        p.display_name AS answerer_name, p.is_mentor AS answerer_is_mentor
        FROM answers a
        LEFT JOIN profiles p ON p.id = a.answerer_id
        WHERE a.question_id = $1 ORDER BY a.created_at ASC`
	var answers []models.AnswerDetail
	if err := r.db.SelectContext(ctx, &answers, query, questionID); err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	return answers, nil
}
