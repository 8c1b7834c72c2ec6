package models

import "time"

// Question is asked by a student on a homework. IsAnswered holds exactly
// when the question has at least one answer.
type Question struct {
	ID         string    `db:"id" json:"id"`
	HomeworkID string    `db:"homework_id" json:"homework_id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	Title      string    `db:"title" json:"title"`
	Body       string    `db:"body" json:"body"`
	IsAnswered bool      `db:"is_answered" json:"is_answered"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Answer is given by the owning teacher or by a mentor. Only the mentor
// path earns a token reward.
type Answer struct {
	ID          string    `db:"id" json:"id"`
	QuestionID  string    `db:"question_id" json:"question_id"`
	AnswererID  string    `db:"answerer_id" json:"answerer_id"`
	Body        string    `db:"body" json:"body"`
	FromTeacher bool      `db:"from_teacher" json:"from_teacher"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// AnswerDetail enriches Answer with answerer info.
type AnswerDetail struct {
	Answer
	AnswererName     string `db:"answerer_name" json:"answerer_name"`
	AnswererIsMentor bool   `db:"answerer_is_mentor" json:"answerer_is_mentor"`
}
