package models

import "time"

// Review is a 1-5 star rating given by a teacher to a student for one
// homework. At most one review exists per (reviewer, student, homework).
// Reviews are never updated or deleted.
type Review struct {
	ID         string    `db:"id" json:"id"`
	HomeworkID string    `db:"homework_id" json:"homework_id"`
	ReviewerID string    `db:"reviewer_id" json:"reviewer_id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	Stars      int       `db:"stars" json:"stars"`
	Comment    *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ReviewDetail enriches Review with reviewer and homework info.
type ReviewDetail struct {
	Review
	ReviewerName  string `db:"reviewer_name" json:"reviewer_name"`
	HomeworkTitle string `db:"homework_title" json:"homework_title"`
}
