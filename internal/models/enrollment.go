package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
// ACTIVE -> COMPLETED (student submits) -> REVIEWED (teacher reviews).
// REVIEWED is terminal.
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentStatusReviewed  EnrollmentStatus = "REVIEWED"
)

// Enrollment captures a student's registration to a homework.
type Enrollment struct {
	ID             string           `db:"id" json:"id"`
	HomeworkID     string           `db:"homework_id" json:"homework_id"`
	StudentID      string           `db:"student_id" json:"student_id"`
	Status         EnrollmentStatus `db:"status" json:"status"`
	SubmissionPath *string          `db:"submission_path" json:"-"`
	SubmittedAt    *time.Time       `db:"submitted_at" json:"submitted_at,omitempty"`
	JoinedAt       time.Time        `db:"joined_at" json:"joined_at"`
}

// EnrollmentDetail enriches Enrollment with student and homework info.
type EnrollmentDetail struct {
	Enrollment
	StudentName   string `db:"student_name" json:"student_name"`
	HomeworkTitle string `db:"homework_title" json:"homework_title"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID  string
	HomeworkID string
	Status     EnrollmentStatus
	Page       int
	PageSize   int
}
