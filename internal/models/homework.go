package models

import "time"

// Homework is a task published by a teacher. CurrentStudents mirrors the
// count of its enrollments and is only mutated together with them.
type Homework struct {
	ID              string     `db:"id" json:"id"`
	TeacherID       string     `db:"teacher_id" json:"teacher_id"`
	Title           string     `db:"title" json:"title"`
	Description     string     `db:"description" json:"description"`
	Subject         string     `db:"subject" json:"subject"`
	MaxStudents     int        `db:"max_students" json:"max_students"`
	CurrentStudents int        `db:"current_students" json:"current_students"`
	Deadline        *time.Time `db:"deadline" json:"deadline,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// HomeworkDetail enriches Homework with teacher info.
type HomeworkDetail struct {
	Homework
	TeacherName   string  `db:"teacher_name" json:"teacher_name"`
	TeacherRating float64 `db:"teacher_rating" json:"teacher_rating"`
}

// HomeworkResource is an uploaded file attached to a homework.
type HomeworkResource struct {
	ID          string    `db:"id" json:"id"`
	HomeworkID  string    `db:"homework_id" json:"homework_id"`
	FileName    string    `db:"file_name" json:"file_name"`
	FilePath    string    `db:"file_path" json:"-"`
	ContentType string    `db:"content_type" json:"content_type"`
	SizeBytes   int64     `db:"size_bytes" json:"size_bytes"`
	UploadedAt  time.Time `db:"uploaded_at" json:"uploaded_at"`
}

// HomeworkFilter provides filters for listing homeworks.
type HomeworkFilter struct {
	TeacherID string
	Subject   string
	Search    string
	OpenOnly  bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
