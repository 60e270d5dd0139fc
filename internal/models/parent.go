package models

import "time"

// Parent may view linked students but never owns them.
type Parent struct {
	ID         string    `db:"id" json:"id"`
	ExternalID string    `db:"external_id" json:"external_id"`
	Name       string    `db:"name" json:"name"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ParentStudent links a parent to a student. Unique per (parent, student).
type ParentStudent struct {
	ID        string    `db:"id" json:"id"`
	ParentID  string    `db:"parent_id" json:"parent_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ChildOverview is the parent-facing view of a linked student.
type ChildOverview struct {
	StudentID   string `db:"student_id" json:"student_id"`
	Name        string `db:"name" json:"name"`
	Balance     int    `db:"balance" json:"balance"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}

// ChildReport aggregates recent graded work for one linked student.
type ChildReport struct {
	StudentID string        `json:"student_id"`
	Name      string        `json:"name"`
	Graded    []GradedEntry `json:"graded"`
}

// GradedEntry is a single graded submission in a progress report.
type GradedEntry struct {
	HomeworkTitle  string     `db:"homework_title" json:"homework_title"`
	ScoreValue     *int       `db:"score_value" json:"score_value,omitempty"`
	MaxScore       *int       `db:"max_score" json:"max_score,omitempty"`
	ScorePercent   *int       `db:"score_percent" json:"score_percent,omitempty"`
	TeacherComment *string    `db:"teacher_comment" json:"teacher_comment,omitempty"`
	SubmittedAt    *time.Time `db:"submitted_at" json:"submitted_at,omitempty"`
}
