package models

import "time"

// Lesson is a scheduled session, optionally tied to a group or a student.
type Lesson struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	GroupID   *string   `db:"group_id" json:"group_id,omitempty"`
	StudentID *string   `db:"student_id" json:"student_id,omitempty"`
	Topic     string    `db:"topic" json:"topic"`
	StartTime time.Time `db:"start_time" json:"start_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
