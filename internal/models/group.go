package models

import "time"

// Group collects students of one teacher.
type Group struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	Title     string    `db:"title" json:"title"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// GroupStudent is a membership row. Unique per (group, student).
type GroupStudent struct {
	ID        string    `db:"id" json:"id"`
	GroupID   string    `db:"group_id" json:"group_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	JoinedAt  time.Time `db:"joined_at" json:"joined_at"`
}

// GroupDetail is a group with its current member count.
type GroupDetail struct {
	Group
	MemberCount int `db:"member_count" json:"member_count"`
}
