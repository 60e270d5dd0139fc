package models

import "time"

// Assignment target discriminators.
const (
	TargetStudent = "student"
	TargetGroup   = "group"
)

// HomeworkAssignment is one push of a homework template to a target. The
// submission fan-out is a snapshot of the target at creation time; later
// group membership changes do not affect it.
type HomeworkAssignment struct {
	ID             string    `db:"id" json:"id"`
	HomeworkID     string    `db:"homework_id" json:"homework_id"`
	AssignedToType string    `db:"assigned_to_type" json:"assigned_to_type"`
	AssignedToID   string    `db:"assigned_to_id" json:"assigned_to_id"`
	Deadline       time.Time `db:"deadline" json:"deadline"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// AssignmentDetail is an assignment with homework context and fan-out size.
// TeacherID comes from the owning homework and drives access checks.
type AssignmentDetail struct {
	HomeworkAssignment
	HomeworkTitle   string `db:"homework_title" json:"homework_title"`
	TeacherID       string `db:"teacher_id" json:"-"`
	SubmissionCount int    `db:"submission_count" json:"submission_count"`
}
