package models

import "time"

// Persisted submission statuses. Overdue is never stored: it is a display
// label derived at read time (see DisplayStatus).
const (
	SubmissionAssigned  = "assigned"
	SubmissionSubmitted = "submitted"
	SubmissionGraded    = "graded"
	SubmissionOverdue   = "overdue"
)

// HomeworkSubmission tracks one student's progress on one assignment.
type HomeworkSubmission struct {
	ID             string     `db:"id" json:"id"`
	AssignmentID   string     `db:"assignment_id" json:"assignment_id"`
	StudentID      string     `db:"student_id" json:"student_id"`
	Status         string     `db:"status" json:"status"`
	FilePath       *string    `db:"file_path" json:"file_path,omitempty"`
	Content        *string    `db:"content" json:"content,omitempty"`
	ScoreValue     *int       `db:"score_value" json:"score_value,omitempty"`
	ScorePercent   *int       `db:"score_percent" json:"score_percent,omitempty"`
	TeacherComment *string    `db:"teacher_comment" json:"teacher_comment,omitempty"`
	SubmittedAt    *time.Time `db:"submitted_at" json:"submitted_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// DisplayStatus derives the read-time status label: an assigned submission
// past its deadline shows as overdue without any write occurring.
func (s *HomeworkSubmission) DisplayStatus(deadline, now time.Time) string {
	if s.Status == SubmissionAssigned && now.After(deadline) {
		return SubmissionOverdue
	}
	return s.Status
}

// ComputeScorePercent returns floor(score*100/maxScore), or nil when no
// maximum is defined for the homework.
func ComputeScorePercent(score int, maxScore *int) *int {
	if maxScore == nil || *maxScore == 0 {
		return nil
	}
	percent := score * 100 / *maxScore
	return &percent
}

// SubmissionDetail joins a submission with its assignment, homework and
// party context. It carries everything the lifecycle checks need: the
// deadline for late-upload rejection, the homework owner for grading
// authorisation and the max score for percentage derivation.
type SubmissionDetail struct {
	HomeworkSubmission
	DisplayStatusLabel string    `db:"-" json:"display_status,omitempty"`
	Deadline           time.Time `db:"deadline" json:"deadline"`
	HomeworkID         string    `db:"homework_id" json:"homework_id"`
	HomeworkTitle      string    `db:"homework_title" json:"homework_title"`
	MaxScore           *int      `db:"max_score" json:"max_score,omitempty"`
	TeacherID          string    `db:"teacher_id" json:"teacher_id"`
	TeacherExternalID  string    `db:"teacher_external_id" json:"-"`
	StudentName        string    `db:"student_name" json:"student_name"`
	StudentExternalID  *string   `db:"student_external_id" json:"-"`
}

// SubmissionStatusRow is the teacher-facing status board entry for one
// student within an assignment.
type SubmissionStatusRow struct {
	SubmissionID  string     `db:"submission_id" json:"submission_id"`
	StudentID     string     `db:"student_id" json:"student_id"`
	StudentName   string     `db:"student_name" json:"student_name"`
	Status        string     `db:"status" json:"status"`
	DisplayStatus string     `db:"-" json:"display_status"`
	ScoreValue    *int       `db:"score_value" json:"score_value,omitempty"`
	ScorePercent  *int       `db:"score_percent" json:"score_percent,omitempty"`
	SubmittedAt   *time.Time `db:"submitted_at" json:"submitted_at,omitempty"`
}
