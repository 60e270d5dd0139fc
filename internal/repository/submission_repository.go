package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bit-fotutors/classroom-api/internal/models"
)

// SubmissionRepository manages the lifecycle of individual submissions.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs a SubmissionRepository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

const submissionDetailColumns = `s.id, s.assignment_id, s.student_id, s.status, s.file_path, s.content,
            s.score_value, s.score_percent, s.teacher_comment, s.submitted_at, s.created_at,
            a.deadline, h.id AS homework_id, h.title AS homework_title, h.max_score,
            h.teacher_id, t.external_id AS teacher_external_id,
            st.name AS student_name, st.external_id AS student_external_id`

const submissionDetailJoins = `
        FROM homework_submissions s
        JOIN homework_assignments a ON a.id = s.assignment_id
        JOIN homeworks h ON h.id = a.homework_id
        JOIN teachers t ON t.id = h.teacher_id
        JOIN students st ON st.id = s.student_id`

// FindDetail fetches one submission with its full lifecycle context.
func (r *SubmissionRepository) FindDetail(ctx context.Context, id string) (*models.SubmissionDetail, error) {
	query := `SELECT ` + submissionDetailColumns + submissionDetailJoins + ` WHERE s.id = $1`
	var detail models.SubmissionDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// MarkSubmitted transitions an assigned submission to submitted, recording
// the stored file and any text answer. The status predicate makes the
// transition single-shot under concurrent uploads.
func (r *SubmissionRepository) MarkSubmitted(ctx context.Context, id string, filePath *string, content *string, submittedAt time.Time) error {
	const query = `UPDATE homework_submissions
        SET status = $2, file_path = $3, content = $4, submitted_at = $5
        WHERE id = $1 AND status = $6`
	res, err := r.db.ExecContext(ctx, query, id, models.SubmissionSubmitted, filePath, content, submittedAt, models.SubmissionAssigned)
	if err != nil {
		return fmt.Errorf("mark submitted: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("mark submitted: submission not in assigned state")
	}
	return nil
}

// SetGrade records the score on a submission and moves it to graded.
// Re-grading overwrites the previous score.
func (r *SubmissionRepository) SetGrade(ctx context.Context, id string, score int, percent *int, comment *string) error {
	const query = `UPDATE homework_submissions
        SET status = $2, score_value = $3, score_percent = $4, teacher_comment = $5
        WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.SubmissionGraded, score, percent, comment); err != nil {
		return fmt.Errorf("set grade: %w", err)
	}
	return nil
}

// ListByStudent returns a student's submissions with assignment context,
// newest deadline first.
func (r *SubmissionRepository) ListByStudent(ctx context.Context, studentID string) ([]models.SubmissionDetail, error) {
	query := `SELECT ` + submissionDetailColumns + submissionDetailJoins + `
        WHERE s.student_id = $1
        ORDER BY a.deadline DESC`
	var details []models.SubmissionDetail
	if err := r.db.SelectContext(ctx, &details, query, studentID); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return details, nil
}

// ListRecentGraded returns the student's most recently graded work for the
// parent report.
func (r *SubmissionRepository) ListRecentGraded(ctx context.Context, studentID string, limit int) ([]models.GradedEntry, error) {
	const query = `SELECT h.title AS homework_title, s.score_value, h.max_score, s.score_percent, s.teacher_comment, s.submitted_at
        FROM homework_submissions s
        JOIN homework_assignments a ON a.id = s.assignment_id
        JOIN homeworks h ON h.id = a.homework_id
        WHERE s.student_id = $1 AND s.status = $2
        ORDER BY s.submitted_at DESC NULLS LAST
        LIMIT $3`
	var entries []models.GradedEntry
	if err := r.db.SelectContext(ctx, &entries, query, studentID, models.SubmissionGraded, limit); err != nil {
		return nil, fmt.Errorf("list graded: %w", err)
	}
	return entries, nil
}
