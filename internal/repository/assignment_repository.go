package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bit-fotutors/classroom-api/internal/models"
)

// AssignmentRepository manages homework assignments and their submission
// fan-out.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs an AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// CreateWithSubmissions inserts the assignment and one assigned submission
// per target student in a single transaction. Either the whole fan-out lands
// or nothing does.
func (r *AssignmentRepository) CreateWithSubmissions(ctx context.Context, assignment *models.HomeworkAssignment, studentIDs []string) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	const insertAssignment = `INSERT INTO homework_assignments (id, homework_id, assigned_to_type, assigned_to_id, deadline, created_at)
        VALUES (:id, :homework_id, :assigned_to_type, :assigned_to_id, :deadline, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertAssignment, assignment); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create assignment: %w", err)
	}

	const insertSubmission = `INSERT INTO homework_submissions (id, assignment_id, student_id, status, created_at)
        VALUES ($1, $2, $3, $4, $5)`
	for _, studentID := range studentIDs {
		if _, err := tx.ExecContext(ctx, insertSubmission,
			uuid.NewString(), assignment.ID, studentID, models.SubmissionAssigned, assignment.CreatedAt); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("create submission fan-out: %w", err)
		}
	}

	return tx.Commit()
}

// FindDetail fetches an assignment with homework context. TeacherID drives
// the caller's access check.
func (r *AssignmentRepository) FindDetail(ctx context.Context, id string) (*models.AssignmentDetail, error) {
	const query = `SELECT a.id, a.homework_id, a.assigned_to_type, a.assigned_to_id, a.deadline, a.created_at,
            h.title AS homework_title, h.teacher_id,
            (SELECT COUNT(*) FROM homework_submissions s WHERE s.assignment_id = a.id) AS submission_count
        FROM homework_assignments a
        JOIN homeworks h ON h.id = a.homework_id
        WHERE a.id = $1`
	var detail models.AssignmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListByTeacher returns all assignments across the teacher's homeworks,
// newest first.
func (r *AssignmentRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.AssignmentDetail, error) {
	const query = `SELECT a.id, a.homework_id, a.assigned_to_type, a.assigned_to_id, a.deadline, a.created_at,
            h.title AS homework_title, h.teacher_id,
            (SELECT COUNT(*) FROM homework_submissions s WHERE s.assignment_id = a.id) AS submission_count
        FROM homework_assignments a
        JOIN homeworks h ON h.id = a.homework_id
        WHERE h.teacher_id = $1
        ORDER BY a.created_at DESC`
	var assignments []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, teacherID); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// StatusBoard returns the per-student state of one assignment.
func (r *AssignmentRepository) StatusBoard(ctx context.Context, assignmentID string) ([]models.SubmissionStatusRow, error) {
	const query = `SELECT s.id AS submission_id, s.student_id, st.name AS student_name,
            s.status, s.score_value, s.score_percent, s.submitted_at
        FROM homework_submissions s
        JOIN students st ON st.id = s.student_id
        WHERE s.assignment_id = $1
        ORDER BY st.name ASC`
	var rows []models.SubmissionStatusRow
	if err := r.db.SelectContext(ctx, &rows, query, assignmentID); err != nil {
		return nil, fmt.Errorf("assignment status board: %w", err)
	}
	return rows, nil
}
