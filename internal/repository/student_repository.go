package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bit-fotutors/classroom-api/internal/models"
)

// ErrQuotaExceeded signals that a plan-limited insert was refused. The row
// count check and the insert run under the same teacher row lock, so two
// concurrent creates cannot both slip under the limit.
var ErrQuotaExceeded = errors.New("plan quota exceeded")

// StudentRepository manages a teacher's roster.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// CreateWithQuota inserts a student unless the teacher already holds `limit`
// students. The teacher row is locked for the duration so the count cannot
// move between the check and the insert.
func (r *StudentRepository) CreateWithQuota(ctx context.Context, student *models.Student, limit int) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	var teacherID string
	if err := tx.GetContext(ctx, &teacherID, `SELECT id FROM teachers WHERE id = $1 FOR UPDATE`, student.TeacherID); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}

	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM students WHERE teacher_id = $1`, student.TeacherID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("count students: %w", err)
	}
	if count >= limit {
		tx.Rollback() //nolint:errcheck
		return ErrQuotaExceeded
	}

	const insert = `INSERT INTO students (id, external_id, teacher_id, name, balance, price_per_lesson, created_at)
        VALUES (:id, :external_id, :teacher_id, :name, :balance, :price_per_lesson, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insert, student); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create student: %w", err)
	}

	return tx.Commit()
}

// FindByID fetches a student by primary key.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, external_id, teacher_id, name, balance, price_per_lesson, created_at
        FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByExternalID fetches a student by messaging identity.
func (r *StudentRepository) FindByExternalID(ctx context.Context, externalID string) (*models.Student, error) {
	const query = `SELECT id, external_id, teacher_id, name, balance, price_per_lesson, created_at
        FROM students WHERE external_id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, externalID); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListByTeacher returns the teacher's roster ordered by name.
func (r *StudentRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Student, error) {
	const query = `SELECT id, external_id, teacher_id, name, balance, price_per_lesson, created_at
        FROM students WHERE teacher_id = $1 ORDER BY name ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, teacherID); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// CountByTeacher returns the roster size.
func (r *StudentRepository) CountByTeacher(ctx context.Context, teacherID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM students WHERE teacher_id = $1`, teacherID); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}

// AttachExternalID binds a messaging identity to a pre-created student row.
// The student becomes able to authenticate once the link exists.
func (r *StudentRepository) AttachExternalID(ctx context.Context, id, externalID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE students SET external_id = $2 WHERE id = $1`, id, externalID)
	if err != nil {
		return fmt.Errorf("attach external id: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("attach external id: no such student")
	}
	return nil
}

// UpdatePrice sets the per-lesson price used to suggest ledger amounts.
func (r *StudentRepository) UpdatePrice(ctx context.Context, id string, price int) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE students SET price_per_lesson = $2 WHERE id = $1`, id, price); err != nil {
		return fmt.Errorf("update price: %w", err)
	}
	return nil
}
