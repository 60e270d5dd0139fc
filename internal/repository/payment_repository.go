package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bit-fotutors/classroom-api/internal/models"
)

// PaymentRepository manages the student lesson-balance ledger.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs a PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// CreateStudentPayment appends a ledger entry and increments the student's
// lesson balance in one transaction, locking the student row so concurrent
// payments serialise. Returns the balance after the increment.
func (r *PaymentRepository) CreateStudentPayment(ctx context.Context, payment *models.StudentPayment) (int, error) {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}

	var balance int
	if err := tx.GetContext(ctx, &balance, `SELECT balance FROM students WHERE id = $1 FOR UPDATE`, payment.StudentID); err != nil {
		tx.Rollback() //nolint:errcheck
		return 0, err
	}

	const insert = `INSERT INTO student_payments (id, teacher_id, student_id, amount, lessons_added, comment, created_at)
        VALUES (:id, :teacher_id, :student_id, :amount, :lessons_added, :comment, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insert, payment); err != nil {
		tx.Rollback() //nolint:errcheck
		return 0, fmt.Errorf("create payment: %w", err)
	}

	newBalance := balance + payment.LessonsAdded
	if _, err := tx.ExecContext(ctx, `UPDATE students SET balance = $2 WHERE id = $1`, payment.StudentID, newBalance); err != nil {
		tx.Rollback() //nolint:errcheck
		return 0, fmt.Errorf("update balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit payment: %w", err)
	}
	return newBalance, nil
}

// ListByStudent returns a student's ledger entries, newest first.
func (r *PaymentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.StudentPayment, error) {
	const query = `SELECT id, teacher_id, student_id, amount, lessons_added, comment, created_at
        FROM student_payments WHERE student_id = $1 ORDER BY created_at DESC`
	var payments []models.StudentPayment
	if err := r.db.SelectContext(ctx, &payments, query, studentID); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// ListByTeacher returns every ledger entry across the teacher's roster,
// newest first. Feeds the ledger export.
func (r *PaymentRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.StudentPayment, error) {
	const query = `SELECT id, teacher_id, student_id, amount, lessons_added, comment, created_at
        FROM student_payments WHERE teacher_id = $1 ORDER BY created_at DESC`
	var payments []models.StudentPayment
	if err := r.db.SelectContext(ctx, &payments, query, teacherID); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}
