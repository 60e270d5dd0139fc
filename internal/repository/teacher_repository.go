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

// ErrPaymentAlreadySettled signals a confirmation replay for a payment that
// already left the pending state.
var ErrPaymentAlreadySettled = errors.New("payment already settled")

// TeacherRepository manages teacher accounts and subscription billing.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// Create inserts a new teacher on the FREE plan.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	if teacher.SubscriptionPlan == "" {
		teacher.SubscriptionPlan = models.PlanFree
	}
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO teachers (id, external_id, name, subscription_plan, subscription_end_date, created_at)
        VALUES (:id, :external_id, :name, :subscription_plan, :subscription_end_date, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// FindByID fetches a teacher by primary key.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	const query = `SELECT id, external_id, name, subscription_plan, subscription_end_date, created_at
        FROM teachers WHERE id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindByExternalID fetches a teacher by messaging identity.
func (r *TeacherRepository) FindByExternalID(ctx context.Context, externalID string) (*models.Teacher, error) {
	const query = `SELECT id, external_id, name, subscription_plan, subscription_end_date, created_at
        FROM teachers WHERE external_id = $1`
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, externalID); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// CreateSaaSPayment records a pending subscription purchase attempt.
func (r *TeacherRepository) CreateSaaSPayment(ctx context.Context, payment *models.SaaSPayment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.Status == "" {
		payment.Status = models.SaaSPaymentPending
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO saas_payments (id, teacher_id, amount, currency, provider_payment_id, status, created_at)
        VALUES (:id, :teacher_id, :amount, :currency, :provider_payment_id, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create saas payment: %w", err)
	}
	return nil
}

// ConfirmSubscription settles a pending payment and extends the teacher's
// subscription in one transaction. The payment row acts as the idempotency
// guard: confirming a settled payment returns ErrPaymentAlreadySettled and
// leaves the teacher untouched.
func (r *TeacherRepository) ConfirmSubscription(ctx context.Context, providerPaymentID string, periodDays int, now time.Time) (*models.Teacher, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}

	var payment models.SaaSPayment
	const selectPayment = `SELECT id, teacher_id, amount, currency, provider_payment_id, status, created_at
        FROM saas_payments WHERE provider_payment_id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &payment, selectPayment, providerPaymentID); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}
	if payment.Status != models.SaaSPaymentPending {
		tx.Rollback() //nolint:errcheck
		return nil, ErrPaymentAlreadySettled
	}

	if _, err := tx.ExecContext(ctx, `UPDATE saas_payments SET status = $2 WHERE id = $1`, payment.ID, models.SaaSPaymentSucceeded); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("settle saas payment: %w", err)
	}

	var teacher models.Teacher
	const selectTeacher = `SELECT id, external_id, name, subscription_plan, subscription_end_date, created_at
        FROM teachers WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &teacher, selectTeacher, payment.TeacherID); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, err
	}

	endDate := models.ExtendSubscription(teacher.SubscriptionEndDate, now, periodDays)
	const updateTeacher = `UPDATE teachers SET subscription_plan = $2, subscription_end_date = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, updateTeacher, teacher.ID, models.PlanPro, endDate); err != nil {
		tx.Rollback() //nolint:errcheck
		return nil, fmt.Errorf("extend subscription: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit subscription: %w", err)
	}

	teacher.SubscriptionPlan = models.PlanPro
	teacher.SubscriptionEndDate = &endDate
	return &teacher, nil
}

// ListSaaSPayments returns a teacher's subscription purchase history.
func (r *TeacherRepository) ListSaaSPayments(ctx context.Context, teacherID string) ([]models.SaaSPayment, error) {
	const query = `SELECT id, teacher_id, amount, currency, provider_payment_id, status, created_at
        FROM saas_payments WHERE teacher_id = $1 ORDER BY created_at DESC`
	var payments []models.SaaSPayment
	if err := r.db.SelectContext(ctx, &payments, query, teacherID); err != nil {
		return nil, fmt.Errorf("list saas payments: %w", err)
	}
	return payments, nil
}
