package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bit-fotutors/classroom-api/internal/models"
	"github.com/bit-fotutors/classroom-api/internal/notify"
	"github.com/bit-fotutors/classroom-api/internal/repository"
	appErrors "github.com/bit-fotutors/classroom-api/pkg/errors"
	"github.com/bit-fotutors/classroom-api/pkg/export"
)

type billingTeacherRepository interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	CreateSaaSPayment(ctx context.Context, payment *models.SaaSPayment) error
	ConfirmSubscription(ctx context.Context, providerPaymentID string, periodDays int, now time.Time) (*models.Teacher, error)
}

type billingPaymentRepository interface {
	CreateStudentPayment(ctx context.Context, payment *models.StudentPayment) (int, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.StudentPayment, error)
}

type billingStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	CountByTeacher(ctx context.Context, teacherID string) (int, error)
}

type billingGroupRepository interface {
	CountByTeacher(ctx context.Context, teacherID string) (int, error)
}

type ledgerExporter interface {
	Render(data export.Dataset) ([]byte, error)
}

// BillingConfig holds subscription pricing.
type BillingConfig struct {
	SubscriptionAmount int
	Currency           string
	PeriodDays         int
}

// RecordPaymentRequest holds payload for a ledger entry.
type RecordPaymentRequest struct {
	StudentID    string  `json:"student_id" validate:"required"`
	Amount       int     `json:"amount" validate:"gt=0"`
	LessonsAdded int     `json:"lessons_added" validate:"gt=0"`
	Comment      *string `json:"comment,omitempty"`
}

// PaymentResult is a ledger entry with the balance after applying it.
type PaymentResult struct {
	Payment    models.StudentPayment `json:"payment"`
	NewBalance int                   `json:"new_balance"`
}

// ConfirmSubscriptionRequest carries the provider confirmation event.
type ConfirmSubscriptionRequest struct {
	ProviderPaymentID string `json:"provider_payment_id" validate:"required"`
}

// BillingService handles the lesson-balance ledger and subscription billing.
type BillingService struct {
	teachers  billingTeacherRepository
	payments  billingPaymentRepository
	students  billingStudentRepository
	groups    billingGroupRepository
	exporter  ledgerExporter
	notifier  notifier
	cfg       BillingConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBillingService constructs the billing service.
func NewBillingService(
	teachers billingTeacherRepository,
	payments billingPaymentRepository,
	students billingStudentRepository,
	groups billingGroupRepository,
	exporter ledgerExporter,
	notifier notifier,
	cfg BillingConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *BillingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PeriodDays <= 0 {
		cfg.PeriodDays = 30
	}
	return &BillingService{
		teachers:  teachers,
		payments:  payments,
		students:  students,
		groups:    groups,
		exporter:  exporter,
		notifier:  notifier,
		cfg:       cfg,
		validator: validate,
		logger:    logger,
	}
}

// RecordPayment appends a ledger entry for an owned student and returns the
// new balance. There are no refunds; entries are immutable.
func (s *BillingService) RecordPayment(ctx context.Context, teacherID string, req RecordPaymentRequest) (*PaymentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := ensureOwner(student.TeacherID, teacherID, "student"); err != nil {
		return nil, err
	}

	payment := &models.StudentPayment{
		TeacherID:    teacherID,
		StudentID:    student.ID,
		Amount:       req.Amount,
		LessonsAdded: req.LessonsAdded,
		Comment:      req.Comment,
	}
	balance, err := s.payments.CreateStudentPayment(ctx, payment)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}
	s.logger.Sugar().Infow("payment recorded",
		"teacher_id", teacherID,
		"student_id", student.ID,
		"lessons_added", req.LessonsAdded,
		"balance", balance,
	)
	return &PaymentResult{Payment: *payment, NewBalance: balance}, nil
}

// ListPayments returns the teacher's ledger, newest first.
func (s *BillingService) ListPayments(ctx context.Context, teacherID string) ([]models.StudentPayment, error) {
	payments, err := s.payments.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return payments, nil
}

// ExportLedgerCSV renders the teacher's ledger as CSV.
func (s *BillingService) ExportLedgerCSV(ctx context.Context, teacherID string) ([]byte, error) {
	payments, err := s.ListPayments(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	data := export.Dataset{
		Headers: []string{"date", "student_id", "amount", "lessons_added", "comment"},
		Rows:    make([]map[string]string, 0, len(payments)),
	}
	for _, p := range payments {
		comment := ""
		if p.Comment != nil {
			comment = *p.Comment
		}
		data.Rows = append(data.Rows, map[string]string{
			"date":          p.CreatedAt.Format(time.RFC3339),
			"student_id":    p.StudentID,
			"amount":        strconv.Itoa(p.Amount),
			"lessons_added": strconv.Itoa(p.LessonsAdded),
			"comment":       comment,
		})
	}
	rendered, err := s.exporter.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export ledger")
	}
	return rendered, nil
}

// ApplySubscription creates a pending subscription payment. The plan change
// itself happens only on confirmation.
func (s *BillingService) ApplySubscription(ctx context.Context, teacherID string) (*models.SaaSPayment, error) {
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	payment := &models.SaaSPayment{
		TeacherID:         teacherID,
		Amount:            s.cfg.SubscriptionAmount,
		Currency:          s.cfg.Currency,
		ProviderPaymentID: uuid.NewString(),
		Status:            models.SaaSPaymentPending,
	}
	if err := s.teachers.CreateSaaSPayment(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subscription payment")
	}
	return payment, nil
}

// ConfirmSubscription applies the plan upgrade for a confirmed payment.
// Replays of the same confirmation are conflicts and change nothing.
func (s *BillingService) ConfirmSubscription(ctx context.Context, req ConfirmSubscriptionRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid confirmation payload")
	}

	teacher, err := s.teachers.ConfirmSubscription(ctx, req.ProviderPaymentID, s.cfg.PeriodDays, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		case errors.Is(err, repository.ErrPaymentAlreadySettled):
			return nil, appErrors.Clone(appErrors.ErrConflict, "payment already confirmed")
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to confirm subscription")
		}
	}

	if s.notifier != nil {
		s.notifier.Notify(notify.Message{
			Kind:        notify.KindSubscriptionApplied,
			RecipientID: teacher.ExternalID,
			Text:        fmt.Sprintf("Subscription active until %s", teacher.SubscriptionEndDate.Format("2006-01-02")),
		})
	}
	s.logger.Sugar().Infow("subscription confirmed",
		"teacher_id", teacher.ID,
		"end_date", teacher.SubscriptionEndDate,
	)
	return teacher, nil
}

// SubscriptionInfo returns the plan, end date and quota usage for the menu.
func (s *BillingService) SubscriptionInfo(ctx context.Context, teacherID string) (*models.SubscriptionInfo, error) {
	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	studentCount, err := s.students.CountByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	groupCount, err := s.groups.CountByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count groups")
	}

	quota := models.QuotaFor(teacher.SubscriptionPlan)
	return &models.SubscriptionInfo{
		Plan:          teacher.SubscriptionPlan,
		EndDate:       teacher.SubscriptionEndDate,
		Active:        teacher.SubscriptionActive(time.Now().UTC()),
		StudentsUsed:  studentCount,
		StudentsLimit: quota.Students,
		GroupsUsed:    groupCount,
		GroupsLimit:   quota.Groups,
	}, nil
}
