package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bit-fotutors/classroom-api/internal/models"
	appErrors "github.com/bit-fotutors/classroom-api/pkg/errors"
	"github.com/bit-fotutors/classroom-api/pkg/export"
)

func newBillingFixture() (*BillingService, *fakeTeacherRepo, *fakePaymentRepo, *fakeStudentRepo, *fakeNotifier) {
	teachers := newFakeTeacherRepo(&models.Teacher{ID: "teacher-1", ExternalID: "tg-t1", SubscriptionPlan: models.PlanFree})
	students := newFakeStudentRepo(&models.Student{ID: "s1", TeacherID: "teacher-1", Name: "Boris", Balance: 3})
	payments := newFakePaymentRepo(map[string]int{"s1": 3})
	groups := newFakeGroupRepo(students)
	notifier := &fakeNotifier{}
	svc := NewBillingService(teachers, payments, students, groups, export.NewCSVExporter(), notifier,
		BillingConfig{SubscriptionAmount: 1000, Currency: "RUB", PeriodDays: 30}, nil, nil)
	return svc, teachers, payments, students, notifier
}

func TestBillingServiceRecordPayment(t *testing.T) {
	svc, _, payments, _, _ := newBillingFixture()

	result, err := svc.RecordPayment(context.Background(), "teacher-1", RecordPaymentRequest{
		StudentID:    "s1",
		Amount:       4000,
		LessonsAdded: 4,
	})
	require.NoError(t, err)
	require.Equal(t, 7, result.NewBalance)
	require.Len(t, payments.payments, 1)
}

func TestBillingServiceRecordPaymentForeignStudent(t *testing.T) {
	svc, _, payments, students, _ := newBillingFixture()
	students.students["s2"] = &models.Student{ID: "s2", TeacherID: "teacher-2", Name: "Other"}

	_, err := svc.RecordPayment(context.Background(), "teacher-1", RecordPaymentRequest{
		StudentID:    "s2",
		Amount:       1000,
		LessonsAdded: 1,
	})
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))
	require.Empty(t, payments.payments)
}

func TestBillingServiceSubscriptionFlow(t *testing.T) {
	svc, teachers, _, _, notifier := newBillingFixture()

	payment, err := svc.ApplySubscription(context.Background(), "teacher-1")
	require.NoError(t, err)
	require.Equal(t, models.SaaSPaymentPending, payment.Status)

	// The plan is untouched until the provider confirms.
	require.Equal(t, models.PlanFree, teachers.teachers["teacher-1"].SubscriptionPlan)

	teacher, err := svc.ConfirmSubscription(context.Background(), ConfirmSubscriptionRequest{
		ProviderPaymentID: payment.ProviderPaymentID,
	})
	require.NoError(t, err)
	require.Equal(t, models.PlanPro, teacher.SubscriptionPlan)
	require.WithinDuration(t, time.Now().UTC().AddDate(0, 0, 30), *teacher.SubscriptionEndDate, time.Minute)
	require.Len(t, notifier.sent(), 1)

	// Replaying the confirmation changes nothing.
	_, err = svc.ConfirmSubscription(context.Background(), ConfirmSubscriptionRequest{
		ProviderPaymentID: payment.ProviderPaymentID,
	})
	require.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestBillingServiceConfirmUnknownPayment(t *testing.T) {
	svc, _, _, _, _ := newBillingFixture()

	_, err := svc.ConfirmSubscription(context.Background(), ConfirmSubscriptionRequest{ProviderPaymentID: "nope"})
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestBillingServiceSubscriptionStacking(t *testing.T) {
	svc, teachers, _, _, _ := newBillingFixture()
	now := time.Now().UTC()
	future := now.AddDate(0, 0, 10)
	teachers.teachers["teacher-1"].SubscriptionPlan = models.PlanPro
	teachers.teachers["teacher-1"].SubscriptionEndDate = &future

	payment, err := svc.ApplySubscription(context.Background(), "teacher-1")
	require.NoError(t, err)
	teacher, err := svc.ConfirmSubscription(context.Background(), ConfirmSubscriptionRequest{
		ProviderPaymentID: payment.ProviderPaymentID,
	})
	require.NoError(t, err)
	// Ten remaining days plus the new thirty-day period.
	require.WithinDuration(t, now.AddDate(0, 0, 40), *teacher.SubscriptionEndDate, time.Minute)
}

func TestBillingServiceSubscriptionInfo(t *testing.T) {
	svc, _, _, _, _ := newBillingFixture()

	info, err := svc.SubscriptionInfo(context.Background(), "teacher-1")
	require.NoError(t, err)
	require.Equal(t, models.PlanFree, info.Plan)
	require.Equal(t, 1, info.StudentsUsed)
	require.Equal(t, 3, info.StudentsLimit)
	require.Equal(t, 1, info.GroupsLimit)
	require.False(t, info.Active)
}

func TestBillingServiceExportLedgerCSV(t *testing.T) {
	svc, _, _, _, _ := newBillingFixture()

	_, err := svc.RecordPayment(context.Background(), "teacher-1", RecordPaymentRequest{
		StudentID:    "s1",
		Amount:       4000,
		LessonsAdded: 4,
	})
	require.NoError(t, err)

	data, err := svc.ExportLedgerCSV(context.Background(), "teacher-1")
	require.NoError(t, err)
	require.Contains(t, string(data), "lessons_added")
	require.Contains(t, string(data), "4000")
}
