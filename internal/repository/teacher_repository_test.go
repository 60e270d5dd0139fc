package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/bit-fotutors/classroom-api/internal/models"
)

func newTeacherRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTeacherRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newTeacherRepoMock(t)
	defer cleanup()

	repo := NewTeacherRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO teachers")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	teacher := &models.Teacher{ExternalID: "tg-100", Name: "Anna"}
	require.NoError(t, repo.Create(context.Background(), teacher))
	require.NotEmpty(t, teacher.ID)
	require.Equal(t, models.PlanFree, teacher.SubscriptionPlan)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryConfirmSubscription(t *testing.T) {
	db, mock, cleanup := newTeacherRepoMock(t)
	defer cleanup()

	repo := NewTeacherRepository(db)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 0, 10)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, teacher_id, amount")).
		WithArgs("prov-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "teacher_id", "amount", "currency", "provider_payment_id", "status", "created_at"}).
			AddRow("pay-1", "teacher-1", 1000, "RUB", "prov-1", models.SaaSPaymentPending, now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE saas_payments SET status")).
		WithArgs("pay-1", models.SaaSPaymentSucceeded).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, external_id, name")).
		WithArgs("teacher-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "external_id", "name", "subscription_plan", "subscription_end_date", "created_at"}).
			AddRow("teacher-1", "tg-100", "Anna", models.PlanPro, future, now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE teachers SET subscription_plan")).
		WithArgs("teacher-1", models.PlanPro, future.AddDate(0, 0, 30)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	teacher, err := repo.ConfirmSubscription(context.Background(), "prov-1", 30, now)
	require.NoError(t, err)
	require.Equal(t, models.PlanPro, teacher.SubscriptionPlan)
	// An active period stacks: the new end date extends the future one.
	require.Equal(t, future.AddDate(0, 0, 30), *teacher.SubscriptionEndDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryConfirmSubscriptionReplay(t *testing.T) {
	db, mock, cleanup := newTeacherRepoMock(t)
	defer cleanup()

	repo := NewTeacherRepository(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, teacher_id, amount")).
		WithArgs("prov-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "teacher_id", "amount", "currency", "provider_payment_id", "status", "created_at"}).
			AddRow("pay-1", "teacher-1", 1000, "RUB", "prov-1", models.SaaSPaymentSucceeded, now))
	mock.ExpectRollback()

	_, err := repo.ConfirmSubscription(context.Background(), "prov-1", 30, now)
	require.ErrorIs(t, err, ErrPaymentAlreadySettled)
	require.NoError(t, mock.ExpectationsWereMet())
}
