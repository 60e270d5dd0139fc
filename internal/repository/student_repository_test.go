package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/bit-fotutors/classroom-api/internal/models"
)

func newStudentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestStudentRepositoryCreateWithQuota(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM teachers WHERE id")).
		WithArgs("teacher-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("teacher-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students")).
		WithArgs("teacher-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO students")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	student := &models.Student{TeacherID: "teacher-1", Name: "Boris"}
	require.NoError(t, repo.CreateWithQuota(context.Background(), student, 3))
	require.NotEmpty(t, student.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreateWithQuotaRefused(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM teachers WHERE id")).
		WithArgs("teacher-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("teacher-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students")).
		WithArgs("teacher-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectRollback()

	student := &models.Student{TeacherID: "teacher-1", Name: "Boris"}
	err := repo.CreateWithQuota(context.Background(), student, 3)
	require.ErrorIs(t, err, ErrQuotaExceeded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryAttachExternalID(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET external_id")).
		WithArgs("student-1", "tg-200").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.AttachExternalID(context.Background(), "student-1", "tg-200"))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET external_id")).
		WithArgs("missing", "tg-200").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.Error(t, repo.AttachExternalID(context.Background(), "missing", "tg-200"))
	require.NoError(t, mock.ExpectationsWereMet())
}
