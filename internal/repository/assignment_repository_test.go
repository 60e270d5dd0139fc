package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/bit-fotutors/classroom-api/internal/models"
)

func newAssignmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAssignmentRepositoryCreateWithSubmissions(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	students := []string{"student-1", "student-2", "student-3"}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO homework_assignments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	for range students {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO homework_submissions")).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	assignment := &models.HomeworkAssignment{
		HomeworkID:     "hw-1",
		AssignedToType: models.TargetGroup,
		AssignedToID:   "group-1",
		Deadline:       time.Now().Add(72 * time.Hour),
	}
	require.NoError(t, repo.CreateWithSubmissions(context.Background(), assignment, students))
	require.NotEmpty(t, assignment.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryFanOutRollsBack(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO homework_assignments")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO homework_submissions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO homework_submissions")).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	assignment := &models.HomeworkAssignment{
		HomeworkID:     "hw-1",
		AssignedToType: models.TargetGroup,
		AssignedToID:   "group-1",
		Deadline:       time.Now().Add(72 * time.Hour),
	}
	err := repo.CreateWithSubmissions(context.Background(), assignment, []string{"student-1", "student-2"})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryStatusBoard(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	rows := sqlmock.NewRows([]string{"submission_id", "student_id", "student_name", "status", "score_value", "score_percent", "submitted_at"}).
		AddRow("sub-1", "student-1", "Boris", models.SubmissionGraded, 8, 80, time.Now()).
		AddRow("sub-2", "student-2", "Vera", models.SubmissionAssigned, nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT s.id AS submission_id")).
		WithArgs("assignment-1").
		WillReturnRows(rows)

	board, err := repo.StatusBoard(context.Background(), "assignment-1")
	require.NoError(t, err)
	require.Len(t, board, 2)
	require.Equal(t, "Boris", board[0].StudentName)
	require.NoError(t, mock.ExpectationsWereMet())
}
