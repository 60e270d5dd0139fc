package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bit-fotutors/classroom-api/internal/models"
	appErrors "github.com/bit-fotutors/classroom-api/pkg/errors"
)

func TestStudentServiceCreateWithinQuota(t *testing.T) {
	teachers := newFakeTeacherRepo(&models.Teacher{ID: "teacher-1", SubscriptionPlan: models.PlanFree})
	students := newFakeStudentRepo()
	svc := NewStudentService(students, teachers, nil, nil)

	student, err := svc.Create(context.Background(), "teacher-1", CreateStudentRequest{Name: "Boris"})
	require.NoError(t, err)
	require.NotEmpty(t, student.ID)
	require.Equal(t, "teacher-1", student.TeacherID)
}

func TestStudentServiceCreateBlockedByPlan(t *testing.T) {
	teachers := newFakeTeacherRepo(&models.Teacher{ID: "teacher-1", SubscriptionPlan: models.PlanFree})
	students := newFakeStudentRepo(
		&models.Student{ID: "s1", TeacherID: "teacher-1", Name: "A"},
		&models.Student{ID: "s2", TeacherID: "teacher-1", Name: "B"},
		&models.Student{ID: "s3", TeacherID: "teacher-1", Name: "C"},
	)
	svc := NewStudentService(students, teachers, nil, nil)

	// The FREE plan caps at three students: the fourth is refused and no
	// row is created.
	_, err := svc.Create(context.Background(), "teacher-1", CreateStudentRequest{Name: "D"})
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrLimitExceeded))
	count, _ := students.CountByTeacher(context.Background(), "teacher-1")
	require.Equal(t, 3, count)
}

func TestStudentServiceAttachForeignStudent(t *testing.T) {
	teachers := newFakeTeacherRepo(
		&models.Teacher{ID: "teacher-1", SubscriptionPlan: models.PlanFree},
		&models.Teacher{ID: "teacher-2", SubscriptionPlan: models.PlanFree},
	)
	students := newFakeStudentRepo(&models.Student{ID: "s1", TeacherID: "teacher-2", Name: "A"})
	svc := NewStudentService(students, teachers, nil, nil)

	_, err := svc.Attach(context.Background(), "teacher-1", "s1", AttachStudentRequest{ExternalID: "tg-5"})
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestStudentServiceGetNotFound(t *testing.T) {
	teachers := newFakeTeacherRepo(&models.Teacher{ID: "teacher-1", SubscriptionPlan: models.PlanFree})
	svc := NewStudentService(newFakeStudentRepo(), teachers, nil, nil)

	_, err := svc.Get(context.Background(), "teacher-1", "missing")
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
