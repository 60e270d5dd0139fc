package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bit-fotutors/classroom-api/internal/models"
	appErrors "github.com/bit-fotutors/classroom-api/pkg/errors"
)

func newLessonFixture() (*LessonService, *fakeLessonRepo) {
	lessons := newFakeLessonRepo()
	students := newFakeStudentRepo(&models.Student{ID: "s1", TeacherID: "teacher-1", Name: "Boris"})
	groups := newFakeGroupRepo(students, &models.Group{ID: "g1", TeacherID: "teacher-2", Title: "Other"})
	return NewLessonService(lessons, students, groups, nil, nil), lessons
}

func TestLessonServiceSchedule(t *testing.T) {
	svc, _ := newLessonFixture()
	studentID := "s1"

	lesson, err := svc.Schedule(context.Background(), "teacher-1", ScheduleLessonRequest{
		Topic:     "Fractions",
		StartTime: time.Now().Add(24 * time.Hour),
		StudentID: &studentID,
	})
	require.NoError(t, err)
	require.NotEmpty(t, lesson.ID)
}

func TestLessonServiceScheduleBothTargets(t *testing.T) {
	svc, _ := newLessonFixture()
	studentID, groupID := "s1", "g1"

	_, err := svc.Schedule(context.Background(), "teacher-1", ScheduleLessonRequest{
		Topic:     "Fractions",
		StartTime: time.Now(),
		StudentID: &studentID,
		GroupID:   &groupID,
	})
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestLessonServiceScheduleForeignGroup(t *testing.T) {
	svc, _ := newLessonFixture()
	groupID := "g1"

	_, err := svc.Schedule(context.Background(), "teacher-1", ScheduleLessonRequest{
		Topic:     "Fractions",
		StartTime: time.Now(),
		GroupID:   &groupID,
	})
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestLessonServiceCancel(t *testing.T) {
	svc, lessons := newLessonFixture()
	lessons.lessons["l1"] = &models.Lesson{ID: "l1", TeacherID: "teacher-1", Topic: "X", StartTime: time.Now()}

	require.NoError(t, svc.Cancel(context.Background(), "teacher-1", "l1"))
	require.Empty(t, lessons.lessons)

	err := svc.Cancel(context.Background(), "teacher-1", "l1")
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
