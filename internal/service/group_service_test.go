package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bit-fotutors/classroom-api/internal/models"
	appErrors "github.com/bit-fotutors/classroom-api/pkg/errors"
)

func TestGroupServiceCreateBlockedByPlan(t *testing.T) {
	teachers := newFakeTeacherRepo(&models.Teacher{ID: "teacher-1", SubscriptionPlan: models.PlanFree})
	students := newFakeStudentRepo()
	groups := newFakeGroupRepo(students, &models.Group{ID: "g1", TeacherID: "teacher-1", Title: "Existing"})
	svc := NewGroupService(groups, students, teachers, nil, nil)

	// FREE allows a single group.
	_, err := svc.Create(context.Background(), "teacher-1", CreateGroupRequest{Title: "Second"})
	require.True(t, appErrors.Is(err, appErrors.ErrLimitExceeded))
}

func TestGroupServiceAddMemberDuplicate(t *testing.T) {
	teachers := newFakeTeacherRepo(&models.Teacher{ID: "teacher-1", SubscriptionPlan: models.PlanPro})
	students := newFakeStudentRepo(&models.Student{ID: "s1", TeacherID: "teacher-1", Name: "A"})
	groups := newFakeGroupRepo(students, &models.Group{ID: "g1", TeacherID: "teacher-1", Title: "Math"})
	svc := NewGroupService(groups, students, teachers, nil, nil)

	require.NoError(t, svc.AddMember(context.Background(), "teacher-1", "g1", "s1"))

	err := svc.AddMember(context.Background(), "teacher-1", "g1", "s1")
	require.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestGroupServiceAddForeignStudent(t *testing.T) {
	teachers := newFakeTeacherRepo(&models.Teacher{ID: "teacher-1", SubscriptionPlan: models.PlanPro})
	students := newFakeStudentRepo(&models.Student{ID: "s1", TeacherID: "teacher-2", Name: "A"})
	groups := newFakeGroupRepo(students, &models.Group{ID: "g1", TeacherID: "teacher-1", Title: "Math"})
	svc := NewGroupService(groups, students, teachers, nil, nil)

	err := svc.AddMember(context.Background(), "teacher-1", "g1", "s1")
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestGroupServiceRemoveMemberNotInGroup(t *testing.T) {
	teachers := newFakeTeacherRepo(&models.Teacher{ID: "teacher-1", SubscriptionPlan: models.PlanPro})
	students := newFakeStudentRepo(&models.Student{ID: "s1", TeacherID: "teacher-1", Name: "A"})
	groups := newFakeGroupRepo(students, &models.Group{ID: "g1", TeacherID: "teacher-1", Title: "Math"})
	svc := NewGroupService(groups, students, teachers, nil, nil)

	err := svc.RemoveMember(context.Background(), "teacher-1", "g1", "s1")
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
