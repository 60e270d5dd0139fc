package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bit-fotutors/classroom-api/internal/models"
	appErrors "github.com/bit-fotutors/classroom-api/pkg/errors"
)

func newAuthFixture() *AuthService {
	teachers := newFakeTeacherRepo(&models.Teacher{ID: "teacher-1", ExternalID: "tg-t1", Name: "Anna"})
	ext := "tg-s1"
	students := newFakeStudentRepo(&models.Student{ID: "s1", TeacherID: "teacher-1", ExternalID: &ext, Name: "Boris"})
	parents := newFakeParentRepo(&models.Parent{ID: "p1", ExternalID: "tg-p1", Name: "Olga"})
	return NewAuthService(teachers, students, parents, AuthConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "classroom-api",
	}, nil, nil)
}

func TestAuthServiceIssueAndValidate(t *testing.T) {
	svc := newAuthFixture()

	token, err := svc.IssueToken(context.Background(), models.TokenRequest{Role: models.RoleTeacher, ExternalID: "tg-t1"})
	require.NoError(t, err)
	require.Equal(t, "teacher-1", token.ActorID)

	claims, err := svc.ValidateToken(token.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "teacher-1", claims.ActorID)
	require.Equal(t, models.RoleTeacher, claims.Role)
}

func TestAuthServiceIssueForEachRole(t *testing.T) {
	svc := newAuthFixture()

	student, err := svc.IssueToken(context.Background(), models.TokenRequest{Role: models.RoleStudent, ExternalID: "tg-s1"})
	require.NoError(t, err)
	require.Equal(t, "s1", student.ActorID)

	parent, err := svc.IssueToken(context.Background(), models.TokenRequest{Role: models.RoleParent, ExternalID: "tg-p1"})
	require.NoError(t, err)
	require.Equal(t, "p1", parent.ActorID)
}

func TestAuthServiceUnknownIdentity(t *testing.T) {
	svc := newAuthFixture()

	_, err := svc.IssueToken(context.Background(), models.TokenRequest{Role: models.RoleTeacher, ExternalID: "tg-nobody"})
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestAuthServiceInvalidToken(t *testing.T) {
	svc := newAuthFixture()

	_, err := svc.ValidateToken("not-a-token")
	require.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}
