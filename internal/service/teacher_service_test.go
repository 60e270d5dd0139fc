package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bit-fotutors/classroom-api/internal/models"
	appErrors "github.com/bit-fotutors/classroom-api/pkg/errors"
)

func TestTeacherServiceRegister(t *testing.T) {
	repo := newFakeTeacherRepo()
	svc := NewTeacherService(repo, nil, nil)

	teacher, err := svc.Register(context.Background(), RegisterTeacherRequest{ExternalID: "tg-1", Name: "Anna"})
	require.NoError(t, err)
	require.Equal(t, models.PlanFree, teacher.SubscriptionPlan)

	_, err = svc.Register(context.Background(), RegisterTeacherRequest{ExternalID: "tg-1", Name: "Else"})
	require.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestTeacherServiceRegisterValidation(t *testing.T) {
	svc := NewTeacherService(newFakeTeacherRepo(), nil, nil)

	_, err := svc.Register(context.Background(), RegisterTeacherRequest{Name: "Anna"})
	require.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
