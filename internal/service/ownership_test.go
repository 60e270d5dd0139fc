package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	appErrors "github.com/bit-fotutors/classroom-api/pkg/errors"
)

func TestEnsureOwner(t *testing.T) {
	require.NoError(t, ensureOwner("teacher-1", "teacher-1", "student"))

	err := ensureOwner("teacher-1", "teacher-2", "student")
	require.Error(t, err)
	require.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}
