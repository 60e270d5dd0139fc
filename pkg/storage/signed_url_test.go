package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("sub-1", "submissions/a1/s1/work.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	submissionID, path, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "sub-1", submissionID)
	require.Equal(t, "submissions/a1/s1/work.pdf", path)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestSignedURLSignerTampered(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("sub-1", "submissions/a1/s1/work.pdf")
	require.NoError(t, err)

	_, _, _, err = NewSignedURLSigner("other", time.Hour).Parse(token, false)
	require.Error(t, err)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Millisecond*10)
	token, _, err := signer.Generate("sub-1", "submissions/a1/s1/work.pdf")
	require.NoError(t, err)
	time.Sleep(time.Millisecond * 20)

	_, _, _, err = signer.Parse(token, false)
	require.Error(t, err)

	submissionID, path, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "sub-1", submissionID)
	require.Equal(t, "submissions/a1/s1/work.pdf", path)
}
