package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeScorePercent(t *testing.T) {
	max := 80
	percent := ComputeScorePercent(60, &max)
	require.NotNil(t, percent)
	assert.Equal(t, 75, *percent)

	max = 3
	percent = ComputeScorePercent(2, &max)
	require.NotNil(t, percent)
	assert.Equal(t, 66, *percent) // floor, not round

	assert.Nil(t, ComputeScorePercent(60, nil))

	zero := 0
	assert.Nil(t, ComputeScorePercent(60, &zero))
}

func TestDisplayStatus(t *testing.T) {
	now := time.Now().UTC()
	deadline := now.Add(-time.Hour)

	sub := &HomeworkSubmission{Status: SubmissionAssigned}
	assert.Equal(t, SubmissionOverdue, sub.DisplayStatus(deadline, now))
	assert.Equal(t, SubmissionAssigned, sub.DisplayStatus(now.Add(time.Hour), now))

	// Submitted and graded rows never show as overdue.
	sub.Status = SubmissionSubmitted
	assert.Equal(t, SubmissionSubmitted, sub.DisplayStatus(deadline, now))
	sub.Status = SubmissionGraded
	assert.Equal(t, SubmissionGraded, sub.DisplayStatus(deadline, now))
}
