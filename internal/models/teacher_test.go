package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtendSubscription(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// No previous period: starts now.
	assert.Equal(t, now.AddDate(0, 0, 30), ExtendSubscription(nil, now, 30))

	// Expired period: starts now, the past end date is ignored.
	past := now.AddDate(0, 0, -5)
	assert.Equal(t, now.AddDate(0, 0, 30), ExtendSubscription(&past, now, 30))

	// Active period: the new period stacks onto the future end date.
	future := now.AddDate(0, 0, 10)
	assert.Equal(t, future.AddDate(0, 0, 30), ExtendSubscription(&future, now, 30))
}

func TestSubscriptionActive(t *testing.T) {
	now := time.Now().UTC()
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	teacher := &Teacher{SubscriptionPlan: PlanPro, SubscriptionEndDate: &future}
	assert.True(t, teacher.SubscriptionActive(now))

	teacher.SubscriptionEndDate = &past
	assert.False(t, teacher.SubscriptionActive(now))

	free := &Teacher{SubscriptionPlan: PlanFree}
	assert.False(t, free.SubscriptionActive(now))
}
