package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuotaFor(t *testing.T) {
	assert.Equal(t, PlanQuota{Students: 3, Groups: 1}, QuotaFor(PlanFree))
	assert.Equal(t, PlanQuota{Students: 20, Groups: 5}, QuotaFor(PlanPro))
	assert.Equal(t, PlanQuota{Students: 100, Groups: 50}, QuotaFor(PlanPremium))
	assert.Equal(t, PlanQuota{}, QuotaFor("TRIAL"))
}

func TestExceedsLimit(t *testing.T) {
	assert.False(t, ExceedsLimit(PlanFree, ResourceStudents, 2))
	assert.True(t, ExceedsLimit(PlanFree, ResourceStudents, 3))
	assert.True(t, ExceedsLimit(PlanFree, ResourceStudents, 4))

	assert.False(t, ExceedsLimit(PlanFree, ResourceGroups, 0))
	assert.True(t, ExceedsLimit(PlanFree, ResourceGroups, 1))

	assert.False(t, ExceedsLimit(PlanPro, ResourceStudents, 19))
	assert.True(t, ExceedsLimit(PlanPro, ResourceStudents, 20))

	// Unknown plans are fully blocked.
	assert.True(t, ExceedsLimit("TRIAL", ResourceStudents, 0))
	assert.True(t, ExceedsLimit("", ResourceGroups, 0))
}
