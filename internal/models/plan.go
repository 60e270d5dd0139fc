package models

// Resource names a quota-gated resource type.
type Resource string

const (
	ResourceStudents Resource = "students"
	ResourceGroups   Resource = "groups"
)

// PlanQuota bounds resource creation for a subscription plan.
type PlanQuota struct {
	Students int
	Groups   int
}

// planQuotas is the static plan table. An unrecognised plan resolves to a
// zero quota and blocks creation entirely.
var planQuotas = map[string]PlanQuota{
	PlanFree:    {Students: 3, Groups: 1},
	PlanPro:     {Students: 20, Groups: 5},
	PlanPremium: {Students: 100, Groups: 50},
}

// QuotaFor returns the quota row for the given plan.
func QuotaFor(plan string) PlanQuota {
	return planQuotas[plan]
}

// LimitFor returns the numeric limit of the resource under the plan.
func LimitFor(plan string, resource Resource) int {
	quota := QuotaFor(plan)
	switch resource {
	case ResourceStudents:
		return quota.Students
	case ResourceGroups:
		return quota.Groups
	default:
		return 0
	}
}

// ExceedsLimit reports whether creating one more resource of the given kind
// would violate the plan quota. count is the number already owned.
func ExceedsLimit(plan string, resource Resource, count int) bool {
	return count >= LimitFor(plan, resource)
}
