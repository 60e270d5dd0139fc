package models

import "time"

// Subscription plans a teacher account can hold.
const (
	PlanFree    = "FREE"
	PlanPro     = "PRO"
	PlanPremium = "PREMIUM"
)

// Teacher owns students, groups, homeworks and lessons. The external ID is
// the identity assigned by the messaging platform.
type Teacher struct {
	ID                  string     `db:"id" json:"id"`
	ExternalID          string     `db:"external_id" json:"external_id"`
	Name                string     `db:"name" json:"name"`
	SubscriptionPlan    string     `db:"subscription_plan" json:"subscription_plan"`
	SubscriptionEndDate *time.Time `db:"subscription_end_date" json:"subscription_end_date,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
}

// SubscriptionActive reports whether a paid plan is still in effect at now.
// A nil end date means the unlimited FREE tier.
func (t *Teacher) SubscriptionActive(now time.Time) bool {
	if t.SubscriptionPlan == PlanFree || t.SubscriptionPlan == "" {
		return false
	}
	if t.SubscriptionEndDate == nil {
		return false
	}
	return t.SubscriptionEndDate.After(now)
}

// ExtendSubscription returns the end date after applying one paid period.
// A period purchased before the current one expires stacks onto the future
// end date; otherwise the period starts at now.
func ExtendSubscription(current *time.Time, now time.Time, periodDays int) time.Time {
	base := now
	if current != nil && current.After(now) {
		base = *current
	}
	return base.AddDate(0, 0, periodDays)
}

// SubscriptionInfo summarises the billing state for the subscription menu.
type SubscriptionInfo struct {
	Plan          string     `json:"plan"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	Active        bool       `json:"active"`
	StudentsUsed  int        `json:"students_used"`
	StudentsLimit int        `json:"students_limit"`
	GroupsUsed    int        `json:"groups_used"`
	GroupsLimit   int        `json:"groups_limit"`
}
