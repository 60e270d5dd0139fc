package models

import "time"

// StudentPayment is an immutable ledger entry. Applying one increments the
// student's lesson balance in the same transaction; nothing else writes the
// balance.
type StudentPayment struct {
	ID           string    `db:"id" json:"id"`
	TeacherID    string    `db:"teacher_id" json:"teacher_id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	Amount       int       `db:"amount" json:"amount"`
	LessonsAdded int       `db:"lessons_added" json:"lessons_added"`
	Comment      *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// SaaS payment statuses.
const (
	SaaSPaymentPending   = "pending"
	SaaSPaymentSucceeded = "succeeded"
	SaaSPaymentCanceled  = "canceled"
)

// SaaSPayment records one subscription purchase attempt by a teacher. The
// plan upgrade is applied only when the payment is confirmed.
type SaaSPayment struct {
	ID                string    `db:"id" json:"id"`
	TeacherID         string    `db:"teacher_id" json:"teacher_id"`
	Amount            int       `db:"amount" json:"amount"`
	Currency          string    `db:"currency" json:"currency"`
	ProviderPaymentID string    `db:"provider_payment_id" json:"provider_payment_id"`
	Status            string    `db:"status" json:"status"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}
