package models

import "time"

// Student is owned by exactly one teacher. The external messaging identity
// may be attached after creation, once the student actually joins the bot.
type Student struct {
	ID             string    `db:"id" json:"id"`
	ExternalID     *string   `db:"external_id" json:"external_id,omitempty"`
	TeacherID      string    `db:"teacher_id" json:"teacher_id"`
	Name           string    `db:"name" json:"name"`
	Balance        int       `db:"balance" json:"balance"`
	PricePerLesson *int      `db:"price_per_lesson" json:"price_per_lesson,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
