package models

import "time"

// GradingTypePoints is the only grading mode currently supported; the column
// exists so alternative scales can be added without a migration.
const GradingTypePoints = "points"

// Homework is a reusable template authored by a teacher. Treat edits after
// grading has started as undefined behaviour.
type Homework struct {
	ID             string    `db:"id" json:"id"`
	TeacherID      string    `db:"teacher_id" json:"teacher_id"`
	Title          string    `db:"title" json:"title"`
	Content        *string   `db:"content" json:"content,omitempty"`
	MaxScore       *int      `db:"max_score" json:"max_score,omitempty"`
	GradingType    string    `db:"grading_type" json:"grading_type"`
	SavedInLibrary bool      `db:"saved_in_library" json:"saved_in_library"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
