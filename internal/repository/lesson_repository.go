package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bit-fotutors/classroom-api/internal/models"
)

// LessonRepository manages scheduled lessons.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository constructs a LessonRepository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// Create inserts a lesson.
func (r *LessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO lessons (id, teacher_id, group_id, student_id, topic, start_time, created_at)
        VALUES (:id, :teacher_id, :group_id, :student_id, :topic, :start_time, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}
	return nil
}

// FindByID fetches a lesson by primary key.
func (r *LessonRepository) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	const query = `SELECT id, teacher_id, group_id, student_id, topic, start_time, created_at
        FROM lessons WHERE id = $1`
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// ListUpcoming returns the teacher's lessons starting at or after `from`,
// soonest first.
func (r *LessonRepository) ListUpcoming(ctx context.Context, teacherID string, from time.Time) ([]models.Lesson, error) {
	const query = `SELECT id, teacher_id, group_id, student_id, topic, start_time, created_at
        FROM lessons WHERE teacher_id = $1 AND start_time >= $2 ORDER BY start_time ASC`
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, teacherID, from); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}

// Delete cancels a lesson.
func (r *LessonRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
