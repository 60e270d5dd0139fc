package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bit-fotutors/classroom-api/internal/models"
)

// HomeworkRepository manages homework templates and the teacher's library.
type HomeworkRepository struct {
	db *sqlx.DB
}

// NewHomeworkRepository constructs a HomeworkRepository.
func NewHomeworkRepository(db *sqlx.DB) *HomeworkRepository {
	return &HomeworkRepository{db: db}
}

// Create inserts a homework template.
func (r *HomeworkRepository) Create(ctx context.Context, homework *models.Homework) error {
	if homework.ID == "" {
		homework.ID = uuid.NewString()
	}
	if homework.GradingType == "" {
		homework.GradingType = models.GradingTypePoints
	}
	if homework.CreatedAt.IsZero() {
		homework.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO homeworks (id, teacher_id, title, content, max_score, grading_type, saved_in_library, created_at)
        VALUES (:id, :teacher_id, :title, :content, :max_score, :grading_type, :saved_in_library, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, homework); err != nil {
		return fmt.Errorf("create homework: %w", err)
	}
	return nil
}

// FindByID fetches a homework template by primary key.
func (r *HomeworkRepository) FindByID(ctx context.Context, id string) (*models.Homework, error) {
	const query = `SELECT id, teacher_id, title, content, max_score, grading_type, saved_in_library, created_at
        FROM homeworks WHERE id = $1`
	var homework models.Homework
	if err := r.db.GetContext(ctx, &homework, query, id); err != nil {
		return nil, err
	}
	return &homework, nil
}

// ListByTeacher returns the teacher's homeworks, newest first. With
// libraryOnly set, only templates saved for reuse come back.
func (r *HomeworkRepository) ListByTeacher(ctx context.Context, teacherID string, libraryOnly bool) ([]models.Homework, error) {
	query := `SELECT id, teacher_id, title, content, max_score, grading_type, saved_in_library, created_at
        FROM homeworks WHERE teacher_id = $1`
	if libraryOnly {
		query += ` AND saved_in_library = TRUE`
	}
	query += ` ORDER BY created_at DESC`

	var homeworks []models.Homework
	if err := r.db.SelectContext(ctx, &homeworks, query, teacherID); err != nil {
		return nil, fmt.Errorf("list homeworks: %w", err)
	}
	return homeworks, nil
}
