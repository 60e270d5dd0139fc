package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bit-fotutors/classroom-api/internal/models"
)

// ParentRepository manages parent accounts and their child links.
type ParentRepository struct {
	db *sqlx.DB
}

// NewParentRepository constructs a ParentRepository.
func NewParentRepository(db *sqlx.DB) *ParentRepository {
	return &ParentRepository{db: db}
}

// Create inserts a parent account.
func (r *ParentRepository) Create(ctx context.Context, parent *models.Parent) error {
	if parent.ID == "" {
		parent.ID = uuid.NewString()
	}
	if parent.CreatedAt.IsZero() {
		parent.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO parents (id, external_id, name, created_at)
        VALUES (:id, :external_id, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, parent); err != nil {
		return fmt.Errorf("create parent: %w", err)
	}
	return nil
}

// FindByID fetches a parent by primary key.
func (r *ParentRepository) FindByID(ctx context.Context, id string) (*models.Parent, error) {
	const query = `SELECT id, external_id, name, created_at FROM parents WHERE id = $1`
	var parent models.Parent
	if err := r.db.GetContext(ctx, &parent, query, id); err != nil {
		return nil, err
	}
	return &parent, nil
}

// FindByExternalID fetches a parent by messaging identity.
func (r *ParentRepository) FindByExternalID(ctx context.Context, externalID string) (*models.Parent, error) {
	const query = `SELECT id, external_id, name, created_at FROM parents WHERE external_id = $1`
	var parent models.Parent
	if err := r.db.GetContext(ctx, &parent, query, externalID); err != nil {
		return nil, err
	}
	return &parent, nil
}

// LinkExists reports whether the parent is already linked to the student.
func (r *ParentRepository) LinkExists(ctx context.Context, parentID, studentID string) (bool, error) {
	var one int
	err := r.db.GetContext(ctx, &one, `SELECT 1 FROM parent_students WHERE parent_id = $1 AND student_id = $2`, parentID, studentID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check parent link: %w", err)
	}
	return true, nil
}

// CreateLink binds a parent to a student.
func (r *ParentRepository) CreateLink(ctx context.Context, parentID, studentID string) error {
	const query = `INSERT INTO parent_students (id, parent_id, student_id, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), parentID, studentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("create parent link: %w", err)
	}
	return nil
}

// ListChildren returns the parent's linked students with teacher context.
func (r *ParentRepository) ListChildren(ctx context.Context, parentID string) ([]models.ChildOverview, error) {
	const query = `SELECT s.id AS student_id, s.name, s.balance, t.name AS teacher_name
        FROM parent_students ps
        JOIN students s ON s.id = ps.student_id
        JOIN teachers t ON t.id = s.teacher_id
        WHERE ps.parent_id = $1
        ORDER BY s.name ASC`
	var children []models.ChildOverview
	if err := r.db.SelectContext(ctx, &children, query, parentID); err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return children, nil
}
