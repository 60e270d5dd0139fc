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

// GroupRepository manages study groups and their membership.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs a GroupRepository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// CreateWithQuota inserts a group unless the teacher already holds `limit`
// groups, under the same row-lock scheme as student creation.
func (r *GroupRepository) CreateWithQuota(ctx context.Context, group *models.Group, limit int) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	if group.CreatedAt.IsZero() {
		group.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	var teacherID string
	if err := tx.GetContext(ctx, &teacherID, `SELECT id FROM teachers WHERE id = $1 FOR UPDATE`, group.TeacherID); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}

	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM groups WHERE teacher_id = $1`, group.TeacherID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("count groups: %w", err)
	}
	if count >= limit {
		tx.Rollback() //nolint:errcheck
		return ErrQuotaExceeded
	}

	const insert = `INSERT INTO groups (id, teacher_id, title, created_at)
        VALUES (:id, :teacher_id, :title, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insert, group); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create group: %w", err)
	}

	return tx.Commit()
}

// FindByID fetches a group by primary key.
func (r *GroupRepository) FindByID(ctx context.Context, id string) (*models.Group, error) {
	const query = `SELECT id, teacher_id, title, created_at FROM groups WHERE id = $1`
	var group models.Group
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// ListByTeacher returns the teacher's groups with member counts.
func (r *GroupRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.GroupDetail, error) {
	const query = `SELECT g.id, g.teacher_id, g.title, g.created_at,
            COUNT(gs.student_id) AS member_count
        FROM groups g
        LEFT JOIN group_students gs ON gs.group_id = g.id
        WHERE g.teacher_id = $1
        GROUP BY g.id
        ORDER BY g.title ASC`
	var groups []models.GroupDetail
	if err := r.db.SelectContext(ctx, &groups, query, teacherID); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// CountByTeacher returns how many groups the teacher owns.
func (r *GroupRepository) CountByTeacher(ctx context.Context, teacherID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM groups WHERE teacher_id = $1`, teacherID); err != nil {
		return 0, fmt.Errorf("count groups: %w", err)
	}
	return count, nil
}

// IsMember reports whether the student belongs to the group.
func (r *GroupRepository) IsMember(ctx context.Context, groupID, studentID string) (bool, error) {
	var one int
	err := r.db.GetContext(ctx, &one, `SELECT 1 FROM group_students WHERE group_id = $1 AND student_id = $2`, groupID, studentID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return true, nil
}

// AddMember enrols a student into a group.
func (r *GroupRepository) AddMember(ctx context.Context, groupID, studentID string) error {
	const query = `INSERT INTO group_students (id, group_id, student_id, joined_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), groupID, studentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// RemoveMember drops a student from a group. Existing assignment fan-outs
// are snapshots and stay untouched.
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, studentID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM group_students WHERE group_id = $1 AND student_id = $2`, groupID, studentID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
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

// ListMembers returns the group's current students ordered by name.
func (r *GroupRepository) ListMembers(ctx context.Context, groupID string) ([]models.Student, error) {
	const query = `SELECT s.id, s.external_id, s.teacher_id, s.name, s.balance, s.price_per_lesson, s.created_at
        FROM students s
        JOIN group_students gs ON gs.student_id = s.id
        WHERE gs.group_id = $1
        ORDER BY s.name ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, groupID); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return students, nil
}
