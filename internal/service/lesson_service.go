package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bit-fotutors/classroom-api/internal/models"
	appErrors "github.com/bit-fotutors/classroom-api/pkg/errors"
)

type lessonRepository interface {
	Create(ctx context.Context, lesson *models.Lesson) error
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	ListUpcoming(ctx context.Context, teacherID string, from time.Time) ([]models.Lesson, error)
	Delete(ctx context.Context, id string) error
}

type lessonStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type lessonGroupRepository interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
}

// ScheduleLessonRequest holds payload for scheduling a lesson. Exactly one
// of group_id / student_id may be set; neither means a personal slot.
type ScheduleLessonRequest struct {
	Topic     string    `json:"topic" validate:"required"`
	StartTime time.Time `json:"start_time" validate:"required"`
	GroupID   *string   `json:"group_id,omitempty"`
	StudentID *string   `json:"student_id,omitempty"`
}

// LessonService handles lesson scheduling.
type LessonService struct {
	repo      lessonRepository
	students  lessonStudentRepository
	groups    lessonGroupRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLessonService constructs the lesson service.
func NewLessonService(repo lessonRepository, students lessonStudentRepository, groups lessonGroupRepository, validate *validator.Validate, logger *zap.Logger) *LessonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonService{repo: repo, students: students, groups: groups, validator: validate, logger: logger}
}

// Schedule creates a lesson for an owned group or student.
func (s *LessonService) Schedule(ctx context.Context, teacherID string, req ScheduleLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	if req.GroupID != nil && req.StudentID != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lesson targets either a group or a student, not both")
	}

	if req.StudentID != nil {
		student, err := s.students.FindByID(ctx, *req.StudentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}
		if err := ensureOwner(student.TeacherID, teacherID, "student"); err != nil {
			return nil, err
		}
	}
	if req.GroupID != nil {
		group, err := s.groups.FindByID(ctx, *req.GroupID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
		}
		if err := ensureOwner(group.TeacherID, teacherID, "group"); err != nil {
			return nil, err
		}
	}

	lesson := &models.Lesson{
		TeacherID: teacherID,
		GroupID:   req.GroupID,
		StudentID: req.StudentID,
		Topic:     req.Topic,
		StartTime: req.StartTime.UTC(),
	}
	if err := s.repo.Create(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule lesson")
	}
	return lesson, nil
}

// Upcoming returns the teacher's lessons from now on, soonest first.
func (s *LessonService) Upcoming(ctx context.Context, teacherID string) ([]models.Lesson, error) {
	lessons, err := s.repo.ListUpcoming(ctx, teacherID, time.Now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}
	return lessons, nil
}

// Cancel deletes an owned lesson.
func (s *LessonService) Cancel(ctx context.Context, teacherID, lessonID string) error {
	lesson, err := s.repo.FindByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	if err := ensureOwner(lesson.TeacherID, teacherID, "lesson"); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, lesson.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel lesson")
	}
	return nil
}
