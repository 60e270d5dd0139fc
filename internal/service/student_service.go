package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bit-fotutors/classroom-api/internal/models"
	"github.com/bit-fotutors/classroom-api/internal/repository"
	appErrors "github.com/bit-fotutors/classroom-api/pkg/errors"
)

type studentRepository interface {
	CreateWithQuota(ctx context.Context, student *models.Student, limit int) error
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Student, error)
	CountByTeacher(ctx context.Context, teacherID string) (int, error)
	AttachExternalID(ctx context.Context, id, externalID string) error
}

type studentTeacherRepository interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// CreateStudentRequest holds payload for adding a student to the roster.
type CreateStudentRequest struct {
	Name           string  `json:"name" validate:"required"`
	ExternalID     *string `json:"external_id,omitempty"`
	PricePerLesson *int    `json:"price_per_lesson,omitempty" validate:"omitempty,gt=0"`
}

// AttachStudentRequest binds a messaging identity to an existing student.
type AttachStudentRequest struct {
	ExternalID string `json:"external_id" validate:"required"`
}

// StudentService handles roster use-cases for the teacher side.
type StudentService struct {
	repo      studentRepository
	teachers  studentTeacherRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, teachers studentTeacherRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, teachers: teachers, validator: validate, logger: logger}
}

// Create adds a student to the teacher's roster, enforcing the plan quota.
func (s *StudentService) Create(ctx context.Context, teacherID string, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	limit := models.LimitFor(teacher.SubscriptionPlan, models.ResourceStudents)
	student := &models.Student{
		TeacherID:      teacherID,
		Name:           req.Name,
		ExternalID:     req.ExternalID,
		PricePerLesson: req.PricePerLesson,
	}
	if err := s.repo.CreateWithQuota(ctx, student, limit); err != nil {
		if errors.Is(err, repository.ErrQuotaExceeded) {
			return nil, appErrors.Clone(appErrors.ErrLimitExceeded,
				fmt.Sprintf("plan %s allows at most %d students", teacher.SubscriptionPlan, limit))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.logger.Sugar().Infow("student created", "teacher_id", teacherID, "student_id", student.ID)
	return student, nil
}

// Attach binds a messaging identity to a student the teacher owns.
func (s *StudentService) Attach(ctx context.Context, teacherID, studentID string, req AttachStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attach payload")
	}

	student, err := s.getOwned(ctx, teacherID, studentID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.AttachExternalID(ctx, student.ID, req.ExternalID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to attach identity")
	}
	student.ExternalID = &req.ExternalID
	return student, nil
}

// List returns the teacher's roster with balances.
func (s *StudentService) List(ctx context.Context, teacherID string) ([]models.Student, error) {
	students, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Get returns one owned student.
func (s *StudentService) Get(ctx context.Context, teacherID, studentID string) (*models.Student, error) {
	return s.getOwned(ctx, teacherID, studentID)
}

func (s *StudentService) getOwned(ctx context.Context, teacherID, studentID string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := ensureOwner(student.TeacherID, teacherID, "student"); err != nil {
		return nil, err
	}
	return student, nil
}
