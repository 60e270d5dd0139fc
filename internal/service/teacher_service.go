package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bit-fotutors/classroom-api/internal/models"
	appErrors "github.com/bit-fotutors/classroom-api/pkg/errors"
)

type teacherRepository interface {
	Create(ctx context.Context, teacher *models.Teacher) error
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.Teacher, error)
}

// RegisterTeacherRequest holds payload for teacher registration.
type RegisterTeacherRequest struct {
	ExternalID string `json:"external_id" validate:"required"`
	Name       string `json:"name" validate:"required"`
}

// TeacherService handles teacher account use-cases.
type TeacherService struct {
	repo      teacherRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs the teacher service.
func NewTeacherService(repo teacherRepository, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, validator: validate, logger: logger}
}

// Register creates a teacher account on the FREE plan.
func (s *TeacherService) Register(ctx context.Context, req RegisterTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	if _, err := s.repo.FindByExternalID(ctx, req.ExternalID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "identity already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check identity")
	}

	teacher := &models.Teacher{
		ExternalID:       req.ExternalID,
		Name:             req.Name,
		SubscriptionPlan: models.PlanFree,
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	s.logger.Sugar().Infow("teacher registered", "teacher_id", teacher.ID)
	return teacher, nil
}

// Get returns a teacher by id.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}
