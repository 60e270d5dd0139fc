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

type homeworkRepository interface {
	Create(ctx context.Context, homework *models.Homework) error
	FindByID(ctx context.Context, id string) (*models.Homework, error)
	ListByTeacher(ctx context.Context, teacherID string, libraryOnly bool) ([]models.Homework, error)
}

// CreateHomeworkRequest holds payload for authoring a homework template.
type CreateHomeworkRequest struct {
	Title         string  `json:"title" validate:"required"`
	Content       *string `json:"content,omitempty"`
	MaxScore      *int    `json:"max_score,omitempty" validate:"omitempty,gt=0"`
	SaveToLibrary bool    `json:"save_to_library"`
}

// HomeworkService handles the homework catalog.
type HomeworkService struct {
	repo      homeworkRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHomeworkService constructs the homework service.
func NewHomeworkService(repo homeworkRepository, validate *validator.Validate, logger *zap.Logger) *HomeworkService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HomeworkService{repo: repo, validator: validate, logger: logger}
}

// Create authors a homework template.
func (s *HomeworkService) Create(ctx context.Context, teacherID string, req CreateHomeworkRequest) (*models.Homework, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid homework payload")
	}

	homework := &models.Homework{
		TeacherID:      teacherID,
		Title:          req.Title,
		Content:        req.Content,
		MaxScore:       req.MaxScore,
		GradingType:    models.GradingTypePoints,
		SavedInLibrary: req.SaveToLibrary,
	}
	if err := s.repo.Create(ctx, homework); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create homework")
	}
	return homework, nil
}

// Get returns one owned homework.
func (s *HomeworkService) Get(ctx context.Context, teacherID, homeworkID string) (*models.Homework, error) {
	homework, err := s.repo.FindByID(ctx, homeworkID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "homework not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load homework")
	}
	if err := ensureOwner(homework.TeacherID, teacherID, "homework"); err != nil {
		return nil, err
	}
	return homework, nil
}

// List returns the teacher's homeworks, optionally only library templates.
func (s *HomeworkService) List(ctx context.Context, teacherID string, libraryOnly bool) ([]models.Homework, error) {
	homeworks, err := s.repo.ListByTeacher(ctx, teacherID, libraryOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list homeworks")
	}
	return homeworks, nil
}
