package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bit-fotutors/classroom-api/internal/models"
	appErrors "github.com/bit-fotutors/classroom-api/pkg/errors"
	"github.com/bit-fotutors/classroom-api/pkg/export"
)

type parentRepository interface {
	Create(ctx context.Context, parent *models.Parent) error
	FindByExternalID(ctx context.Context, externalID string) (*models.Parent, error)
	LinkExists(ctx context.Context, parentID, studentID string) (bool, error)
	CreateLink(ctx context.Context, parentID, studentID string) error
	ListChildren(ctx context.Context, parentID string) ([]models.ChildOverview, error)
}

type parentStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type parentSubmissionRepository interface {
	ListRecentGraded(ctx context.Context, studentID string, limit int) ([]models.GradedEntry, error)
}

type parentReportCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type reportPDFExporter interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ReportsConfig tunes the parent report.
type ReportsConfig struct {
	CacheTTL   time.Duration
	RecentSize int
}

// RegisterParentRequest holds payload for parent registration.
type RegisterParentRequest struct {
	ExternalID string `json:"external_id" validate:"required"`
	Name       string `json:"name" validate:"required"`
}

// LinkChildRequest binds a parent to a student.
type LinkChildRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}

// ParentService handles the parent-facing read surface.
type ParentService struct {
	repo        parentRepository
	students    parentStudentRepository
	submissions parentSubmissionRepository
	cache       parentReportCache
	pdf         reportPDFExporter
	cfg         ReportsConfig
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewParentService constructs the parent service.
func NewParentService(
	repo parentRepository,
	students parentStudentRepository,
	submissions parentSubmissionRepository,
	cache parentReportCache,
	pdf reportPDFExporter,
	cfg ReportsConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *ParentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RecentSize <= 0 {
		cfg.RecentSize = 5
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &ParentService{
		repo:        repo,
		students:    students,
		submissions: submissions,
		cache:       cache,
		pdf:         pdf,
		cfg:         cfg,
		validator:   validate,
		logger:      logger,
	}
}

// Register creates a parent account.
func (s *ParentService) Register(ctx context.Context, req RegisterParentRequest) (*models.Parent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid parent payload")
	}

	if _, err := s.repo.FindByExternalID(ctx, req.ExternalID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "identity already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check identity")
	}

	parent := &models.Parent{ExternalID: req.ExternalID, Name: req.Name}
	if err := s.repo.Create(ctx, parent); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create parent")
	}
	return parent, nil
}

// LinkChild binds the parent to a student. Duplicate links are conflicts.
func (s *ParentService) LinkChild(ctx context.Context, parentID string, req LinkChildRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid link payload")
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	exists, err := s.repo.LinkExists(ctx, parentID, req.StudentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check link")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "child already linked")
	}

	if err := s.repo.CreateLink(ctx, parentID, req.StudentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link child")
	}
	return nil
}

// Children returns the parent's linked students with balances.
func (s *ParentService) Children(ctx context.Context, parentID string) ([]models.ChildOverview, error) {
	children, err := s.repo.ListChildren(ctx, parentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list children")
	}
	return children, nil
}

// Report returns the recently graded work per linked child. Cached briefly,
// keyed per student so grading invalidates precisely.
func (s *ParentService) Report(ctx context.Context, parentID string) ([]models.ChildReport, error) {
	children, err := s.Children(ctx, parentID)
	if err != nil {
		return nil, err
	}

	reports := make([]models.ChildReport, 0, len(children))
	for _, child := range children {
		report := models.ChildReport{StudentID: child.StudentID, Name: child.Name}
		key := fmt.Sprintf("report:student:%s:recent:%d", child.StudentID, s.cfg.RecentSize)

		var cached []models.GradedEntry
		if s.cache != nil && s.cache.Get(ctx, key, &cached) == nil {
			report.Graded = cached
			reports = append(reports, report)
			continue
		}

		graded, err := s.submissions.ListRecentGraded(ctx, child.StudentID, s.cfg.RecentSize)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load graded work")
		}
		report.Graded = graded
		if s.cache != nil {
			if err := s.cache.Set(ctx, key, graded, s.cfg.CacheTTL); err != nil {
				s.logger.Sugar().Warnw("failed to cache report", "student_id", child.StudentID, "error", err)
			}
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// ReportPDF renders the progress report as a PDF document.
func (s *ParentService) ReportPDF(ctx context.Context, parentID string) ([]byte, error) {
	reports, err := s.Report(ctx, parentID)
	if err != nil {
		return nil, err
	}

	data := export.Dataset{
		Headers: []string{"child", "homework", "score", "percent", "comment"},
		Rows:    make([]map[string]string, 0),
	}
	for _, report := range reports {
		for _, entry := range report.Graded {
			score := ""
			if entry.ScoreValue != nil {
				score = strconv.Itoa(*entry.ScoreValue)
				if entry.MaxScore != nil {
					score = fmt.Sprintf("%d/%d", *entry.ScoreValue, *entry.MaxScore)
				}
			}
			percent := ""
			if entry.ScorePercent != nil {
				percent = strconv.Itoa(*entry.ScorePercent) + "%"
			}
			comment := ""
			if entry.TeacherComment != nil {
				comment = *entry.TeacherComment
			}
			data.Rows = append(data.Rows, map[string]string{
				"child":    report.Name,
				"homework": entry.HomeworkTitle,
				"score":    score,
				"percent":  percent,
				"comment":  comment,
			})
		}
	}

	rendered, err := s.pdf.Render(data, "Progress report")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	return rendered, nil
}
