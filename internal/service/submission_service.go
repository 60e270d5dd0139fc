package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bit-fotutors/classroom-api/internal/models"
	"github.com/bit-fotutors/classroom-api/internal/notify"
	appErrors "github.com/bit-fotutors/classroom-api/pkg/errors"
)

type submissionRepository interface {
	FindDetail(ctx context.Context, id string) (*models.SubmissionDetail, error)
	MarkSubmitted(ctx context.Context, id string, filePath *string, content *string, submittedAt time.Time) error
	SetGrade(ctx context.Context, id string, score int, percent *int, comment *string) error
	ListByStudent(ctx context.Context, studentID string) ([]models.SubmissionDetail, error)
}

type submissionStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Open(filename string) (*os.File, error)
}

type downloadSigner interface {
	Generate(submissionID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (submissionID, relPath string, expiresAt time.Time, err error)
}

type reportCache interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// GradeRequest holds payload for grading a submission.
type GradeRequest struct {
	Score   int     `json:"score" validate:"gte=0"`
	Comment *string `json:"comment,omitempty"`
}

// SignedDownload is a time-limited reference to an uploaded blob.
type SignedDownload struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SubmissionService drives the assigned → submitted → graded lifecycle.
type SubmissionService struct {
	repo      submissionRepository
	storage   submissionStorage
	signer    downloadSigner
	cache     reportCache
	notifier  notifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubmissionService constructs the submission service.
func NewSubmissionService(
	repo submissionRepository,
	storage submissionStorage,
	signer downloadSigner,
	cache reportCache,
	notifier notifier,
	validate *validator.Validate,
	logger *zap.Logger,
) *SubmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		repo:      repo,
		storage:   storage,
		signer:    signer,
		cache:     cache,
		notifier:  notifier,
		validator: validate,
		logger:    logger,
	}
}

// SubmitFile accepts a student's upload for an assigned submission. Late
// uploads are refused and leave the row unchanged.
func (s *SubmissionService) SubmitFile(ctx context.Context, studentID, submissionID, filename string, file io.Reader, content *string) (*models.SubmissionDetail, error) {
	detail, err := s.getDetail(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if err := ensureOwner(detail.StudentID, studentID, "submission"); err != nil {
		return nil, err
	}
	if detail.Status != models.SubmissionAssigned {
		return nil, appErrors.Clone(appErrors.ErrConflict, "submission already handed in")
	}

	now := time.Now().UTC()
	if now.After(detail.Deadline) {
		return nil, appErrors.Clone(appErrors.ErrDeadlinePassed, "")
	}

	var filePath *string
	if file != nil {
		stored, err := s.storage.SaveStream(storedFileName(detail.ID, filename), file)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload")
		}
		filePath = &stored
	}
	if filePath == nil && content == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a file or text answer is required")
	}

	if err := s.repo.MarkSubmitted(ctx, detail.ID, filePath, content, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record submission")
	}

	detail.Status = models.SubmissionSubmitted
	detail.FilePath = filePath
	detail.Content = content
	detail.SubmittedAt = &now

	if s.notifier != nil {
		s.notifier.Notify(notify.Message{
			Kind:        notify.KindSubmissionUploaded,
			RecipientID: detail.TeacherExternalID,
			Text:        fmt.Sprintf("%s handed in %s", detail.StudentName, detail.HomeworkTitle),
		})
	}
	return detail, nil
}

// Grade records the teacher's score. Grading straight from assigned is
// allowed (a missed deadline can still be graded) and regrading overwrites.
func (s *SubmissionService) Grade(ctx context.Context, teacherID, submissionID string, req GradeRequest) (*models.SubmissionDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	detail, err := s.getDetail(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if err := ensureOwner(detail.TeacherID, teacherID, "submission"); err != nil {
		return nil, err
	}
	if detail.MaxScore != nil && req.Score > *detail.MaxScore {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("score exceeds max score %d", *detail.MaxScore))
	}

	percent := models.ComputeScorePercent(req.Score, detail.MaxScore)
	if err := s.repo.SetGrade(ctx, detail.ID, req.Score, percent, req.Comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record grade")
	}

	detail.Status = models.SubmissionGraded
	score := req.Score
	detail.ScoreValue = &score
	detail.ScorePercent = percent
	detail.TeacherComment = req.Comment

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, "report:student:"+detail.StudentID+":*"); err != nil {
			s.logger.Sugar().Warnw("failed to invalidate report cache", "student_id", detail.StudentID, "error", err)
		}
	}
	if s.notifier != nil {
		recipient := ""
		if detail.StudentExternalID != nil {
			recipient = *detail.StudentExternalID
		}
		text := fmt.Sprintf("%s graded: %d", detail.HomeworkTitle, req.Score)
		if detail.MaxScore != nil {
			text = fmt.Sprintf("%s graded: %d/%d", detail.HomeworkTitle, req.Score, *detail.MaxScore)
		}
		s.notifier.Notify(notify.Message{
			Kind:        notify.KindSubmissionGraded,
			RecipientID: recipient,
			Text:        text,
		})
	}
	return detail, nil
}

// ListForStudent returns the student's submissions with the derived display
// status.
func (s *SubmissionService) ListForStudent(ctx context.Context, studentID string) ([]models.SubmissionDetail, error) {
	details, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	now := time.Now().UTC()
	for i := range details {
		details[i].DisplayStatusLabel = details[i].DisplayStatus(details[i].Deadline, now)
	}
	return details, nil
}

// DownloadToken issues a signed, short-lived token for an uploaded blob.
// Only the owning teacher may request one.
func (s *SubmissionService) DownloadToken(ctx context.Context, teacherID, submissionID string) (*SignedDownload, error) {
	detail, err := s.getDetail(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if err := ensureOwner(detail.TeacherID, teacherID, "submission"); err != nil {
		return nil, err
	}
	if detail.FilePath == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "submission has no uploaded file")
	}
	token, expiresAt, err := s.signer.Generate(detail.ID, *detail.FilePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download")
	}
	return &SignedDownload{Token: token, ExpiresAt: expiresAt}, nil
}

// OpenDownload validates a signed token and opens the referenced blob.
func (s *SubmissionService) OpenDownload(ctx context.Context, token string) (*os.File, string, error) {
	submissionID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid download token")
	}

	detail, err := s.getDetail(ctx, submissionID)
	if err != nil {
		return nil, "", err
	}
	if detail.FilePath == nil || *detail.FilePath != relPath {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "file no longer available")
	}

	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file")
	}
	return file, filepath.Base(relPath), nil
}

func (s *SubmissionService) getDetail(ctx context.Context, submissionID string) (*models.SubmissionDetail, error) {
	detail, err := s.repo.FindDetail(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return detail, nil
}

func storedFileName(submissionID, original string) string {
	ext := filepath.Ext(original)
	return filepath.Join("submissions", submissionID+ext)
}
