package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bit-fotutors/classroom-api/internal/models"
	"github.com/bit-fotutors/classroom-api/internal/notify"
	appErrors "github.com/bit-fotutors/classroom-api/pkg/errors"
)

type assignmentRepository interface {
	CreateWithSubmissions(ctx context.Context, assignment *models.HomeworkAssignment, studentIDs []string) error
	FindDetail(ctx context.Context, id string) (*models.AssignmentDetail, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.AssignmentDetail, error)
	StatusBoard(ctx context.Context, assignmentID string) ([]models.SubmissionStatusRow, error)
}

type assignmentHomeworkRepository interface {
	FindByID(ctx context.Context, id string) (*models.Homework, error)
}

type assignmentStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type assignmentGroupRepository interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
	ListMembers(ctx context.Context, groupID string) ([]models.Student, error)
}

type notifier interface {
	Notify(msg notify.Message)
}

// AssignHomeworkRequest holds payload for pushing a homework to a target.
type AssignHomeworkRequest struct {
	HomeworkID string     `json:"homework_id" validate:"required"`
	TargetType string     `json:"target_type" validate:"required,oneof=student group"`
	TargetID   string     `json:"target_id" validate:"required"`
	Deadline   *time.Time `json:"deadline,omitempty"`
}

// AssignmentService fans homework assignments out to students.
type AssignmentService struct {
	repo            assignmentRepository
	homeworks       assignmentHomeworkRepository
	students        assignmentStudentRepository
	groups          assignmentGroupRepository
	notifier        notifier
	defaultDeadline time.Duration
	validator       *validator.Validate
	logger          *zap.Logger
}

// NewAssignmentService constructs the assignment service.
func NewAssignmentService(
	repo assignmentRepository,
	homeworks assignmentHomeworkRepository,
	students assignmentStudentRepository,
	groups assignmentGroupRepository,
	notifier notifier,
	defaultDeadline time.Duration,
	validate *validator.Validate,
	logger *zap.Logger,
) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultDeadline <= 0 {
		defaultDeadline = 7 * 24 * time.Hour
	}
	return &AssignmentService{
		repo:            repo,
		homeworks:       homeworks,
		students:        students,
		groups:          groups,
		notifier:        notifier,
		defaultDeadline: defaultDeadline,
		validator:       validate,
		logger:          logger,
	}
}

// Assign creates the assignment and its submission fan-out. The member list
// is resolved once; students joining the group later are not pulled in.
func (s *AssignmentService) Assign(ctx context.Context, teacherID string, req AssignHomeworkRequest) (*models.AssignmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	homework, err := s.homeworks.FindByID(ctx, req.HomeworkID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "homework not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load homework")
	}
	if err := ensureOwner(homework.TeacherID, teacherID, "homework"); err != nil {
		return nil, err
	}

	targets, err := s.resolveTargets(ctx, teacherID, req.TargetType, req.TargetID)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, appErrors.Clone(appErrors.ErrEmptyTarget, "")
	}

	deadline := time.Now().UTC().Add(s.defaultDeadline)
	if req.Deadline != nil {
		deadline = req.Deadline.UTC()
	}

	assignment := &models.HomeworkAssignment{
		HomeworkID:     homework.ID,
		AssignedToType: req.TargetType,
		AssignedToID:   req.TargetID,
		Deadline:       deadline,
	}
	studentIDs := make([]string, 0, len(targets))
	for _, student := range targets {
		studentIDs = append(studentIDs, student.ID)
	}
	if err := s.repo.CreateWithSubmissions(ctx, assignment, studentIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}

	if s.notifier != nil {
		for _, student := range targets {
			recipient := ""
			if student.ExternalID != nil {
				recipient = *student.ExternalID
			}
			s.notifier.Notify(notify.Message{
				Kind:        notify.KindHomeworkAssigned,
				RecipientID: recipient,
				Text:        fmt.Sprintf("New homework: %s, due %s", homework.Title, deadline.Format("2006-01-02 15:04")),
			})
		}
	}

	s.logger.Sugar().Infow("homework assigned",
		"teacher_id", teacherID,
		"assignment_id", assignment.ID,
		"submissions", len(studentIDs),
	)
	return &models.AssignmentDetail{
		HomeworkAssignment: *assignment,
		HomeworkTitle:      homework.Title,
		TeacherID:          teacherID,
		SubmissionCount:    len(studentIDs),
	}, nil
}

// List returns the teacher's assignments, newest first.
func (s *AssignmentService) List(ctx context.Context, teacherID string) ([]models.AssignmentDetail, error) {
	assignments, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// StatusBoard returns the per-student state of an owned assignment, with the
// overdue label derived against the deadline.
func (s *AssignmentService) StatusBoard(ctx context.Context, teacherID, assignmentID string) ([]models.SubmissionStatusRow, error) {
	assignment, err := s.repo.FindDetail(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	if err := ensureOwner(assignment.TeacherID, teacherID, "assignment"); err != nil {
		return nil, err
	}

	rows, err := s.repo.StatusBoard(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load status board")
	}
	now := time.Now().UTC()
	for i := range rows {
		sub := models.HomeworkSubmission{Status: rows[i].Status}
		rows[i].DisplayStatus = sub.DisplayStatus(assignment.Deadline, now)
	}
	return rows, nil
}

func (s *AssignmentService) resolveTargets(ctx context.Context, teacherID, targetType, targetID string) ([]models.Student, error) {
	switch targetType {
	case models.TargetStudent:
		student, err := s.students.FindByID(ctx, targetID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
		}
		if err := ensureOwner(student.TeacherID, teacherID, "student"); err != nil {
			return nil, err
		}
		return []models.Student{*student}, nil
	case models.TargetGroup:
		group, err := s.groups.FindByID(ctx, targetID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
		}
		if err := ensureOwner(group.TeacherID, teacherID, "group"); err != nil {
			return nil, err
		}
		members, err := s.groups.ListMembers(ctx, group.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list members")
		}
		return members, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown target type")
	}
}
