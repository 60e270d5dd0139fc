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

type groupRepository interface {
	CreateWithQuota(ctx context.Context, group *models.Group, limit int) error
	FindByID(ctx context.Context, id string) (*models.Group, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.GroupDetail, error)
	IsMember(ctx context.Context, groupID, studentID string) (bool, error)
	AddMember(ctx context.Context, groupID, studentID string) error
	RemoveMember(ctx context.Context, groupID, studentID string) error
	ListMembers(ctx context.Context, groupID string) ([]models.Student, error)
}

type groupStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type groupTeacherRepository interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// CreateGroupRequest holds payload for creating a group.
type CreateGroupRequest struct {
	Title string `json:"title" validate:"required"`
}

// GroupService handles group and membership use-cases.
type GroupService struct {
	repo      groupRepository
	students  groupStudentRepository
	teachers  groupTeacherRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGroupService constructs the group service.
func NewGroupService(repo groupRepository, students groupStudentRepository, teachers groupTeacherRepository, validate *validator.Validate, logger *zap.Logger) *GroupService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{repo: repo, students: students, teachers: teachers, validator: validate, logger: logger}
}

// Create adds a group, enforcing the plan quota.
func (s *GroupService) Create(ctx context.Context, teacherID string, req CreateGroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid group payload")
	}

	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	limit := models.LimitFor(teacher.SubscriptionPlan, models.ResourceGroups)
	group := &models.Group{TeacherID: teacherID, Title: req.Title}
	if err := s.repo.CreateWithQuota(ctx, group, limit); err != nil {
		if errors.Is(err, repository.ErrQuotaExceeded) {
			return nil, appErrors.Clone(appErrors.ErrLimitExceeded,
				fmt.Sprintf("plan %s allows at most %d groups", teacher.SubscriptionPlan, limit))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create group")
	}
	s.logger.Sugar().Infow("group created", "teacher_id", teacherID, "group_id", group.ID)
	return group, nil
}

// List returns the teacher's groups with member counts.
func (s *GroupService) List(ctx context.Context, teacherID string) ([]models.GroupDetail, error) {
	groups, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list groups")
	}
	return groups, nil
}

// AddMember enrols an owned student into an owned group. Duplicate
// membership is a conflict.
func (s *GroupService) AddMember(ctx context.Context, teacherID, groupID, studentID string) error {
	group, err := s.getOwnedGroup(ctx, teacherID, groupID)
	if err != nil {
		return err
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := ensureOwner(student.TeacherID, teacherID, "student"); err != nil {
		return err
	}

	member, err := s.repo.IsMember(ctx, group.ID, student.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check membership")
	}
	if member {
		return appErrors.Clone(appErrors.ErrConflict, "student already in group")
	}

	if err := s.repo.AddMember(ctx, group.ID, student.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add member")
	}
	return nil
}

// RemoveMember drops a student from a group. Past assignment fan-outs stay
// untouched.
func (s *GroupService) RemoveMember(ctx context.Context, teacherID, groupID, studentID string) error {
	group, err := s.getOwnedGroup(ctx, teacherID, groupID)
	if err != nil {
		return err
	}
	if err := s.repo.RemoveMember(ctx, group.ID, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not in group")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove member")
	}
	return nil
}

// Members returns the current students of an owned group.
func (s *GroupService) Members(ctx context.Context, teacherID, groupID string) ([]models.Student, error) {
	group, err := s.getOwnedGroup(ctx, teacherID, groupID)
	if err != nil {
		return nil, err
	}
	members, err := s.repo.ListMembers(ctx, group.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list members")
	}
	return members, nil
}

func (s *GroupService) getOwnedGroup(ctx context.Context, teacherID, groupID string) (*models.Group, error) {
	group, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	if err := ensureOwner(group.TeacherID, teacherID, "group"); err != nil {
		return nil, err
	}
	return group, nil
}
