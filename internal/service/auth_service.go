package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/bit-fotutors/classroom-api/internal/models"
	appErrors "github.com/bit-fotutors/classroom-api/pkg/errors"
)

type authTeacherRepository interface {
	FindByExternalID(ctx context.Context, externalID string) (*models.Teacher, error)
}

type authStudentRepository interface {
	FindByExternalID(ctx context.Context, externalID string) (*models.Student, error)
}

type authParentRepository interface {
	FindByExternalID(ctx context.Context, externalID string) (*models.Parent, error)
}

// AuthConfig holds token signing parameters.
type AuthConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// AuthService exchanges messaging identities for short-lived actor tokens.
// Only the bot gateway calls it; end users never hold credentials here.
type AuthService struct {
	teachers  authTeacherRepository
	students  authStudentRepository
	parents   authParentRepository
	cfg       AuthConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs the auth service.
func NewAuthService(teachers authTeacherRepository, students authStudentRepository, parents authParentRepository, cfg AuthConfig, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Expiration <= 0 {
		cfg.Expiration = time.Hour
	}
	return &AuthService{teachers: teachers, students: students, parents: parents, cfg: cfg, validator: validate, logger: logger}
}

// IssueToken resolves the actor behind a messaging identity and mints a JWT
// for it.
func (s *AuthService) IssueToken(ctx context.Context, req models.TokenRequest) (*models.TokenResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid token request")
	}

	actorID, err := s.resolveActor(ctx, req.Role, req.ExternalID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	claims := models.JWTClaims{
		ActorID:    actorID,
		Role:       req.Role,
		ExternalID: req.ExternalID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   actorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}

	return &models.TokenResponse{
		AccessToken: signed,
		ExpiresIn:   int64(s.cfg.Expiration.Seconds()),
		IssuedAt:    now,
		ActorID:     actorID,
		Role:        req.Role,
	}, nil
}

// ValidateToken parses and verifies an actor token.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

func (s *AuthService) resolveActor(ctx context.Context, role models.ActorRole, externalID string) (string, error) {
	var (
		id  string
		err error
	)
	switch role {
	case models.RoleTeacher:
		var teacher *models.Teacher
		teacher, err = s.teachers.FindByExternalID(ctx, externalID)
		if teacher != nil {
			id = teacher.ID
		}
	case models.RoleStudent:
		var student *models.Student
		student, err = s.students.FindByExternalID(ctx, externalID)
		if student != nil {
			id = student.ID
		}
	case models.RoleParent:
		var parent *models.Parent
		parent, err = s.parents.FindByExternalID(ctx, externalID)
		if parent != nil {
			id = parent.ID
		}
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "no account for this identity")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve actor")
	}
	return id, nil
}
