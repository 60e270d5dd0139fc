package handler

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bit-fotutors/classroom-api/internal/middleware"
	"github.com/bit-fotutors/classroom-api/internal/models"
	"github.com/bit-fotutors/classroom-api/internal/service"
)

type teacherRepoMock struct {
	byID         map[string]*models.Teacher
	byExternalID map[string]*models.Teacher
	created      *models.Teacher
}

func (m *teacherRepoMock) Create(_ context.Context, teacher *models.Teacher) error {
	m.created = teacher
	return nil
}

func (m *teacherRepoMock) FindByID(_ context.Context, id string) (*models.Teacher, error) {
	if teacher, ok := m.byID[id]; ok {
		return teacher, nil
	}
	return nil, sql.ErrNoRows
}

func (m *teacherRepoMock) FindByExternalID(_ context.Context, externalID string) (*models.Teacher, error) {
	if teacher, ok := m.byExternalID[externalID]; ok {
		return teacher, nil
	}
	return nil, sql.ErrNoRows
}

func newTeacherHandlerFixture(repo *teacherRepoMock) *TeacherHandler {
	return NewTeacherHandler(service.NewTeacherService(repo, nil, nil))
}

func TestTeacherHandlerRegister(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &teacherRepoMock{}
	h := newTeacherHandlerFixture(repo)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := bytes.NewBufferString(`{"external_id":"tg-100","name":"Anna"}`)
	req, _ := http.NewRequest(http.MethodPost, "/teachers", body)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.Register(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, repo.created)
	assert.Equal(t, "tg-100", repo.created.ExternalID)
	assert.Equal(t, models.PlanFree, repo.created.SubscriptionPlan)
}

func TestTeacherHandlerRegisterInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTeacherHandlerFixture(&teacherRepoMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/teachers", bytes.NewBufferString(`{"name":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.Register(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTeacherHandlerMe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &teacherRepoMock{
		byID: map[string]*models.Teacher{
			"teacher-1": {ID: "teacher-1", Name: "Anna", SubscriptionPlan: models.PlanFree},
		},
	}
	h := newTeacherHandlerFixture(repo)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/me", nil)
	c.Request = req
	c.Set(middleware.ContextActorKey, &models.JWTClaims{ActorID: "teacher-1", Role: models.RoleTeacher})

	h.Me(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Anna")
}

func TestTeacherHandlerMeWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTeacherHandlerFixture(&teacherRepoMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/me", nil)
	c.Request = req

	h.Me(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
