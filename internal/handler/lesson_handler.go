package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bit-fotutors/classroom-api/internal/service"
	appErrors "github.com/bit-fotutors/classroom-api/pkg/errors"
	"github.com/bit-fotutors/classroom-api/pkg/response"
)

// LessonHandler exposes lesson scheduling endpoints.
type LessonHandler struct {
	lessons *service.LessonService
}

// NewLessonHandler constructs LessonHandler.
func NewLessonHandler(lessons *service.LessonService) *LessonHandler {
	return &LessonHandler{lessons: lessons}
}

// Schedule godoc
// @Summary Schedule a lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.ScheduleLessonRequest true "Lesson payload"
// @Success 201 {object} response.Envelope
// @Router /lessons [post]
func (h *LessonHandler) Schedule(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.ScheduleLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	lesson, err := h.lessons.Schedule(c.Request.Context(), claims.ActorID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}

// Upcoming godoc
// @Summary List upcoming lessons
// @Tags Lessons
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /lessons [get]
func (h *LessonHandler) Upcoming(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	lessons, err := h.lessons.Upcoming(c.Request.Context(), claims.ActorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons, nil)
}

// Cancel godoc
// @Summary Cancel a scheduled lesson
// @Tags Lessons
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lesson ID"
// @Success 204
// @Router /lessons/{id} [delete]
func (h *LessonHandler) Cancel(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.lessons.Cancel(c.Request.Context(), claims.ActorID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
