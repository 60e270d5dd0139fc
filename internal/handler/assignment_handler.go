package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bit-fotutors/classroom-api/internal/service"
	appErrors "github.com/bit-fotutors/classroom-api/pkg/errors"
	"github.com/bit-fotutors/classroom-api/pkg/response"
)

// AssignmentHandler exposes assignment endpoints.
type AssignmentHandler struct {
	assignments *service.AssignmentService
}

// NewAssignmentHandler constructs AssignmentHandler.
func NewAssignmentHandler(assignments *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// Assign godoc
// @Summary Assign a homework to a student or group
// @Tags Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.AssignHomeworkRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Assign(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.AssignHomeworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	assignment, err := h.assignments.Assign(c.Request.Context(), claims.ActorID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// List godoc
// @Summary List assignments
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	assignments, err := h.assignments.List(c.Request.Context(), claims.ActorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// StatusBoard godoc
// @Summary Per-student status of an assignment
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/submissions [get]
func (h *AssignmentHandler) StatusBoard(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	board, err := h.assignments.StatusBoard(c.Request.Context(), claims.ActorID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board, nil)
}
