package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bit-fotutors/classroom-api/internal/service"
	appErrors "github.com/bit-fotutors/classroom-api/pkg/errors"
	"github.com/bit-fotutors/classroom-api/pkg/response"
)

// HomeworkHandler exposes homework catalog endpoints.
type HomeworkHandler struct {
	homeworks *service.HomeworkService
}

// NewHomeworkHandler constructs HomeworkHandler.
func NewHomeworkHandler(homeworks *service.HomeworkService) *HomeworkHandler {
	return &HomeworkHandler{homeworks: homeworks}
}

// Create godoc
// @Summary Author a homework template
// @Tags Homeworks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateHomeworkRequest true "Homework payload"
// @Success 201 {object} response.Envelope
// @Router /homeworks [post]
func (h *HomeworkHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateHomeworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	homework, err := h.homeworks.Create(c.Request.Context(), claims.ActorID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, homework)
}

// List godoc
// @Summary List homeworks
// @Tags Homeworks
// @Produce json
// @Security BearerAuth
// @Param library query bool false "Only library templates"
// @Success 200 {object} response.Envelope
// @Router /homeworks [get]
func (h *HomeworkHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	libraryOnly := c.Query("library") == "true"
	homeworks, err := h.homeworks.List(c.Request.Context(), claims.ActorID, libraryOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, homeworks, nil)
}

// Get godoc
// @Summary Get one homework
// @Tags Homeworks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Homework ID"
// @Success 200 {object} response.Envelope
// @Router /homeworks/{id} [get]
func (h *HomeworkHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	homework, err := h.homeworks.Get(c.Request.Context(), claims.ActorID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, homework, nil)
}
