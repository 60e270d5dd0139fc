package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bit-fotutors/classroom-api/internal/service"
	appErrors "github.com/bit-fotutors/classroom-api/pkg/errors"
	"github.com/bit-fotutors/classroom-api/pkg/response"
)

// ParentHandler exposes parent registration, child links and reports.
type ParentHandler struct {
	parents *service.ParentService
}

// NewParentHandler constructs ParentHandler.
func NewParentHandler(parents *service.ParentService) *ParentHandler {
	return &ParentHandler{parents: parents}
}

// Register godoc
// @Summary Register a parent account
// @Tags Parents
// @Accept json
// @Produce json
// @Param payload body service.RegisterParentRequest true "Parent payload"
// @Success 201 {object} response.Envelope
// @Router /parents [post]
func (h *ParentHandler) Register(c *gin.Context) {
	var req service.RegisterParentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	parent, err := h.parents.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, parent)
}

// LinkChild godoc
// @Summary Link a child to the acting parent
// @Tags Parents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.LinkChildRequest true "Link payload"
// @Success 204
// @Router /children [post]
func (h *ParentHandler) LinkChild(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.LinkChildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	if err := h.parents.LinkChild(c.Request.Context(), claims.ActorID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Children godoc
// @Summary List linked children
// @Tags Parents
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /children [get]
func (h *ParentHandler) Children(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	children, err := h.parents.Children(c.Request.Context(), claims.ActorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, children, nil)
}

// Report godoc
// @Summary Progress report across linked children
// @Tags Parents
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /children/report [get]
func (h *ParentHandler) Report(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	report, err := h.parents.Report(c.Request.Context(), claims.ActorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ReportPDF godoc
// @Summary Progress report rendered as PDF
// @Tags Parents
// @Produce application/pdf
// @Security BearerAuth
// @Success 200
// @Router /children/report/pdf [get]
func (h *ParentHandler) ReportPDF(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	data, err := h.parents.ReportPDF(c.Request.Context(), claims.ActorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="progress-report.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
