package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bit-fotutors/classroom-api/internal/service"
	appErrors "github.com/bit-fotutors/classroom-api/pkg/errors"
	"github.com/bit-fotutors/classroom-api/pkg/response"
)

// GroupHandler exposes group and membership endpoints.
type GroupHandler struct {
	groups *service.GroupService
}

// NewGroupHandler constructs GroupHandler.
func NewGroupHandler(groups *service.GroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

// Create godoc
// @Summary Create a group
// @Tags Groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateGroupRequest true "Group payload"
// @Success 201 {object} response.Envelope
// @Router /groups [post]
func (h *GroupHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	group, err := h.groups.Create(c.Request.Context(), claims.ActorID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}

// List godoc
// @Summary List groups with member counts
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /groups [get]
func (h *GroupHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	groups, err := h.groups.List(c.Request.Context(), claims.ActorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// Members godoc
// @Summary List group members
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Router /groups/{id}/members [get]
func (h *GroupHandler) Members(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	members, err := h.groups.Members(c.Request.Context(), claims.ActorID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members, nil)
}

// AddMember godoc
// @Summary Add a student to a group
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param studentId path string true "Student ID"
// @Success 204
// @Router /groups/{id}/members/{studentId} [put]
func (h *GroupHandler) AddMember(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.groups.AddMember(c.Request.Context(), claims.ActorID, c.Param("id"), c.Param("studentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RemoveMember godoc
// @Summary Remove a student from a group
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param studentId path string true "Student ID"
// @Success 204
// @Router /groups/{id}/members/{studentId} [delete]
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.groups.RemoveMember(c.Request.Context(), claims.ActorID, c.Param("id"), c.Param("studentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
