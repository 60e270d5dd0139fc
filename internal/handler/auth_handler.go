package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bit-fotutors/classroom-api/internal/models"
	"github.com/bit-fotutors/classroom-api/internal/service"
	appErrors "github.com/bit-fotutors/classroom-api/pkg/errors"
	"github.com/bit-fotutors/classroom-api/pkg/response"
)

// AuthHandler exposes the gateway token exchange.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Token godoc
// @Summary Exchange a messaging identity for an actor token
// @Tags Auth
// @Accept json
// @Produce json
// @Param X-Gateway-Key header string true "Gateway API key"
// @Param payload body models.TokenRequest true "Token request"
// @Success 200 {object} response.Envelope
// @Router /auth/token [post]
func (h *AuthHandler) Token(c *gin.Context) {
	var req models.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	token, err := h.auth.IssueToken(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, token, nil)
}
