package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/bit-fotutors/classroom-api/internal/middleware"
	"github.com/bit-fotutors/classroom-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextActorKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
