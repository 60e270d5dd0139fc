package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	appErrors "github.com/bit-fotutors/classroom-api/pkg/errors"
	"github.com/bit-fotutors/classroom-api/pkg/response"
)

// GatewayKeyHeader carries the shared secret of the bot gateway.
const GatewayKeyHeader = "X-Gateway-Key"

// GatewayKey restricts a route to the trusted bot gateway. Used for the
// token exchange and payment confirmation callbacks.
func GatewayKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "gateway access not configured"))
			c.Abort()
			return
		}
		provided := c.GetHeader(GatewayKeyHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid gateway key"))
			c.Abort()
			return
		}
		c.Next()
	}
}
