package httpHandler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health handles GET /health. It never touches the store or the identity
// provider, so it answers even when either is unavailable.
func Health(env string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"message":     "WattWise API is running",
			"environment": env,
			"timestamp":   time.Now().UTC().Format(time.RFC3339Nano),
		})
	}
}
