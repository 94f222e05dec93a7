package httpHandler

import (
	"net/http"

	"wattwise-server/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// Sync handles POST /api/v1/auth/sync. The gate has already created or
// loaded the profile; this only returns it.
func (h *AuthHandler) Sync(c *gin.Context) {
	principal, err := currentPrincipal(c)
	if err != nil {
		c.Error(err)
		return
	}

	response.JSON(c, http.StatusOK, "User synced successfully.", principal.Profile)
}
