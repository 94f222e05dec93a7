package response

import (
	"github.com/gin-gonic/gin"
)

// Envelope is the body of every JSON response the service writes.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Stack   string      `json:"stack,omitempty"`
}

func JSON(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error writes a failure envelope. stack is left out of the body when empty.
func Error(c *gin.Context, status int, message, stack string) {
	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Message: message,
		Stack:   stack,
	})
}
