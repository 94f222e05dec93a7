package middleware

import (
	"fmt"
	"io"

	"wattwise-server/apperr"
	"wattwise-server/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Errors is the single place faults become responses. Handlers and other
// middleware only record them with c.Error. The stack field is filled only
// outside production.
func Errors(log *zap.Logger, production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		fault := apperr.From(c.Errors.Last().Err)
		fields := []zap.Field{
			zap.String("kind", fault.Kind.String()),
			zap.Int("status", fault.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(fault),
		}
		if fault.Kind == apperr.Internal {
			log.Error("request failed", append(fields, zap.String("stack", fault.StackTrace()))...)
		} else {
			log.Warn("request rejected", fields...)
		}

		if c.Writer.Written() {
			return
		}

		stack := ""
		if !production {
			stack = fault.StackTrace()
		}
		response.Error(c, fault.Status(), fault.Message, stack)
	}
}

// Recovery turns a panic into an Internal fault for the translator.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		err, ok := recovered.(error)
		if !ok {
			err = fmt.Errorf("%v", recovered)
		}
		fail(c, apperr.Wrap(err, apperr.Internal, "Internal Server Error"))
	})
}

// NotFound answers unmatched routes.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		fail(c, apperr.NotFoundf("Route not found."))
	}
}
