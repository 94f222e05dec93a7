package middleware

import (
	"net/http"
	"time"

	"wattwise-server/apperr"

	"github.com/gin-contrib/secure"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SecureHeaders sets the usual hardening headers. TLS and host checks are
// left to the proxy in front of the service.
func SecureHeaders(production bool) gin.HandlerFunc {
	return secure.New(secure.Config{
		STSSeconds:            15552000,
		STSIncludeSubdomains:  true,
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ContentSecurityPolicy: "default-src 'self'",
		IENoOpen:              true,
		ReferrerPolicy:        "no-referrer",
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         !production,
	})
}

// BodyLimit caps request bodies at limit bytes. Declared oversize bodies are
// refused up front; undeclared ones fail when a handler reads past the cap.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			fail(c, apperr.New(apperr.PayloadTooLarge, "Request body too large."))
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// RequestLogger logs one line per request. Health probes are skipped.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return ginzap.GinzapWithConfig(log, &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		SkipPaths:  []string{"/health"},
	})
}
