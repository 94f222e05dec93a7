package middleware

import (
	"math"
	"strconv"
	"strings"

	"wattwise-server/apperr"
	"wattwise-server/ratelimit"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimit counts requests per client IP whose path is prefix or lies below
// it, matched or not. An empty prefix counts every request. When the counter
// store is unreachable the request is let through.
func RateLimit(limiter ratelimit.Limiter, prefix string, log *zap.Logger) gin.HandlerFunc {
	prefix = strings.TrimSuffix(prefix, "/")
	return func(c *gin.Context) {
		if !underPrefix(c.Request.URL.Path, prefix) {
			c.Next()
			return
		}

		res, err := limiter.Allow(c.Request.Context(), "ip:"+c.ClientIP())
		if err != nil {
			log.Warn("rate limiter unavailable, allowing request", zap.Error(err))
		}

		c.Header("RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("RateLimit-Reset", strconv.Itoa(int(math.Ceil(res.ResetIn.Seconds()))))

		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(res.ResetIn.Seconds()))))
			fail(c, apperr.New(apperr.RateLimited, "Too many requests, please try again later."))
			return
		}
		c.Next()
	}
}

func underPrefix(path, prefix string) bool {
	if prefix == "" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
