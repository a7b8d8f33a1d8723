package httpapi

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs one structured line per request, the same
// slog-based shape the rest of the codebase logs with.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		slog.InfoContext(c.Request.Context(), "http request",
			"method", c.Request.Method, "path", path, "status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}
