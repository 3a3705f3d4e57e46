package middleware

import (
	"log/slog"
	"time"

	"github.com/muhfadtz/TrackFinance/internal/handler"
	"github.com/muhfadtz/TrackFinance/internal/logger"
	"github.com/muhfadtz/TrackFinance/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader is echoed back on every response.
const RequestIDHeader = "X-Request-ID"

// RequestLogger assigns a request id and logs each request on completion
// at a level matching its status. The query string is not logged because
// it may carry a token.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	log = logger.Component(log, "http")
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)

		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		attrs := []any{
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if v, ok := c.Get(handler.CtxUser); ok {
			if user, ok := v.(*models.User); ok && user != nil {
				attrs = append(attrs, logger.FieldUserID, user.ID)
			}
		}
		log.Log(c.Request.Context(), level, "request completed", attrs...)
	}
}
