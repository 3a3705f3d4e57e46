package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"github.com/muhfadtz/TrackFinance/internal/handler"
	"github.com/muhfadtz/TrackFinance/internal/logger"
	"github.com/muhfadtz/TrackFinance/internal/models"
	"github.com/muhfadtz/TrackFinance/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const maxAuditBody = 2000

// redact masks credentials in a JSON request body. Bodies that are not a
// JSON object are dropped.
func redact(body []byte) string {
	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}
	for k := range fields {
		lk := strings.ToLower(k)
		if strings.Contains(lk, "password") || strings.Contains(lk, "token") {
			fields[k] = "***"
		}
	}
	out, err := json.Marshal(fields)
	if err != nil {
		return ""
	}
	return string(out)
}

// AuditMiddleware records every authenticated request with its path and
// action encrypted at rest.
func AuditMiddleware(db *gorm.DB, encryptKey string, log *slog.Logger) gin.HandlerFunc {
	log = logger.Component(log, "audit")
	return func(c *gin.Context) {
		var userID string
		if v, ok := c.Get(handler.CtxUser); ok {
			if user, ok := v.(*models.User); ok && user != nil {
				userID = user.ID
			}
		}

		var body []byte
		if c.Request.Body != nil && c.Request.Method != "GET" {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		}

		c.Next()

		if userID == "" {
			return
		}

		path := c.Request.URL.Path
		action := c.Request.Method + " " + path
		if len(body) > 0 && len(body) < maxAuditBody {
			if s := redact(body); s != "" {
				action += " " + s
			}
		}

		encPath, err := util.EncryptField(encryptKey, path)
		if err != nil {
			log.Warn("encrypt audit path", logger.FieldError, err)
			return
		}
		encAction, err := util.EncryptField(encryptKey, action)
		if err != nil {
			log.Warn("encrypt audit action", logger.FieldError, err)
			return
		}

		entry := models.AuditLog{
			UserID:    &userID,
			PathEnc:   encPath,
			Method:    c.Request.Method,
			ActionEnc: encAction,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		if err := db.Create(&entry).Error; err != nil {
			log.Warn("write audit log",
				logger.FieldUserID, userID,
				logger.FieldError, err)
		}
	}
}
