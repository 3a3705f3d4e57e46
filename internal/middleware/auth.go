package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/muhfadtz/TrackFinance/internal/handler"
	"github.com/muhfadtz/TrackFinance/internal/models"
	"github.com/muhfadtz/TrackFinance/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// tokenFrom finds the bearer token in the Authorization header, the token
// query parameter (downloads and EventSource cannot set headers) or the
// cookie, in that order.
func tokenFrom(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if t := c.Query("token"); t != "" {
		return t
	}
	if t, err := c.Cookie(handler.TokenCookie); err == nil {
		return t
	}
	return ""
}

// AuthMiddleware verifies the JWT and its session, then puts the user and
// session in the context.
func AuthMiddleware(jwtSecret string, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := tokenFrom(c)
		if tokenStr == "" {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
			c.Abort()
			return
		}

		claims, err := util.ParseToken(jwtSecret, tokenStr)
		if err != nil {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "session expired, please sign in again")
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		var sess models.Session
		err = db.WithContext(ctx).
			Where("id = ? AND user_id = ?", claims.ID, claims.UserID).
			First(&sess).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load session")
			c.Abort()
			return
		}
		if err != nil || !sess.Active(time.Now()) {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "session expired, please sign in again")
			c.Abort()
			return
		}

		var user models.User
		if err := db.WithContext(ctx).First(&user, "id = ?", claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				util.Error(c, http.StatusUnauthorized, util.CodeAuth, "user not found")
			} else {
				util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load user")
			}
			c.Abort()
			return
		}

		c.Set(handler.CtxUser, &user)
		c.Set(handler.CtxSession, &sess)
		c.Next()
	}
}
