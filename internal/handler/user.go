package handler

import (
	"github.com/muhfadtz/TrackFinance/internal/util"

	"github.com/gin-gonic/gin"
)

// GetMe returns the signed-in user and their settings.
func (h *AccountHandler) GetMe(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	prof, err := h.Profiles.Ensure(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, h.Log, "load profile", err)
		return
	}

	me := userJSON(user)
	me["has_password"] = user.PasswordHash != ""
	me["google_linked"] = user.GoogleSubject != nil
	util.Success(c, util.Response{
		"user":     me,
		"settings": prof,
	})
}
