package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/muhfadtz/TrackFinance/internal/ledger"
	"github.com/muhfadtz/TrackFinance/internal/logger"
	"github.com/muhfadtz/TrackFinance/internal/models"
	"github.com/muhfadtz/TrackFinance/internal/store"
	"github.com/muhfadtz/TrackFinance/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Profiles loads per-user settings, creating them with defaults on first
// use.
type Profiles struct {
	Store    *store.Store
	Defaults models.Profile
}

// Ensure returns the user's profile, creating the default one if absent.
func (p *Profiles) Ensure(ctx context.Context, userID string) (*models.Profile, error) {
	var prof models.Profile
	err := p.Store.Get(ctx, store.Profiles, userID, userID, &prof)
	if err == nil {
		return &prof, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	prof = p.Defaults
	prof.UserID = userID
	if _, err := p.Store.Add(ctx, store.Profiles, &prof); err != nil {
		// lost a race with a concurrent first sign-in
		if again := p.Store.Get(ctx, store.Profiles, userID, userID, &prof); again == nil {
			return &prof, nil
		}
		return nil, err
	}
	return &prof, nil
}

// AccountHandler serves the signed-in user's account and settings.
type AccountHandler struct {
	DB         *gorm.DB
	Sessions   *Sessions
	Profiles   *Profiles
	BcryptCost int
	Log        *slog.Logger
}

func NewAccountHandler(db *gorm.DB, sessions *Sessions, profiles *Profiles, bcryptCost int, log *slog.Logger) *AccountHandler {
	return &AccountHandler{
		DB:         db,
		Sessions:   sessions,
		Profiles:   profiles,
		BcryptCost: bcryptCost,
		Log:        logger.Component(log, "account"),
	}
}

// UpdateProfileReq updates display name and avatar.
type UpdateProfileReq struct {
	DisplayName string `json:"display_name" binding:"max=64"`
	PhotoURL    string `json:"photo_url" binding:"omitempty,url,max=512"`
}

// ChangePasswordReq changes the password after re-authentication.
type ChangePasswordReq struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// UpdateProfile changes the user's display name and photo.
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req UpdateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := h.DB.Model(user).Updates(map[string]interface{}{
		"display_name": req.DisplayName,
		"photo_url":    req.PhotoURL,
	}).Error; err != nil {
		writeError(c, h.Log, "update profile", err)
		return
	}

	user.DisplayName = req.DisplayName
	user.PhotoURL = req.PhotoURL
	util.Success(c, util.Response{
		"user": userJSON(user),
	})
}

// ChangePassword re-authenticates with the old password, stores the new
// one, signs out every session and returns a fresh token.
func (h *AccountHandler) ChangePassword(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req ChangePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	if user.PasswordHash == "" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "account signs in with Google and has no password")
		return
	}
	if !util.CheckPassword(req.OldPassword, user.PasswordHash) {
		util.ErrorField(c, http.StatusBadRequest, util.CodeInvalidParam, "old_password", "old password is wrong")
		return
	}
	if !util.IsStrongPassword(req.NewPassword) {
		util.ErrorField(c, http.StatusBadRequest, util.CodeInvalidParam, "new_password",
			"password must be 8-64 characters with upper case, lower case and a digit")
		return
	}

	hash, err := util.HashPassword(req.NewPassword, h.BcryptCost)
	if err != nil {
		writeError(c, h.Log, "change password", err)
		return
	}
	if err := h.DB.Model(user).Update("password_hash", hash).Error; err != nil {
		writeError(c, h.Log, "change password", err)
		return
	}

	ctx := c.Request.Context()
	if err := h.Sessions.RevokeAll(ctx, user.ID); err != nil {
		writeError(c, h.Log, "change password", err)
		return
	}
	token, sess, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		writeError(c, h.Log, "change password", err)
		return
	}

	h.Log.Info("password changed", logger.FieldUserID, user.ID)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(TokenCookie, token, int(h.Sessions.TTL.Seconds()), "/", "", false, true)
	util.Success(c, util.Response{
		"message":    "password changed, other sessions were signed out",
		"token":      token,
		"expires_at": sess.ExpiresAt,
	})
}

// ---------- settings ----------

type updateSettingsReq struct {
	Theme    *string `json:"theme"`
	Currency *string `json:"currency"`
}

func (h *AccountHandler) GetSettings(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	prof, err := h.Profiles.Ensure(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, h.Log, "load settings", err)
		return
	}
	util.Success(c, util.Response{
		"settings": prof,
	})
}

// UpdateSettings changes theme and/or currency.
func (h *AccountHandler) UpdateSettings(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req updateSettingsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	fields := map[string]interface{}{}
	if req.Theme != nil {
		theme := strings.ToLower(strings.TrimSpace(*req.Theme))
		if theme != models.ThemeDark && theme != models.ThemeLight {
			util.ErrorField(c, http.StatusBadRequest, util.CodeInvalidParam, "theme", "theme must be dark or light")
			return
		}
		fields["theme"] = theme
	}
	if req.Currency != nil {
		code := strings.ToUpper(strings.TrimSpace(*req.Currency))
		if !util.ValidCurrency(code) {
			util.ErrorField(c, http.StatusBadRequest, util.CodeInvalidParam, "currency", "unknown currency code")
			return
		}
		fields["currency"] = code
	}

	ctx := c.Request.Context()
	if _, err := h.Profiles.Ensure(ctx, user.ID); err != nil {
		writeError(c, h.Log, "update settings", err)
		return
	}
	if len(fields) > 0 {
		if err := h.Profiles.Store.Update(ctx, store.Profiles, user.ID, user.ID, fields); err != nil {
			writeError(c, h.Log, "update settings", err)
			return
		}
	}
	prof, err := h.Profiles.Ensure(ctx, user.ID)
	if err != nil {
		writeError(c, h.Log, "update settings", err)
		return
	}
	util.Success(c, util.Response{
		"settings": prof,
	})
}

// Categories lists the default transaction categories.
func (h *AccountHandler) Categories(c *gin.Context) {
	util.Success(c, util.Response{
		"income":  ledger.Categories(models.Income),
		"expense": ledger.Categories(models.Expense),
	})
}

// Currencies lists the selectable currencies.
func (h *AccountHandler) Currencies(c *gin.Context) {
	util.Success(c, util.Response{
		"items": util.Currencies,
	})
}
