package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/muhfadtz/TrackFinance/internal/logger"
	"github.com/muhfadtz/TrackFinance/internal/models"
	"github.com/muhfadtz/TrackFinance/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	maxFailedLogins = 5
	lockoutDuration = 10 * time.Minute
)

// TokenCookie carries the token for browser clients.
const TokenCookie = "tl_token"

// AuthHandler handles sign-up, sign-in and sign-out.
type AuthHandler struct {
	DB         *gorm.DB
	Sessions   *Sessions
	Profiles   *Profiles
	Verifier   GoogleVerifier
	BcryptCost int
	Log        *slog.Logger
}

func NewAuthHandler(db *gorm.DB, sessions *Sessions, profiles *Profiles, google GoogleVerifier, bcryptCost int, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		DB:         db,
		Sessions:   sessions,
		Profiles:   profiles,
		Verifier:   google,
		BcryptCost: bcryptCost,
		Log:        logger.Component(log, "auth"),
	}
}

func userJSON(u *models.User) gin.H {
	return gin.H{
		"id":           u.ID,
		"email":        u.Email,
		"display_name": u.DisplayName,
		"photo_url":    u.PhotoURL,
		"created_at":   u.CreatedAt,
	}
}

// signIn opens a session for user and writes the token response.
func (h *AuthHandler) signIn(c *gin.Context, user *models.User) {
	ctx := c.Request.Context()
	if _, err := h.Profiles.Ensure(ctx, user.ID); err != nil {
		writeError(c, h.Log, "load profile", err)
		return
	}
	token, sess, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		writeError(c, h.Log, "sign in", err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(TokenCookie, token, int(h.Sessions.TTL.Seconds()), "/", "", false, true)
	util.Success(c, util.Response{
		"token":      token,
		"expires_at": sess.ExpiresAt,
		"user":       userJSON(user),
	})
}

// ---------- register ----------

type registerReq struct {
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	DisplayName     string `json:"display_name" binding:"max=64"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	email, err := util.NormalizeEmail(req.Email)
	if err != nil {
		util.ErrorField(c, http.StatusBadRequest, util.CodeInvalidParam, "email", "invalid email address")
		return
	}
	if !util.IsStrongPassword(req.Password) {
		util.ErrorField(c, http.StatusBadRequest, util.CodeInvalidParam, "password",
			"password must be 8-64 characters with upper case, lower case and a digit")
		return
	}
	if req.Password != req.ConfirmPassword {
		util.ErrorField(c, http.StatusBadRequest, util.CodeInvalidParam, "confirm_password", "passwords do not match")
		return
	}

	var count int64
	if err := h.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		writeError(c, h.Log, "register", err)
		return
	}
	if count > 0 {
		util.ErrorField(c, http.StatusConflict, util.CodeConflict, "email", "email is already registered")
		return
	}

	hash, err := util.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		writeError(c, h.Log, "register", err)
		return
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(req.DisplayName),
	}
	if err := h.DB.Create(&user).Error; err != nil {
		writeError(c, h.Log, "register", err)
		return
	}

	h.Log.Info("user registered", logger.FieldUserID, user.ID)
	h.signIn(c, &user)
}

// ---------- login ----------

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := h.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "wrong email or password")
		} else {
			writeError(c, h.Log, "login", err)
		}
		return
	}

	now := time.Now()

	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "account is locked, try again later")
		return
	}

	if !util.CheckPassword(req.Password, user.PasswordHash) {
		// 5 failures lock the account for 10 minutes
		user.FailedLoginAttempts++
		if user.FailedLoginAttempts >= maxFailedLogins {
			lockUntil := now.Add(lockoutDuration)
			user.LockedUntil = &lockUntil
			user.FailedLoginAttempts = 0
			h.Log.Warn("account locked", logger.FieldUserID, user.ID, "ip", c.ClientIP())
		}
		_ = h.DB.Save(&user).Error
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "wrong email or password")
		return
	}

	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginIP = c.ClientIP()
	user.LastLoginAt = &now
	if err := h.DB.Save(&user).Error; err != nil {
		writeError(c, h.Log, "login", err)
		return
	}

	h.signIn(c, &user)
}

// ---------- google ----------

type googleReq struct {
	IDToken string `json:"id_token" binding:"required"`
}

// Google signs in with a Google ID token. The account is found by Google
// subject, then by verified email (linking it), and is created otherwise.
func (h *AuthHandler) Google(c *gin.Context) {
	var req googleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	id, err := h.Verifier.Verify(c.Request.Context(), req.IDToken)
	if err != nil {
		if errors.Is(err, ErrGoogleDisabled) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, err.Error())
			return
		}
		h.Log.Info("google token rejected", logger.FieldError, err)
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "google sign-in failed")
		return
	}

	var user models.User
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("google_subject = ?", id.Subject).First(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		email, emailErr := util.NormalizeEmail(id.Email)
		if emailErr != nil || !id.EmailVerified {
			return errUnverifiedEmail
		}

		err = tx.Where("email = ?", email).First(&user).Error
		switch {
		case err == nil:
			user.GoogleSubject = &id.Subject
			if user.PhotoURL == "" {
				user.PhotoURL = id.Picture
			}
			return tx.Save(&user).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = models.User{
				Email:         email,
				GoogleSubject: &id.Subject,
				DisplayName:   id.Name,
				PhotoURL:      id.Picture,
			}
			return tx.Create(&user).Error
		default:
			return err
		}
	})
	if errors.Is(err, errUnverifiedEmail) {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "google account has no verified email")
		return
	}
	if err != nil {
		writeError(c, h.Log, "google sign-in", err)
		return
	}

	now := time.Now()
	user.LastLoginAt = &now
	user.LastLoginIP = c.ClientIP()
	_ = h.DB.Model(&user).Updates(map[string]interface{}{
		"last_login_at": now,
		"last_login_ip": user.LastLoginIP,
	}).Error

	h.signIn(c, &user)
}

var errUnverifiedEmail = errors.New("unverified email")

// ---------- logout ----------

func (h *AuthHandler) Logout(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	if sess := currentSession(c); sess != nil {
		if err := h.Sessions.Revoke(c.Request.Context(), user.ID, sess.ID); err != nil {
			writeError(c, h.Log, "logout", err)
			return
		}
	}

	c.SetCookie(TokenCookie, "", -1, "/", "", false, true)
	util.Success(c, util.Response{
		"message": "signed out",
	})
}
