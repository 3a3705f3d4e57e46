package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/muhfadtz/TrackFinance/internal/ledger"
	"github.com/muhfadtz/TrackFinance/internal/logger"
	"github.com/muhfadtz/TrackFinance/internal/models"
	"github.com/muhfadtz/TrackFinance/internal/store"
	"github.com/muhfadtz/TrackFinance/internal/util"

	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middleware.
const (
	CtxUser    = "currentUser"
	CtxSession = "currentSession"
)

// currentUser returns the signed-in user, or writes 401 and returns nil.
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(CtxUser)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return nil
	}
	user, ok := v.(*models.User)
	if !ok || user == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
		return nil
	}
	return user
}

// currentSession returns the session the request was authenticated with.
func currentSession(c *gin.Context) *models.Session {
	v, ok := c.Get(CtxSession)
	if !ok {
		return nil
	}
	s, _ := v.(*models.Session)
	return s
}

// writeError maps ledger and store errors onto the response envelope.
// Anything unexpected is logged and reported as a generic failure.
func writeError(c *gin.Context, log *slog.Logger, op string, err error) {
	var ve *ledger.ValidationError
	switch {
	case errors.As(err, &ve):
		util.ErrorField(c, http.StatusBadRequest, util.CodeInvalidParam, ve.Field, ve.Message)
	case errors.Is(err, ledger.ErrWalletHasTransactions):
		util.Error(c, http.StatusConflict, util.CodeConflict, "wallet still has transactions and cannot be deleted")
	case errors.Is(err, store.ErrNotFound):
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "record not found")
	default:
		log.ErrorContext(c.Request.Context(), op+" failed",
			logger.FieldOperation, op,
			logger.FieldError, err)
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, op+" failed, please try again")
	}
}
