package handler

import (
	"log/slog"
	"strings"
	"time"

	"github.com/muhfadtz/TrackFinance/internal/ledger"
	"github.com/muhfadtz/TrackFinance/internal/logger"
	"github.com/muhfadtz/TrackFinance/internal/store"

	"github.com/gin-gonic/gin"
)

// LedgerHandler serves wallets, transactions, goals and debts.
type LedgerHandler struct {
	Store    *store.Store
	Mutator  *ledger.Mutator
	Location *time.Location
	Log      *slog.Logger
}

func NewLedgerHandler(s *store.Store, m *ledger.Mutator, loc *time.Location, log *slog.Logger) *LedgerHandler {
	if loc == nil {
		loc = time.Local
	}
	return &LedgerHandler{
		Store:    s,
		Mutator:  m,
		Location: loc,
		Log:      logger.Component(log, "ledger-api"),
	}
}

// requestLocation is the client's time zone from the X-Timezone header or
// the tz query parameter, else fallback.
func requestLocation(c *gin.Context, fallback *time.Location) *time.Location {
	name := strings.TrimSpace(c.GetHeader("X-Timezone"))
	if name == "" {
		name = strings.TrimSpace(c.Query("tz"))
	}
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	if fallback == nil {
		return time.Local
	}
	return fallback
}
