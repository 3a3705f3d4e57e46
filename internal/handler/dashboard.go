package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/muhfadtz/TrackFinance/internal/aggregate"
	"github.com/muhfadtz/TrackFinance/internal/ledger"
	"github.com/muhfadtz/TrackFinance/internal/logger"
	"github.com/muhfadtz/TrackFinance/internal/models"
	"github.com/muhfadtz/TrackFinance/internal/store"
	"github.com/muhfadtz/TrackFinance/internal/util"

	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the aggregated dashboard, once or as a stream.
type DashboardHandler struct {
	Store      *store.Store
	Mutator    *ledger.Mutator
	Profiles   *Profiles
	WindowDays int
	Locale     string
	Location   *time.Location
	Log        *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

func NewDashboardHandler(s *store.Store, m *ledger.Mutator, profiles *Profiles, windowDays int, locale string, loc *time.Location, log *slog.Logger) *DashboardHandler {
	if loc == nil {
		loc = time.Local
	}
	return &DashboardHandler{
		Store:      s,
		Mutator:    m,
		Profiles:   profiles,
		WindowDays: windowDays,
		Locale:     locale,
		Location:   loc,
		Log:        logger.Component(log, "dashboard"),
		Now:        time.Now,
	}
}

// window reads ?window=N, falling back to the configured size.
func (h *DashboardHandler) window(c *gin.Context) (int, bool) {
	raw := c.Query("window")
	if raw == "" {
		return h.WindowDays, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 366 {
		util.ErrorField(c, http.StatusBadRequest, util.CodeInvalidParam, "window", "window must be between 1 and 366 days")
		return 0, false
	}
	return n, true
}

type dayResp struct {
	Day     string `json:"day"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
}

type goalStatusResp struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Target   string  `json:"target"`
	Saved    string  `json:"saved"`
	Progress float64 `json:"progress"`
}

// formatted renders a Summary in the user's currency for display.
func (h *DashboardHandler) formatted(sum aggregate.Summary, prof *models.Profile) gin.H {
	money := func(cents int64) string {
		return util.FormatCurrency(cents, prof.Currency, h.Locale)
	}

	days := make([]dayResp, 0, len(sum.Activity))
	for _, d := range sum.Activity {
		days = append(days, dayResp{
			Day:     d.Day,
			Income:  money(d.IncomeCent),
			Expense: money(d.ExpenseCent),
		})
	}
	goals := make([]goalStatusResp, 0, len(sum.Goals))
	for _, g := range sum.Goals {
		goals = append(goals, goalStatusResp{
			ID:       g.ID,
			Title:    g.Title,
			Target:   money(g.TargetCent),
			Saved:    money(g.SavedCent),
			Progress: g.Progress,
		})
	}

	return gin.H{
		"currency":           prof.Currency,
		"total_balance":      money(sum.TotalBalanceCent),
		"monthly_net_income": money(sum.MonthlyNetIncomeCent),
		"monthly_expense":    money(sum.MonthlyExpenseCent),
		"i_owe":              money(sum.IOweCent),
		"owed_to_me":         money(sum.OwedToMeCent),
		"activity":           days,
		"goals":              goals,
	}
}

// GetDashboard returns the current Summary, raw and formatted.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	days, ok := h.window(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	prof, err := h.Profiles.Ensure(ctx, user.ID)
	if err != nil {
		writeError(c, h.Log, "load settings", err)
		return
	}
	l, err := h.Mutator.Load(ctx, user.ID)
	if err != nil {
		writeError(c, h.Log, "load dashboard", err)
		return
	}

	now := h.Now().In(requestLocation(c, h.Location))
	sum := aggregate.Summarize(l, now, days)
	util.Success(c, util.Response{
		"summary":   sum,
		"formatted": h.formatted(sum, prof),
		"theme":     prof.Theme,
		"at":        now,
	})
}
