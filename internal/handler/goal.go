package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/muhfadtz/TrackFinance/internal/aggregate"
	"github.com/muhfadtz/TrackFinance/internal/ledger"
	"github.com/muhfadtz/TrackFinance/internal/models"
	"github.com/muhfadtz/TrackFinance/internal/store"
	"github.com/muhfadtz/TrackFinance/internal/util"

	"github.com/gin-gonic/gin"
)

type createGoalReq struct {
	Title        string `json:"title" binding:"required,max=128"`
	TargetAmount string `json:"target_amount" binding:"required"`
	Deadline     string `json:"deadline"`
}

type goalResp struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	TargetCent int64      `json:"target_cent"`
	SavedCent  int64      `json:"saved_cent"`
	Target     string     `json:"target_amount"`
	Saved      string     `json:"saved_amount"`
	Progress   float64    `json:"progress"`
	Deadline   *time.Time `json:"deadline,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func toGoalResp(g *models.Goal) goalResp {
	return goalResp{
		ID:         g.ID,
		Title:      g.Title,
		TargetCent: g.TargetCent,
		SavedCent:  g.SavedCent,
		Target:     util.FormatCents(g.TargetCent),
		Saved:      util.FormatCents(g.SavedCent),
		Progress:   aggregate.GoalProgress(*g),
		Deadline:   g.Deadline,
		CreatedAt:  g.CreatedAt,
	}
}

func (h *LedgerHandler) ListGoals(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var goals []models.Goal
	if err := h.Store.List(c.Request.Context(), store.Goals, user.ID, store.ByCreated, &goals); err != nil {
		writeError(c, h.Log, "list goals", err)
		return
	}

	items := make([]goalResp, 0, len(goals))
	for i := range goals {
		items = append(items, toGoalResp(&goals[i]))
	}
	util.Success(c, util.Response{
		"items": items,
	})
}

func (h *LedgerHandler) CreateGoal(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req createGoalReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	target, err := util.ParseAmount(req.TargetAmount)
	if err != nil {
		util.ErrorField(c, http.StatusBadRequest, util.CodeInvalidParam, "target_amount", "please enter a valid amount")
		return
	}
	in := ledger.GoalInput{Title: req.Title, TargetCent: target}
	if strings.TrimSpace(req.Deadline) != "" {
		d, err := util.ParseDate(req.Deadline, requestLocation(c, h.Location))
		if err != nil {
			util.ErrorField(c, http.StatusBadRequest, util.CodeInvalidParam, "deadline", "invalid date")
			return
		}
		in.Deadline = &d
	}

	g, err := h.Mutator.CreateGoal(c.Request.Context(), user.ID, in)
	if err != nil {
		writeError(c, h.Log, "create goal", err)
		return
	}
	util.Success(c, util.Response{
		"goal": toGoalResp(g),
	})
}
