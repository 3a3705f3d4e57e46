package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/muhfadtz/TrackFinance/internal/ledger"
	"github.com/muhfadtz/TrackFinance/internal/models"
	"github.com/muhfadtz/TrackFinance/internal/store"
	"github.com/muhfadtz/TrackFinance/internal/util"

	"github.com/gin-gonic/gin"
)

type debtReq struct {
	PersonName  string `json:"person_name" binding:"required,max=64"`
	Amount      string `json:"amount" binding:"required"`
	Type        string `json:"type" binding:"required,oneof=i_owe owed_to_me"`
	DueDate     string `json:"due_date"`
	Description string `json:"description" binding:"max=255"`
}

type debtResp struct {
	ID          string          `json:"id"`
	PersonName  string          `json:"person_name"`
	AmountCent  int64           `json:"amount_cent"`
	Amount      string          `json:"amount"`
	Type        models.DebtType `json:"type"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	Description string          `json:"description"`
	IsPaid      bool            `json:"is_paid"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toDebtResp(d *models.Debt) debtResp {
	return debtResp{
		ID:          d.ID,
		PersonName:  d.PersonName,
		AmountCent:  d.AmountCent,
		Amount:      util.FormatCents(d.AmountCent),
		Type:        d.Type,
		DueDate:     d.DueDate,
		Description: d.Description,
		IsPaid:      d.IsPaid,
		CreatedAt:   d.CreatedAt,
	}
}

func (h *LedgerHandler) bindDebt(c *gin.Context) (ledger.DebtInput, bool) {
	var req debtReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return ledger.DebtInput{}, false
	}

	amount, err := util.ParseAmount(req.Amount)
	if err != nil {
		util.ErrorField(c, http.StatusBadRequest, util.CodeInvalidParam, "amount", "please enter a valid amount")
		return ledger.DebtInput{}, false
	}
	in := ledger.DebtInput{
		PersonName:  req.PersonName,
		AmountCent:  amount,
		Type:        models.DebtType(req.Type),
		Description: strings.TrimSpace(req.Description),
	}
	if strings.TrimSpace(req.DueDate) != "" {
		due, err := util.ParseDate(req.DueDate, requestLocation(c, h.Location))
		if err != nil {
			util.ErrorField(c, http.StatusBadRequest, util.CodeInvalidParam, "due_date", "invalid date")
			return ledger.DebtInput{}, false
		}
		in.DueDate = &due
	}
	return in, true
}

func (h *LedgerHandler) ListDebts(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var debts []models.Debt
	if err := h.Store.List(c.Request.Context(), store.Debts, user.ID, store.ByCreated, &debts); err != nil {
		writeError(c, h.Log, "list debts", err)
		return
	}

	items := make([]debtResp, 0, len(debts))
	for i := range debts {
		items = append(items, toDebtResp(&debts[i]))
	}
	util.Success(c, util.Response{
		"items": items,
	})
}

func (h *LedgerHandler) CreateDebt(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	in, ok := h.bindDebt(c)
	if !ok {
		return
	}

	d, err := h.Mutator.CreateDebt(c.Request.Context(), user.ID, in)
	if err != nil {
		writeError(c, h.Log, "create debt", err)
		return
	}
	util.Success(c, util.Response{
		"debt": toDebtResp(d),
	})
}

func (h *LedgerHandler) UpdateDebt(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	in, ok := h.bindDebt(c)
	if !ok {
		return
	}

	d, err := h.Mutator.UpdateDebt(c.Request.Context(), user.ID, c.Param("id"), in)
	if err != nil {
		writeError(c, h.Log, "update debt", err)
		return
	}
	util.Success(c, util.Response{
		"debt": toDebtResp(d),
	})
}

func (h *LedgerHandler) DeleteDebt(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	if err := h.Mutator.DeleteDebt(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		writeError(c, h.Log, "delete debt", err)
		return
	}
	util.Success(c, util.Response{
		"message": "debt deleted",
	})
}

// ToggleDebt flips the paid flag. Wallets and goals are not touched.
func (h *LedgerHandler) ToggleDebt(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	d, err := h.Mutator.ToggleDebtPaid(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		writeError(c, h.Log, "toggle debt", err)
		return
	}
	util.Success(c, util.Response{
		"debt": toDebtResp(d),
	})
}
