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
	"gorm.io/gorm"
)

// ---------- request / response ----------

type allocationReq struct {
	GoalID string `json:"goal_id"`
	Amount string `json:"amount"`
}

type createTransactionReq struct {
	Type       string         `json:"type" binding:"required"`
	Category   string         `json:"category"`
	Amount     string         `json:"amount" binding:"required"`
	WalletID   string         `json:"wallet_id"`
	Date       string         `json:"date"`
	Note       string         `json:"note"`
	Allocation *allocationReq `json:"allocation"`
}

type transactionResp struct {
	ID            string                 `json:"id"`
	Type          models.TransactionType `json:"type"`
	Category      string                 `json:"category"`
	AmountCent    int64                  `json:"amount_cent"`
	Amount        string                 `json:"amount"`
	WalletID      string                 `json:"wallet_id"`
	GoalID        string                 `json:"goal_id,omitempty"`
	AllocatedCent int64                  `json:"allocated_cent,omitempty"`
	Note          string                 `json:"note"`
	Date          time.Time              `json:"date"`
	CreatedAt     time.Time              `json:"created_at"`
}

func toTransactionResp(t *models.Transaction) transactionResp {
	return transactionResp{
		ID:            t.ID,
		Type:          t.Type,
		Category:      t.Category,
		AmountCent:    t.AmountCent,
		Amount:        util.FormatCents(t.AmountCent),
		WalletID:      t.WalletID,
		GoalID:        t.GoalID,
		AllocatedCent: t.AllocatedCent,
		Note:          t.Note,
		Date:          t.Date,
		CreatedAt:     t.CreatedAt,
	}
}

// ---------- record ----------

// CreateTransaction records income or expense against a wallet. The date
// defaults to now; income may route part of the amount into a goal.
func (h *LedgerHandler) CreateTransaction(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req createTransactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}

	amount, err := util.ParseAmount(req.Amount)
	if err != nil {
		util.ErrorField(c, http.StatusBadRequest, util.CodeInvalidParam, "amount", "please enter a valid amount")
		return
	}

	date := time.Now()
	if strings.TrimSpace(req.Date) != "" {
		date, err = util.ParseDate(req.Date, requestLocation(c, h.Location))
		if err != nil {
			util.ErrorField(c, http.StatusBadRequest, util.CodeInvalidParam, "date", "invalid date")
			return
		}
	}

	in := ledger.TransactionInput{
		AmountCent: amount,
		Type:       models.TransactionType(strings.ToLower(req.Type)),
		Category:   req.Category,
		WalletID:   req.WalletID,
		Date:       date,
		Note:       strings.TrimSpace(req.Note),
	}
	if a := req.Allocation; a != nil && (a.GoalID != "" || a.Amount != "") {
		alloc, err := util.ParseAmount(a.Amount)
		if err != nil {
			util.ErrorField(c, http.StatusBadRequest, util.CodeInvalidParam, "allocation.amount", "please enter a valid amount")
			return
		}
		in.Allocation = &ledger.Allocation{GoalID: a.GoalID, AmountCent: alloc}
	}

	tx, err := h.Mutator.RecordTransaction(c.Request.Context(), user.ID, in)
	if err != nil {
		writeError(c, h.Log, "record transaction", err)
		return
	}
	util.Success(c, util.Response{
		"transaction": toTransactionResp(tx),
	})
}

// ---------- list ----------

// ListTransactions returns the user's transactions, newest first, filtered
// by optional type, wallet_id, start and end (inclusive dates).
func (h *LedgerHandler) ListTransactions(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	scopes, ok := h.transactionFilters(c)
	if !ok {
		return
	}

	var txs []models.Transaction
	if err := h.Store.List(c.Request.Context(), store.Transactions, user.ID, store.ByDate, &txs, scopes...); err != nil {
		writeError(c, h.Log, "list transactions", err)
		return
	}

	items := make([]transactionResp, 0, len(txs))
	for i := range txs {
		items = append(items, toTransactionResp(&txs[i]))
	}
	util.Success(c, util.Response{
		"items": items,
		"total": len(items),
	})
}

func (h *LedgerHandler) transactionFilters(c *gin.Context) ([]func(*gorm.DB) *gorm.DB, bool) {
	var scopes []func(*gorm.DB) *gorm.DB
	loc := requestLocation(c, h.Location)

	if t := strings.ToLower(c.Query("type")); t != "" {
		if !models.TransactionType(t).Valid() {
			util.ErrorField(c, http.StatusBadRequest, util.CodeInvalidParam, "type", "type must be income or expense")
			return nil, false
		}
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("type = ?", t) })
	}
	if w := c.Query("wallet_id"); w != "" {
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("wallet_id = ?", w) })
	}
	if s := c.Query("start"); s != "" {
		start, err := util.ParseDate(s, loc)
		if err != nil {
			util.ErrorField(c, http.StatusBadRequest, util.CodeInvalidParam, "start", "invalid start date")
			return nil, false
		}
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("date >= ?", start.UTC()) })
	}
	if e := c.Query("end"); e != "" {
		end, err := util.ParseDate(e, loc)
		if err != nil {
			util.ErrorField(c, http.StatusBadRequest, util.CodeInvalidParam, "end", "invalid end date")
			return nil, false
		}
		// a bare date covers the whole day
		if len(strings.TrimSpace(e)) == len("2006-01-02") {
			end = end.AddDate(0, 0, 1)
		} else {
			end = end.Add(time.Nanosecond)
		}
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("date < ?", end.UTC()) })
	}
	return scopes, true
}
