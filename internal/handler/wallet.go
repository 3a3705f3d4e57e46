package handler

import (
	"net/http"
	"time"

	"github.com/muhfadtz/TrackFinance/internal/ledger"
	"github.com/muhfadtz/TrackFinance/internal/models"
	"github.com/muhfadtz/TrackFinance/internal/store"
	"github.com/muhfadtz/TrackFinance/internal/util"

	"github.com/gin-gonic/gin"
)

type walletReq struct {
	Name    string `json:"name" binding:"required,max=64"`
	Type    string `json:"type" binding:"required,oneof=cash bank ewallet"`
	Balance string `json:"balance"`
}

type walletResp struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Type        models.WalletType `json:"type"`
	BalanceCent int64             `json:"balance_cent"`
	Balance     string            `json:"balance"`
	CreatedAt   time.Time         `json:"created_at"`
}

func toWalletResp(w *models.Wallet) walletResp {
	return walletResp{
		ID:          w.ID,
		Name:        w.Name,
		Type:        w.Type,
		BalanceCent: w.BalanceCent,
		Balance:     util.FormatCents(w.BalanceCent),
		CreatedAt:   w.CreatedAt,
	}
}

func (r *walletReq) input(c *gin.Context) (ledger.WalletInput, bool) {
	in := ledger.WalletInput{Name: r.Name, Type: models.WalletType(r.Type)}
	if r.Balance != "" {
		cents, err := util.ParseAmount(r.Balance)
		if err != nil {
			util.ErrorField(c, http.StatusBadRequest, util.CodeInvalidParam, "balance", "invalid amount")
			return in, false
		}
		in.BalanceCent = cents
	}
	return in, true
}

func (h *LedgerHandler) ListWallets(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var wallets []models.Wallet
	if err := h.Store.List(c.Request.Context(), store.Wallets, user.ID, store.ByCreated, &wallets); err != nil {
		writeError(c, h.Log, "list wallets", err)
		return
	}

	items := make([]walletResp, 0, len(wallets))
	for i := range wallets {
		items = append(items, toWalletResp(&wallets[i]))
	}
	util.Success(c, util.Response{
		"items": items,
	})
}

func (h *LedgerHandler) CreateWallet(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req walletReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}
	in, ok := req.input(c)
	if !ok {
		return
	}

	w, err := h.Mutator.CreateWallet(c.Request.Context(), user.ID, in)
	if err != nil {
		writeError(c, h.Log, "create wallet", err)
		return
	}
	util.Success(c, util.Response{
		"wallet": toWalletResp(w),
	})
}

// UpdateWallet replaces name, type and balance. The balance is taken as is.
func (h *LedgerHandler) UpdateWallet(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req walletReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request")
		return
	}
	in, ok := req.input(c)
	if !ok {
		return
	}

	w, err := h.Mutator.UpdateWallet(c.Request.Context(), user.ID, c.Param("id"), in)
	if err != nil {
		writeError(c, h.Log, "update wallet", err)
		return
	}
	util.Success(c, util.Response{
		"wallet": toWalletResp(w),
	})
}

func (h *LedgerHandler) DeleteWallet(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	if err := h.Mutator.DeleteWallet(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		writeError(c, h.Log, "delete wallet", err)
		return
	}
	util.Success(c, util.Response{
		"message": "wallet deleted",
	})
}
