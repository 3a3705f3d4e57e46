package handler

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/muhfadtz/TrackFinance/internal/logger"
	"github.com/muhfadtz/TrackFinance/internal/models"
	"github.com/muhfadtz/TrackFinance/internal/store"
	"github.com/muhfadtz/TrackFinance/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportHandler writes a user's transactions as CSV or XLSX.
type ExportHandler struct {
	Store    *store.Store
	Location *time.Location
	Log      *slog.Logger
}

func NewExportHandler(s *store.Store, loc *time.Location, log *slog.Logger) *ExportHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ExportHandler{
		Store:    s,
		Location: loc,
		Log:      logger.Component(log, "export"),
	}
}

var exportHeader = []string{"Date", "Type", "Category", "Amount", "Wallet", "Note", "Allocated", "Goal"}

// rows loads transactions newest first, one string row each, with wallet
// and goal names resolved.
func (h *ExportHandler) rows(c *gin.Context, userID string) ([][]string, error) {
	ctx := c.Request.Context()

	var (
		txs     []models.Transaction
		wallets []models.Wallet
		goals   []models.Goal
	)
	if err := h.Store.List(ctx, store.Transactions, userID, store.ByDate, &txs); err != nil {
		return nil, err
	}
	if err := h.Store.List(ctx, store.Wallets, userID, store.Unordered, &wallets); err != nil {
		return nil, err
	}
	if err := h.Store.List(ctx, store.Goals, userID, store.Unordered, &goals); err != nil {
		return nil, err
	}

	walletNames := make(map[string]string, len(wallets))
	for _, w := range wallets {
		walletNames[w.ID] = w.Name
	}
	goalNames := make(map[string]string, len(goals))
	for _, g := range goals {
		goalNames[g.ID] = g.Title
	}

	loc := requestLocation(c, h.Location)
	rows := make([][]string, 0, len(txs))
	for _, t := range txs {
		var allocated, goal string
		if t.Allocated() {
			allocated = util.FormatCents(t.AllocatedCent)
			goal = goalNames[t.GoalID]
		}
		rows = append(rows, []string{
			t.Date.In(loc).Format("2006-01-02"),
			string(t.Type),
			t.Category,
			util.FormatCents(t.AmountCent),
			walletNames[t.WalletID],
			t.Note,
			allocated,
			goal,
		})
	}
	return rows, nil
}

func exportName(ext string) string {
	return fmt.Sprintf("transactions_%s.%s", time.Now().Format("20060102"), ext)
}

// ExportCSV exports transactions as CSV.
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	rows, err := h.rows(c, user.ID)
	if err != nil {
		writeError(c, h.Log, "export", err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", exportName("csv")))

	// BOM so spreadsheet apps detect UTF-8
	_, _ = c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	w := csv.NewWriter(c.Writer)
	_ = w.Write(exportHeader)
	_ = w.WriteAll(rows)
	if err := w.Error(); err != nil {
		h.Log.WarnContext(c.Request.Context(), "csv export interrupted",
			logger.FieldUserID, user.ID,
			logger.FieldError, err)
	}
}

// ExportXLSX exports transactions as an Excel workbook.
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	rows, err := h.rows(c, user.ID)
	if err != nil {
		writeError(c, h.Log, "export", err)
		return
	}

	f, err := buildWorkbook(rows)
	if err != nil {
		writeError(c, h.Log, "export", err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", exportName("xlsx")))
	if err := f.Write(c.Writer); err != nil {
		h.Log.WarnContext(c.Request.Context(), "xlsx export interrupted",
			logger.FieldUserID, user.ID,
			logger.FieldError, err)
		c.Status(http.StatusInternalServerError)
	}
}

const exportSheet = "Transactions"

func buildWorkbook(rows [][]string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		_ = f.Close()
		return nil, err
	}

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		_ = f.Close()
		return nil, err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &r); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	widths := map[string]float64{"A": 12, "B": 10, "C": 16, "D": 12, "E": 16, "F": 30, "G": 12, "H": 20}
	for col, w := range widths {
		_ = f.SetColWidth(exportSheet, col, col, w)
	}
	return f, nil
}
