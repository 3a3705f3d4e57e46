package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/muhfadtz/TrackFinance/internal/logger"
	"github.com/muhfadtz/TrackFinance/internal/models"
	"github.com/muhfadtz/TrackFinance/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// LogHandler serves the audit trail.
type LogHandler struct {
	DB         *gorm.DB
	EncryptKey string
	Location   *time.Location
	Log        *slog.Logger
}

func NewLogHandler(db *gorm.DB, encryptKey string, loc *time.Location, log *slog.Logger) *LogHandler {
	if loc == nil {
		loc = time.Local
	}
	return &LogHandler{
		DB:         db,
		EncryptKey: encryptKey,
		Location:   loc,
		Log:        logger.Component(log, "audit"),
	}
}

type logResp struct {
	ID        uint      `json:"id"`
	Action    string    `json:"action"`
	Path      string    `json:"path"`
	Method    string    `json:"method"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *LogHandler) decode(l *models.AuditLog) logResp {
	return logResp{
		ID:        l.ID,
		Action:    util.DecryptField(h.EncryptKey, l.ActionEnc),
		Path:      util.DecryptField(h.EncryptKey, l.PathEnc),
		Method:    l.Method,
		IP:        l.IP,
		UserAgent: l.UserAgent,
		CreatedAt: l.CreatedAt,
	}
}

func pageParams(c *gin.Context, defSize int) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	size, _ = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defSize)))
	if size <= 0 || size > 100 {
		size = defSize
	}
	return page, size
}

func paginate[T any](items []T, page, size int) []T {
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// load reads the user's logs in the optional [start, end] date range,
// newest first, and decrypts them.
func (h *LogHandler) load(c *gin.Context, userID string) ([]logResp, bool) {
	loc := requestLocation(c, h.Location)
	q := h.DB.WithContext(c.Request.Context()).
		Model(&models.AuditLog{}).
		Where("user_id = ?", userID)

	if s := c.Query("start"); s != "" {
		start, err := util.ParseDate(s, loc)
		if err != nil {
			util.ErrorField(c, http.StatusBadRequest, util.CodeInvalidParam, "start", "invalid date")
			return nil, false
		}
		q = q.Where("created_at >= ?", start.UTC())
	}
	if s := c.Query("end"); s != "" {
		end, err := util.ParseDate(s, loc)
		if err != nil {
			util.ErrorField(c, http.StatusBadRequest, util.CodeInvalidParam, "end", "invalid date")
			return nil, false
		}
		q = q.Where("created_at < ?", end.AddDate(0, 0, 1).UTC())
	}

	var logs []models.AuditLog
	if err := q.Order("created_at DESC, id DESC").Find(&logs).Error; err != nil {
		writeError(c, h.Log, "list logs", err)
		return nil, false
	}

	out := make([]logResp, 0, len(logs))
	for i := range logs {
		out = append(out, h.decode(&logs[i]))
	}
	return out, true
}

// ListLogs lists the user's audit log. The keyword filter q matches the
// decrypted path and action, so it runs after decryption.
func (h *LogHandler) ListLogs(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	page, size := pageParams(c, 20)

	logs, ok := h.load(c, user.ID)
	if !ok {
		return
	}
	if kw := strings.ToLower(strings.TrimSpace(c.Query("q"))); kw != "" {
		kept := logs[:0]
		for _, l := range logs {
			if strings.Contains(strings.ToLower(l.Path), kw) || strings.Contains(strings.ToLower(l.Action), kw) {
				kept = append(kept, l)
			}
		}
		logs = kept
	}

	util.Success(c, util.Response{
		"items": paginate(logs, page, size),
		"total": len(logs),
		"page":  page,
		"size":  size,
	})
}

// ledgerOperation names the ledger mutation a request performed, or ""
// for anything else.
func ledgerOperation(method, path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || parts[0] != "api" {
		return ""
	}
	kind := map[string]string{
		"wallets":      "wallet",
		"transactions": "transaction",
		"goals":        "goal",
		"debts":        "debt",
	}[parts[1]]
	if kind == "" {
		return ""
	}

	switch {
	case method == http.MethodPost && len(parts) == 2:
		return "create " + kind
	case method == http.MethodPut && len(parts) == 3:
		return "update " + kind
	case method == http.MethodDelete && len(parts) == 3:
		return "delete " + kind
	case method == http.MethodPost && len(parts) == 4 && parts[3] == "toggle":
		return "toggle " + kind
	}
	return ""
}

type historyResp struct {
	ID        uint      `json:"id"`
	Operation string    `json:"operation"`
	Path      string    `json:"path"`
	IP        string    `json:"ip"`
	CreatedAt time.Time `json:"created_at"`
}

// ListHistory lists the ledger mutations among the user's audit log.
func (h *LogHandler) ListHistory(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	page, size := pageParams(c, 50)

	logs, ok := h.load(c, user.ID)
	if !ok {
		return
	}
	items := make([]historyResp, 0, len(logs))
	for _, l := range logs {
		op := ledgerOperation(l.Method, l.Path)
		if op == "" {
			continue
		}
		items = append(items, historyResp{
			ID:        l.ID,
			Operation: op,
			Path:      l.Path,
			IP:        l.IP,
			CreatedAt: l.CreatedAt,
		})
	}

	util.Success(c, util.Response{
		"items": paginate(items, page, size),
		"total": len(items),
		"page":  page,
		"size":  size,
	})
}
