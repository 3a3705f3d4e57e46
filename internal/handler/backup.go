package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/muhfadtz/TrackFinance/internal/ledger"
	"github.com/muhfadtz/TrackFinance/internal/logger"
	"github.com/muhfadtz/TrackFinance/internal/models"
	"github.com/muhfadtz/TrackFinance/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BackupHandler manages encrypted snapshots of a user's ledger.
type BackupHandler struct {
	DB         *gorm.DB
	Mutator    *ledger.Mutator
	EncryptKey string
	BackupDir  string
	Log        *slog.Logger
}

func NewBackupHandler(db *gorm.DB, m *ledger.Mutator, encryptKey, backupDir string, log *slog.Logger) *BackupHandler {
	return &BackupHandler{
		DB:         db,
		Mutator:    m,
		EncryptKey: encryptKey,
		BackupDir:  backupDir,
		Log:        logger.Component(log, "backup"),
	}
}

// backupData is the plaintext of a backup file.
type backupData struct {
	Version int            `json:"version"`
	UserID  string         `json:"user_id"`
	Created time.Time      `json:"created"`
	Ledger  *models.Ledger `json:"ledger"`
}

const backupVersion = 1

func backupJSON(b *models.Backup) gin.H {
	return gin.H{
		"id":         b.ID,
		"file_name":  b.FileName,
		"size":       b.Size,
		"created_at": b.CreatedAt,
	}
}

// CreateBackup writes the user's whole ledger to an encrypted file.
func (h *BackupHandler) CreateBackup(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	ctx := c.Request.Context()

	l, err := h.Mutator.Load(ctx, user.ID)
	if err != nil {
		writeError(c, h.Log, "create backup", err)
		return
	}
	raw, err := json.Marshal(&backupData{
		Version: backupVersion,
		UserID:  user.ID,
		Created: time.Now().UTC(),
		Ledger:  l,
	})
	if err != nil {
		writeError(c, h.Log, "create backup", err)
		return
	}
	enc, err := util.EncryptAES(h.EncryptKey, raw)
	if err != nil {
		writeError(c, h.Log, "create backup", err)
		return
	}

	if err := os.MkdirAll(h.BackupDir, 0o755); err != nil {
		writeError(c, h.Log, "create backup", err)
		return
	}
	fileName := fmt.Sprintf("backup-%s-%s.bin", time.Now().Format("20060102-150405"), uuid.NewString()[:8])
	filePath := filepath.Join(h.BackupDir, fileName)
	if err := os.WriteFile(filePath, enc, 0o600); err != nil {
		writeError(c, h.Log, "create backup", err)
		return
	}

	backup := models.Backup{
		UserID:   user.ID,
		FileName: fileName,
		FilePath: filePath,
		Size:     int64(len(enc)),
	}
	if err := h.DB.WithContext(ctx).Create(&backup).Error; err != nil {
		_ = os.Remove(filePath)
		writeError(c, h.Log, "create backup", err)
		return
	}

	h.Log.InfoContext(ctx, "backup created",
		logger.FieldUserID, user.ID,
		"backup_id", backup.ID,
		"transactions", len(l.Transactions))
	util.Success(c, util.Response{
		"backup": backupJSON(&backup),
	})
}

// ListBackups lists the user's backups, newest first.
func (h *BackupHandler) ListBackups(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var list []models.Backup
	if err := h.DB.WithContext(c.Request.Context()).
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		writeError(c, h.Log, "list backups", err)
		return
	}

	items := make([]gin.H, 0, len(list))
	for i := range list {
		items = append(items, backupJSON(&list[i]))
	}
	util.Success(c, util.Response{
		"items": items,
	})
}

// find loads one of the user's backups, writing 404 when absent.
func (h *BackupHandler) find(c *gin.Context, userID string) (*models.Backup, bool) {
	var backup models.Backup
	err := h.DB.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", c.Param("id"), userID).
		First(&backup).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "backup not found")
		return nil, false
	}
	if err != nil {
		writeError(c, h.Log, "load backup", err)
		return nil, false
	}
	return &backup, true
}

func (h *BackupHandler) DownloadBackup(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	backup, ok := h.find(c, user.ID)
	if !ok {
		return
	}

	c.Header("Content-Type", "application/octet-stream")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", backup.FileName))
	c.File(backup.FilePath)
}

// DeleteBackup removes the file first, then the record.
func (h *BackupHandler) DeleteBackup(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	backup, ok := h.find(c, user.ID)
	if !ok {
		return
	}

	if err := os.Remove(backup.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		writeError(c, h.Log, "delete backup", err)
		return
	}
	if err := h.DB.WithContext(c.Request.Context()).Delete(backup).Error; err != nil {
		writeError(c, h.Log, "delete backup", err)
		return
	}
	util.Success(c, util.Response{
		"message": "backup deleted",
	})
}

// RestoreBackup replaces the user's ledger with the backup's contents in a
// single atomic batch.
func (h *BackupHandler) RestoreBackup(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	backup, ok := h.find(c, user.ID)
	if !ok {
		return
	}

	enc, err := os.ReadFile(backup.FilePath)
	if err != nil {
		writeError(c, h.Log, "restore backup", err)
		return
	}
	raw, err := util.DecryptAES(h.EncryptKey, enc)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "backup file cannot be decrypted")
		return
	}
	var data backupData
	if err := json.Unmarshal(raw, &data); err != nil || data.Ledger == nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "backup file is corrupt")
		return
	}
	if data.UserID != user.ID {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "backup belongs to another account")
		return
	}

	if err := h.Mutator.Restore(c.Request.Context(), user.ID, data.Ledger); err != nil {
		writeError(c, h.Log, "restore backup", err)
		return
	}
	util.Success(c, util.Response{
		"message":            "backup restored",
		"wallets_count":      len(data.Ledger.Wallets),
		"transactions_count": len(data.Ledger.Transactions),
		"goals_count":        len(data.Ledger.Goals),
		"debts_count":        len(data.Ledger.Debts),
	})
}
