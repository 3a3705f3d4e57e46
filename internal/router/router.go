package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/muhfadtz/TrackFinance/internal/config"
	"github.com/muhfadtz/TrackFinance/internal/handler"
	"github.com/muhfadtz/TrackFinance/internal/ledger"
	"github.com/muhfadtz/TrackFinance/internal/middleware"
	"github.com/muhfadtz/TrackFinance/internal/models"
	"github.com/muhfadtz/TrackFinance/internal/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter configures the Gin engine with every API route. A nil google
// verifier is built from the configured client id.
func SetupRouter(cfg *config.Config, db *gorm.DB, st *store.Store, google handler.GoogleVerifier, log *slog.Logger) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	if google == nil {
		google = handler.NewGoogleVerifier(cfg.Auth.GoogleClientID)
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(log), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	loc := time.Local
	mutator := ledger.NewMutator(st, log)
	sessions := handler.NewSessions(st, cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpireHours)
	profiles := &handler.Profiles{
		Store: st,
		Defaults: models.Profile{
			Theme:    cfg.App.DefaultTheme,
			Currency: cfg.App.DefaultCurrency,
		},
	}

	api := r.Group("/api")

	// sign-up and sign-in need no token
	authHandler := handler.NewAuthHandler(db, sessions, profiles, google, cfg.Security.BcryptCost, log)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/google", authHandler.Google)

	protected := api.Group("")
	protected.Use(
		middleware.AuthMiddleware(cfg.JWT.Secret, db),
		middleware.AuditMiddleware(db, cfg.Security.EncryptionKey, log),
	)

	protected.POST("/auth/logout", authHandler.Logout)

	accountHandler := handler.NewAccountHandler(db, sessions, profiles, cfg.Security.BcryptCost, log)
	protected.GET("/me", accountHandler.GetMe)
	protected.POST("/profile", accountHandler.UpdateProfile)
	protected.POST("/profile/password", accountHandler.ChangePassword)
	protected.GET("/settings", accountHandler.GetSettings)
	protected.PUT("/settings", accountHandler.UpdateSettings)
	protected.GET("/categories", accountHandler.Categories)
	protected.GET("/currencies", accountHandler.Currencies)

	ledgerHandler := handler.NewLedgerHandler(st, mutator, loc, log)
	protected.GET("/wallets", ledgerHandler.ListWallets)
	protected.POST("/wallets", ledgerHandler.CreateWallet)
	protected.PUT("/wallets/:id", ledgerHandler.UpdateWallet)
	protected.DELETE("/wallets/:id", ledgerHandler.DeleteWallet)

	protected.GET("/transactions", ledgerHandler.ListTransactions)
	protected.POST("/transactions", ledgerHandler.CreateTransaction)

	protected.GET("/goals", ledgerHandler.ListGoals)
	protected.POST("/goals", ledgerHandler.CreateGoal)

	protected.GET("/debts", ledgerHandler.ListDebts)
	protected.POST("/debts", ledgerHandler.CreateDebt)
	protected.PUT("/debts/:id", ledgerHandler.UpdateDebt)
	protected.DELETE("/debts/:id", ledgerHandler.DeleteDebt)
	protected.POST("/debts/:id/toggle", ledgerHandler.ToggleDebt)

	dashboardHandler := handler.NewDashboardHandler(st, mutator, profiles,
		cfg.App.ActivityWindowDays, cfg.App.Locale, loc, log)
	protected.GET("/dashboard", dashboardHandler.GetDashboard)
	protected.GET("/stream", dashboardHandler.Stream)

	backupHandler := handler.NewBackupHandler(db, mutator, cfg.Security.EncryptionKey, cfg.Backup.Dir, log)
	protected.POST("/backups", backupHandler.CreateBackup)
	protected.GET("/backups", backupHandler.ListBackups)
	protected.GET("/backups/:id/download", backupHandler.DownloadBackup)
	protected.POST("/backups/:id/restore", backupHandler.RestoreBackup)
	protected.DELETE("/backups/:id", backupHandler.DeleteBackup)

	logHandler := handler.NewLogHandler(db, cfg.Security.EncryptionKey, loc, log)
	protected.GET("/logs", logHandler.ListLogs)
	protected.GET("/history", logHandler.ListHistory)

	exportHandler := handler.NewExportHandler(st, loc, log)
	protected.GET("/export/csv", exportHandler.ExportCSV)
	protected.GET("/export/xlsx", exportHandler.ExportXLSX)

	return r
}
