package api

import (
	"finance_tracker/internal/config"     // Custom package for configuration
	"finance_tracker/internal/ledger"     // Balance engine
	"finance_tracker/internal/middleware" // Custom package for middleware

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// NewRouter wires every route onto a gin engine
func NewRouter(cfg *config.Config, db *gorm.DB, rdb *redis.Client, svc *ledger.Service) *gin.Engine {
	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default() // Gin router instance
	api := r.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.POST("/register", RegisterHandler(db))                      // Registration endpoint
	auth.POST("/login", LoginHandler(db, cfg.JWTSecret, cfg.JWTTTL)) // Login endpoint

	// Everything else requires a valid token
	protected := api.Group("")
	protected.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))

	// Account routes
	protected.GET("/accounts", ListAccountsHandler(svc, rdb, cfg.CacheTTL))  // List accounts endpoint
	protected.POST("/accounts", AddAccountHandler(svc, rdb))                 // Create account endpoint
	protected.PUT("/accounts", UpdateAccountHandler(svc, rdb))               // Update account endpoint
	protected.DELETE("/accounts/:accountId", DeleteAccountHandler(svc, rdb)) // Delete account endpoint

	// Transaction routes
	protected.POST("/transactions", AddTransactionHandler(svc, rdb))                           // Create transaction endpoint
	protected.PUT("/transactions", UpdateTransactionHandler(svc, rdb))                         // Update transaction endpoint
	protected.DELETE("/transactions/:id", DeleteTransactionHandler(svc, rdb))                  // Delete transaction endpoint
	protected.GET("/transactions/:accountId", ListTransactionsHandler(svc, rdb, cfg.CacheTTL)) // Transaction history endpoint

	// Analytics routes
	protected.GET("/analytics/:accountId", AnalyticsHandler(svc, rdb, cfg.CacheTTL)) // Account summary endpoint

	// Admin routes (admin only)
	admin := protected.Group("/admin")
	admin.Use(middleware.AdminOnlyMiddleware(db))
	admin.GET("/users", ListUsersHandler(db, rdb, cfg.CacheTTL))                // List users endpoint
	admin.GET("/transactions", AdminTransactionsHandler(db, rdb, cfg.CacheTTL)) // List transactions endpoint
	admin.POST("/reconcile", ReconcileHandler(svc, rdb))                        // Reconciliation endpoint

	return r
}
