package api

import (
	"finance_tracker/internal/domain" // Importing domain models
	"finance_tracker/internal/ledger" // Balance engine
	"finance_tracker/internal/utils"  // Utility functions
	"net/http"                        // HTTP status codes
	"strconv"                         // String conversion
	"strings"                         // String manipulation
	"time"                            // Cache lifetime

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// UserAdminResponse represents the user data returned to admin
type UserAdminResponse struct {
	ID       uint             `json:"id"`       // User ID
	Username string           `json:"username"` // Username
	Role     string           `json:"role"`     // User role
	Accounts []domain.Account `json:"accounts"` // Owned accounts
}

// pagination reads page and page_size, clamping page_size to 100
func pagination(c *gin.Context) (page, pageSize int) {
	page, pageSize = 1, 20 // Defaults
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		page = v // Set page if valid
	}
	if v, err := strconv.Atoi(c.Query("page_size")); err == nil && v > 0 && v <= 100 {
		pageSize = v // Set page size if valid
	}
	return page, pageSize
}

// ListUsersHandler returns all users with their accounts
func ListUsersHandler(db *gorm.DB, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()      // Context for Redis and DB
		page, pageSize := pagination(c) // Requested page
		// Create a cache key based on pagination parameters
		cacheKey := "admin:users:page=" + strconv.Itoa(page) + ":size=" + strconv.Itoa(pageSize)
		var cached struct {
			Users      []UserAdminResponse `json:"users"`       // List of users
			Page       int                 `json:"page"`        // Current page
			PageSize   int                 `json:"page_size"`   // Page size
			Total      int64               `json:"total"`       // Total number of users
			TotalPages int                 `json:"total_pages"` // Total pages
		}
		// If cached data found, return it
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, gin.H{
				"users":       cached.Users,      // List of users
				"page":        cached.Page,       // Current page
				"page_size":   cached.PageSize,   // Page size
				"total":       cached.Total,      // Total number of users
				"total_pages": cached.TotalPages, // Total pages
				"cached":      true,              // Indicate response is from cache
			})
			return
		}
		q := db.WithContext(ctx) // Request-scoped session
		var total int64          // Total user count
		if err := q.Model(&domain.User{}).Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count users"}) // Return on error
			return
		}
		var users []domain.User // Slice to hold users
		// Preload accounts in creation order, apply offset and limit for pagination
		err := q.Preload("Accounts", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at asc") }).
			Order("id asc").Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"}) // Return on error
			return
		}
		resp := make([]UserAdminResponse, len(users))
		// Map users to response format
		for i, u := range users {
			accounts := u.Accounts
			if accounts == nil {
				accounts = []domain.Account{}
			}
			resp[i] = UserAdminResponse{ID: u.ID, Username: u.Username, Role: u.Role, Accounts: accounts}
		}
		respData := gin.H{
			"users":       resp,                                   // List of users
			"page":        page,                                   // Current page
			"page_size":   pageSize,                               // Page size
			"total":       total,                                  // Total number of users
			"total_pages": (int(total) + pageSize - 1) / pageSize, // Total pages
			"cached":      false,                                  // Indicate response is not from cache
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, respData, ttl) // Cache the response for future requests
		c.JSON(http.StatusOK, respData)
	}
}

// AdminTransactionsHandler returns all transactions, filtered by user, account, type or date
func AdminTransactionsHandler(db *gorm.DB, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()      // Context for Redis and DB
		page, pageSize := pagination(c) // Requested page
		// Build cache key from all query params
		var keyParts []string
		for _, k := range []string{"user_id", "account_id", "type", "from", "to"} {
			keyParts = append(keyParts, k+"="+c.Query(k)) // Append key-value pair
		}
		keyParts = append(keyParts, "page="+strconv.Itoa(page), "size="+strconv.Itoa(pageSize))
		cacheKey := "admin:txs:" + strings.Join(keyParts, ":")
		var cached gin.H
		// If cached data found, return it
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			cached["cached"] = true // Indicate response is from cache
			c.JSON(http.StatusOK, cached)
			return
		}
		query := db.WithContext(ctx).Model(&domain.Transaction{}) // Start building the query
		if userID := c.Query("user_id"); userID != "" {
			query = query.Where("user_id = ?", userID) // Filter by user ID
		}
		if accountID := c.Query("account_id"); accountID != "" {
			query = query.Where("account_id = ?", accountID) // Filter by account ID
		}
		if txType := c.Query("type"); txType != "" {
			query = query.Where("type = ?", txType) // Filter by transaction type
		}
		// Filter by transaction date range
		for param, cond := range map[string]string{"from": "date >= ?", "to": "date <= ?"} {
			raw := c.Query(param)
			if raw == "" {
				continue
			}
			date, err := parseDate(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			query = query.Where(cond, date.UTC())
		}
		var total int64 // Total transaction count
		if err := query.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count transactions"})
			return
		}
		var txs []domain.Transaction // Slice to hold transactions
		if err := query.Order("date desc").Order("created_at desc").Offset((page - 1) * pageSize).Limit(pageSize).Find(&txs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
			return
		}
		respData := gin.H{
			"transactions": txs,                                    // List of transactions
			"page":         page,                                   // Current page
			"page_size":    pageSize,                               // Page size
			"total":        total,                                  // Total number of transactions
			"total_pages":  (int(total) + pageSize - 1) / pageSize, // Total pages
			"cached":       false,                                  // Indicate response is not from cache
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, respData, ttl) // Cache the response for future requests
		c.JSON(http.StatusOK, respData)
	}
}

// ReconcileHandler recomputes balances from transactions for one user, or all
// users when user_id is absent. fix=true overwrites drifted balances.
func ReconcileHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var userID uint // Zero means every user
		if raw := c.Query("user_id"); raw != "" {
			v, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || v == 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "user_id must be a positive integer"})
				return
			}
			userID = uint(v)
		}
		fix, _ := strconv.ParseBool(c.DefaultQuery("fix", "false")) // Only fix when asked
		report, err := svc.Reconcile(c.Request.Context(), userID, fix)
		if err != nil {
			abortWithError(c, err, "Reconciliation failed", logrus.Fields{"user_id": userID, "fix": fix})
			return
		}
		// Fixed balances make cached account lists stale
		if fix {
			for _, d := range report.Drifts {
				invalidate(c, rdb, d.UserID)
			}
		}
		c.JSON(http.StatusOK, report)
	}
}
