package api

import (
	"finance_tracker/internal/domain" // Importing domain models
	"finance_tracker/internal/ledger" // Balance engine
	"finance_tracker/internal/utils"  // Utility functions
	"net/http"                        // HTTP status codes
	"time"                            // Cache lifetime

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Exact money amounts
	"github.com/sirupsen/logrus"    // Logging library
)

// AddAccountRequest represents a new account
type AddAccountRequest struct {
	Name    string           `json:"account_name" binding:"required"` // Display name
	Balance *decimal.Decimal `json:"balance"`                         // Opening balance, zero when omitted
}

// UpdateAccountRequest overwrites the supplied account fields
type UpdateAccountRequest struct {
	AccountID string           `json:"accountId" binding:"required"` // Account to update
	Name      *string          `json:"account_name"`                 // New name
	Balance   *decimal.Decimal `json:"balance"`                      // Manual balance override
}

// invalidate drops the user's cached reads after a write
func invalidate(c *gin.Context, rdb *redis.Client, userID uint) {
	if err := utils.InvalidateUser(c.Request.Context(), rdb, userID); err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,      // Owner of the stale entries
			"error":   err.Error(), // Error message
		}).Warn("Failed to invalidate cache")
	}
}

// ListAccountsHandler returns the user's accounts, cached in Redis
func ListAccountsHandler(svc *ledger.Service, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()            // Context for Redis and DB
		cacheKey := utils.AccountsKey(userID) // Cache key for this user
		var cached []domain.Account
		// If cached data found, return it
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, cached)
			return
		}
		accounts, err := svc.ListAccounts(ctx, userID)
		if err != nil {
			abortWithError(c, err, "Failed to fetch accounts", logrus.Fields{"user_id": userID})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, accounts, ttl) // Cache the response for future requests
		c.JSON(http.StatusOK, accounts)
	}
}

// AddAccountHandler creates an account and returns the updated account list
func AddAccountHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		var req AddAccountRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		balance := decimal.Zero // Opening balance
		if req.Balance != nil {
			balance = *req.Balance
		}
		accounts, err := svc.AddAccount(c.Request.Context(), userID, req.Name, balance)
		if err != nil {
			abortWithError(c, err, "Failed to create account", logrus.Fields{"user_id": userID})
			return
		}
		invalidate(c, rdb, userID)
		c.JSON(http.StatusCreated, gin.H{"message": "Account created successfully", "accounts": accounts})
	}
}

// UpdateAccountHandler renames an account or overrides its balance
func UpdateAccountHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		var req UpdateAccountRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		upd := ledger.AccountUpdate{Name: req.Name, Balance: req.Balance}
		accounts, err := svc.UpdateAccount(c.Request.Context(), userID, req.AccountID, upd)
		if err != nil {
			abortWithError(c, err, "Failed to update account", logrus.Fields{
				"user_id":    userID,        // Caller
				"account_id": req.AccountID, // Target account
			})
			return
		}
		invalidate(c, rdb, userID)
		c.JSON(http.StatusOK, gin.H{"message": "Account updated successfully", "accounts": accounts})
	}
}

// DeleteAccountHandler removes an account and its transactions
func DeleteAccountHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		accountID := c.Param("accountId") // Account from the path
		accounts, err := svc.DeleteAccount(c.Request.Context(), userID, accountID)
		if err != nil {
			abortWithError(c, err, "Failed to delete account", logrus.Fields{
				"user_id":    userID,    // Caller
				"account_id": accountID, // Target account
			})
			return
		}
		invalidate(c, rdb, userID)
		c.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully", "accounts": accounts})
	}
}
