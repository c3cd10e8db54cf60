package api

import (
	"finance_tracker/internal/domain" // Importing domain models
	"finance_tracker/internal/ledger" // Balance engine
	"finance_tracker/internal/utils"  // Utility functions
	"fmt"                             // Error formatting
	"net/http"                        // HTTP status codes
	"time"                            // Dates and cache lifetime

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Exact money amounts
	"github.com/sirupsen/logrus"    // Logging library
)

// TransactionRequest represents a transaction create or update
type TransactionRequest struct {
	TransactionID string          `json:"transactionId"` // Required on update only
	AccountID     string          `json:"accountId"`     // Account the effect lands on
	Amount        decimal.Decimal `json:"amount"`        // Strictly positive
	Type          string          `json:"type"`          // credit, debit, to_take, to_give
	Category      string          `json:"category"`      // One of the fixed categories
	Description   string          `json:"description"`   // Optional free text
	Date          string          `json:"date"`          // RFC3339 or YYYY-MM-DD
}

// parseDate accepts RFC3339 timestamps and plain YYYY-MM-DD days; empty means unset
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: date %q must be RFC3339 or YYYY-MM-DD", ledger.ErrValidation, s)
}

// input converts the request into ledger input
func (r TransactionRequest) input() (ledger.TransactionInput, error) {
	date, err := parseDate(r.Date)
	if err != nil {
		return ledger.TransactionInput{}, err
	}
	return ledger.TransactionInput{
		AccountID:   r.AccountID,
		Amount:      r.Amount,
		Type:        domain.TransactionType(r.Type),
		Category:    domain.Category(r.Category),
		Description: r.Description,
		Date:        date,
	}, nil
}

// bindTransaction binds and converts the request body, writing 400 on failure
func bindTransaction(c *gin.Context) (TransactionRequest, ledger.TransactionInput, bool) {
	var req TransactionRequest // Bind JSON request to struct
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return req, ledger.TransactionInput{}, false
	}
	in, err := req.input()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, in, false
	}
	return req, in, true
}

// AddTransactionHandler records a transaction and applies it to its account
func AddTransactionHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		req, in, ok := bindTransaction(c)
		if !ok {
			return
		}
		t, err := svc.AddTransaction(c.Request.Context(), userID, in)
		if err != nil {
			abortWithError(c, err, "Failed to create transaction", logrus.Fields{
				"user_id":    userID,        // Caller
				"account_id": req.AccountID, // Target account
			})
			return
		}
		invalidate(c, rdb, userID)
		c.JSON(http.StatusCreated, gin.H{"message": "Transaction created successfully", "transaction": t})
	}
}

// UpdateTransactionHandler replaces a transaction, reversing its old effect first
func UpdateTransactionHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		req, in, ok := bindTransaction(c)
		if !ok {
			return
		}
		if req.TransactionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "transactionId is required"})
			return
		}
		t, err := svc.UpdateTransaction(c.Request.Context(), userID, req.TransactionID, in)
		if err != nil {
			abortWithError(c, err, "Failed to update transaction", logrus.Fields{
				"user_id":        userID,            // Caller
				"transaction_id": req.TransactionID, // Target transaction
			})
			return
		}
		invalidate(c, rdb, userID)
		c.JSON(http.StatusOK, gin.H{"message": "Transaction updated successfully", "transaction": t})
	}
}

// DeleteTransactionHandler removes a transaction and reverses its effect
func DeleteTransactionHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		transactionID := c.Param("id") // Transaction from the path
		if err := svc.DeleteTransaction(c.Request.Context(), userID, transactionID); err != nil {
			abortWithError(c, err, "Failed to delete transaction", logrus.Fields{
				"user_id":        userID,        // Caller
				"transaction_id": transactionID, // Target transaction
			})
			return
		}
		invalidate(c, rdb, userID)
		c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
	}
}

// ListTransactionsHandler returns an account's transactions, newest first, cached in Redis
func ListTransactionsHandler(svc *ledger.Service, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()                           // Context for Redis and DB
		accountID := c.Param("accountId")                    // Account from the path
		cacheKey := utils.TransactionsKey(userID, accountID) // Cache key for this account
		var cached []domain.Transaction
		// If cached data found, return it
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, cached)
			return
		}
		txs, err := svc.ListTransactionsByAccount(ctx, userID, accountID)
		if err != nil {
			abortWithError(c, err, "Failed to fetch transactions", logrus.Fields{
				"user_id":    userID,    // Caller
				"account_id": accountID, // Target account
			})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, txs, ttl) // Cache the response for future requests
		c.JSON(http.StatusOK, txs)
	}
}
