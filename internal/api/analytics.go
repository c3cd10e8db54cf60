package api

import (
	"finance_tracker/internal/ledger" // Balance engine
	"finance_tracker/internal/report" // Analytics aggregation
	"finance_tracker/internal/utils"  // Utility functions
	"net/http"                        // HTTP status codes
	"time"                            // Cache lifetime

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// AnalyticsHandler summarizes an account's transactions over a timeframe
func AnalyticsHandler(svc *ledger.Service, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()                                    // Context for Redis and DB
		accountID := c.Param("accountId")                             // Account from the path
		tf := report.ParseTimeframe(c.Query("timeframe"))             // Requested window, month by default
		cacheKey := utils.AnalyticsKey(userID, accountID, string(tf)) // Cache key for this view
		var cached report.Summary
		// If cached data found, return it
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, gin.H{"summary": cached})
			return
		}
		txs, err := svc.ListTransactionsByAccount(ctx, userID, accountID)
		if err != nil {
			abortWithError(c, err, "Failed to build analytics", logrus.Fields{
				"user_id":    userID,    // Caller
				"account_id": accountID, // Target account
			})
			return
		}
		summary := report.Summarize(txs, tf, time.Now())
		_ = utils.SetCache(ctx, rdb, cacheKey, summary, ttl) // Cache the response for future requests
		c.JSON(http.StatusOK, gin.H{"summary": summary})
	}
}
