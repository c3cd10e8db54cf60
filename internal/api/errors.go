package api

import (
	"errors"                              // Error matching
	"finance_tracker/internal/ledger"     // Ledger error kinds
	"finance_tracker/internal/middleware" // Authenticated user lookup
	"net/http"                            // HTTP status codes

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// statusFor maps a ledger error kind to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrInsufficientBalance), errors.Is(err, ledger.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ledger.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// abortWithError writes the error response for a failed ledger call.
// Unexpected errors are logged and hidden behind msg.
func abortWithError(c *gin.Context, err error, msg string, fields logrus.Fields) {
	status := statusFor(err) // Resolve status from the error kind
	if status == http.StatusInternalServerError {
		fields["error"] = err.Error()        // Error message
		logrus.WithFields(fields).Error(msg) // Log the failure
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()}) // Known kinds carry a safe message
}

// requireUser returns the authenticated user id, writing 401 when there is none
func requireUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.CurrentUserID(c) // Get userID from context
	if !ok {
		// If not, return unauthorized
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	return userID, true
}
