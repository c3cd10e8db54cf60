package ledger

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error kinds returned by the ledger. Callers match them with errors.Is;
// the wrapping message names the id or constraint involved.
var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrValidation          = errors.New("validation failed")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrConflict            = errors.New("concurrent update conflict")
)

// errStaleAccount signals a lost compare-and-swap on an account row; it triggers a retry
var errStaleAccount = errors.New("stale account version")

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// lookupErr turns a gorm lookup failure for the named record into a ledger error
func lookupErr(kind string, id any, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %v: %w", kind, id, ErrNotFound)
	}
	return fmt.Errorf("load %s %v: %w", kind, id, err)
}
