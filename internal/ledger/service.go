// Package ledger keeps every account balance in lockstep with the transactions
// recorded against it.
//
// Each operation runs inside a single database transaction. Account rows are
// written with a version-checked update; when another writer got there first
// the whole operation is rolled back and retried from a fresh read, so
// concurrent requests against one account never lose an update.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finance_tracker/internal/domain"
	"finance_tracker/internal/events"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DefaultMaxRetries is used when NewService is given a non-positive retry count
const DefaultMaxRetries = 5

// Service is the balance mutation engine
type Service struct {
	db         *gorm.DB
	publisher  events.Publisher
	maxRetries int
	now        func() time.Time
}

// NewService builds a Service. A nil publisher disables events.
func NewService(db *gorm.DB, publisher events.Publisher, maxRetries int) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Service{db: db, publisher: publisher, maxRetries: maxRetries, now: time.Now}
}

// withRetry runs fn in a database transaction, retrying while account writes lose the version race
func (s *Service) withRetry(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	for attempt := 1; ; attempt++ {
		err := s.db.WithContext(ctx).Transaction(fn)
		if !errors.Is(err, errStaleAccount) {
			return err
		}
		if attempt >= s.maxRetries {
			logrus.WithFields(logrus.Fields{"op": op, "attempts": attempt}).Error("Giving up on stale account")
			return fmt.Errorf("%s: gave up after %d attempts: %w", op, attempt, ErrConflict)
		}
		logrus.WithFields(logrus.Fields{"op": op, "attempt": attempt}).Warn("Stale account version, retrying")
	}
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	event.OccurredAt = s.now().UTC()
	if err := s.publisher.Publish(ctx, event); err != nil {
		logrus.WithFields(logrus.Fields{
			"type":       event.Type,
			"account_id": event.AccountID,
			"error":      err.Error(),
		}).Error("Failed to publish event")
	}
}

func loadUser(tx *gorm.DB, userID uint) (*domain.User, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	var user domain.User
	if err := tx.First(&user, userID).Error; err != nil {
		return nil, lookupErr("user", userID, err)
	}
	return &user, nil
}

// loadAccount resolves accountID among the accounts owned by userID
func loadAccount(tx *gorm.DB, userID uint, accountID string) (*domain.Account, error) {
	var account domain.Account
	if err := tx.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
		return nil, lookupErr("account", fmt.Sprintf("%q", accountID), err)
	}
	return &account, nil
}

// saveAccount writes the mutable account fields if nobody else has written the row since it was read
func saveAccount(tx *gorm.DB, account *domain.Account) error {
	res := tx.Model(&domain.Account{}).
		Where("id = ? AND version = ?", account.ID, account.Version).
		Updates(map[string]any{
			"name":            account.Name,
			"balance":         account.Balance,
			"initial_balance": account.InitialBalance,
			"version":         account.Version + 1,
		})
	if res.Error != nil {
		return fmt.Errorf("save account %q: %w", account.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return errStaleAccount
	}
	account.Version++
	return nil
}

// MoneyScale is the number of decimal places amounts and balances are stored with
const MoneyScale = 2

// MaxMoney is the exclusive bound on the magnitude of any amount or balance.
// Below it a two-place value survives every store exactly, including SQLite,
// which keeps decimal columns as float64.
var MaxMoney = decimal.New(1, 13)

// checkMoney rejects values the decimal(20,2) columns would round or truncate
func checkMoney(field string, x decimal.Decimal) error {
	if !x.Equal(x.Round(MoneyScale)) {
		return validationErr("%s %s has more than %d decimal places", field, x, MoneyScale)
	}
	if x.Abs().GreaterThanOrEqual(MaxMoney) {
		return validationErr("%s %s is out of range, magnitude must be below %s", field, x, MaxMoney)
	}
	return nil
}

// checkBalance rejects a computed balance that could not be stored exactly
func checkBalance(account *domain.Account) error {
	if account.Balance.Abs().GreaterThanOrEqual(MaxMoney) {
		return validationErr("account %q balance would reach %s, magnitude must be below %s",
			account.ID, account.Balance, MaxMoney)
	}
	return nil
}

// apply adds the effect of (amount, typ) to the account, refusing to take more than it holds
func apply(account *domain.Account, amount decimal.Decimal, typ domain.TransactionType) error {
	if typ.Decreases() && account.Balance.LessThan(amount) {
		return fmt.Errorf("account %q holds %s, %s of %s: %w",
			account.ID, account.Balance.StringFixed(2), typ, amount.StringFixed(2), ErrInsufficientBalance)
	}
	account.Balance = account.Balance.Add(domain.Effect(amount, typ))
	return checkBalance(account)
}

// withdraw takes the effect of (amount, typ) back from an account the
// transaction is leaving, refusing to take back more than it holds
func withdraw(account *domain.Account, amount decimal.Decimal, typ domain.TransactionType) error {
	if !typ.Decreases() && account.Balance.LessThan(amount) {
		return fmt.Errorf("account %q holds %s, cannot give up %s of %s: %w",
			account.ID, account.Balance.StringFixed(2), typ, amount.StringFixed(2), ErrInsufficientBalance)
	}
	reverse(account, amount, typ)
	return checkBalance(account)
}

// reverse undoes the effect of (amount, typ)
func reverse(account *domain.Account, amount decimal.Decimal, typ domain.TransactionType) {
	account.Balance = account.Balance.Sub(domain.Effect(amount, typ))
}

// sumEffects totals the effect of every transaction recorded against accountID
func sumEffects(tx *gorm.DB, accountID string) (decimal.Decimal, error) {
	var txns []domain.Transaction
	if err := tx.Select("amount", "type").Where("account_id = ?", accountID).Find(&txns).Error; err != nil {
		return decimal.Zero, fmt.Errorf("sum transactions of account %q: %w", accountID, err)
	}
	total := decimal.Zero
	for _, t := range txns {
		total = total.Add(t.Effect())
	}
	return total, nil
}
