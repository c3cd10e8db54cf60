package ledger

import (
	"context"
	"errors"
	"fmt"

	"finance_tracker/internal/domain"
	"finance_tracker/internal/events"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Drift is an account whose stored balance disagrees with its transactions
type Drift struct {
	AccountID string          `json:"account_id"`
	UserID    uint            `json:"user_id"`
	Stored    decimal.Decimal `json:"stored"`
	Expected  decimal.Decimal `json:"expected"`
	Delta     decimal.Decimal `json:"delta"` // Expected - Stored
	Fixed     bool            `json:"fixed"`
}

// ReconcileReport summarizes one reconciliation pass
type ReconcileReport struct {
	Checked int                  `json:"checked"`
	Drifts  []Drift              `json:"drifts"`
	Orphans []domain.Transaction `json:"orphans"` // transactions whose account is gone
}

// Reconcile recomputes every account balance of userID (all users when 0) from
// its baseline and transactions. With fix set, drifted balances are overwritten
// with the recomputed value.
func (s *Service) Reconcile(ctx context.Context, userID uint, fix bool) (*ReconcileReport, error) {
	db := s.db.WithContext(ctx)

	var accounts []domain.Account
	q := db.Model(&domain.Account{}).Order("user_id asc").Order("created_at asc")
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	if err := q.Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	report := &ReconcileReport{Checked: len(accounts), Drifts: []Drift{}, Orphans: []domain.Transaction{}}
	for _, account := range accounts {
		drift, err := s.reconcileAccount(ctx, account.ID, account.UserID, fix)
		if errors.Is(err, ErrNotFound) {
			continue // deleted since listing
		}
		if err != nil {
			return nil, err
		}
		if drift == nil {
			continue
		}
		report.Drifts = append(report.Drifts, *drift)

		logrus.WithFields(logrus.Fields{
			"user_id":    drift.UserID,
			"account_id": drift.AccountID,
			"stored":     drift.Stored.String(),
			"expected":   drift.Expected.String(),
			"fixed":      drift.Fixed,
		}).Warn("Balance drift detected")
		s.publish(ctx, events.Event{
			Type:      events.AccountDrift,
			UserID:    drift.UserID,
			AccountID: drift.AccountID,
			Amount:    drift.Delta,
			Balance:   drift.Expected,
		})
	}

	orphans := db.Where("account_id NOT IN (?)", db.Model(&domain.Account{}).Select("id"))
	if userID != 0 {
		orphans = orphans.Where("user_id = ?", userID)
	}
	if err := orphans.Order("date desc").Find(&report.Orphans).Error; err != nil {
		return nil, fmt.Errorf("list orphan transactions: %w", err)
	}
	for _, t := range report.Orphans {
		logrus.WithFields(logrus.Fields{
			"user_id":        t.UserID,
			"account_id":     t.AccountID,
			"transaction_id": t.ID,
		}).Warn("Orphan transaction")
	}
	return report, nil
}

// reconcileAccount returns nil when the account is consistent
func (s *Service) reconcileAccount(ctx context.Context, accountID string, userID uint, fix bool) (*Drift, error) {
	var drift *Drift
	err := s.withRetry(ctx, "reconcile account", func(tx *gorm.DB) error {
		drift = nil
		account, err := loadAccount(tx, userID, accountID)
		if err != nil {
			return err
		}
		effects, err := sumEffects(tx, account.ID)
		if err != nil {
			return err
		}
		expected := account.InitialBalance.Add(effects)
		if expected.Equal(account.Balance) {
			return nil
		}
		drift = &Drift{
			AccountID: account.ID,
			UserID:    account.UserID,
			Stored:    account.Balance,
			Expected:  expected,
			Delta:     expected.Sub(account.Balance),
		}
		if !fix {
			return nil
		}
		account.Balance = expected
		if err := saveAccount(tx, account); err != nil {
			return err
		}
		drift.Fixed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return drift, nil
}
