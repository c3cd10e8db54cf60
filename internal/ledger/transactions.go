package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"finance_tracker/internal/domain"
	"finance_tracker/internal/events"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// TransactionInput carries the caller-supplied fields of a transaction
type TransactionInput struct {
	AccountID   string
	Amount      decimal.Decimal
	Type        domain.TransactionType
	Category    domain.Category
	Description string
	Date        *time.Time // nil means now on create and unchanged on update
}

func (in TransactionInput) validate() error {
	if strings.TrimSpace(in.AccountID) == "" {
		return validationErr("accountId is required")
	}
	if !in.Amount.IsPositive() {
		return validationErr("amount must be greater than 0, got %s", in.Amount)
	}
	if err := checkMoney("amount", in.Amount); err != nil {
		return err
	}
	if !in.Type.Valid() {
		return validationErr("type %q is not one of %v", in.Type, domain.TransactionTypes)
	}
	if !in.Category.Valid() {
		return validationErr("category %q is not one of %v", in.Category, domain.Categories)
	}
	return nil
}

// AddTransaction records a new transaction and applies its effect to the account
func (s *Service) AddTransaction(ctx context.Context, userID uint, in TransactionInput) (*domain.Transaction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var created domain.Transaction
	var balance decimal.Decimal
	err := s.withRetry(ctx, "add transaction", func(tx *gorm.DB) error {
		if _, err := loadUser(tx, userID); err != nil {
			return err
		}
		account, err := loadAccount(tx, userID, in.AccountID)
		if err != nil {
			return err
		}
		if err := apply(account, in.Amount, in.Type); err != nil {
			return err
		}

		date := s.now()
		if in.Date != nil {
			date = *in.Date
		}
		created = domain.Transaction{
			ID:          uuid.NewString(),
			UserID:      userID,
			AccountID:   account.ID,
			Amount:      in.Amount,
			Type:        in.Type,
			Category:    in.Category,
			Description: in.Description,
			Date:        date.UTC(),
		}
		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		if err := saveAccount(tx, account); err != nil {
			return err
		}
		balance = account.Balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":        userID,
		"account_id":     created.AccountID,
		"transaction_id": created.ID,
		"amount":         created.Amount.String(),
		"type":           created.Type,
		"balance":        balance.String(),
	}).Info("Transaction added")
	s.publish(ctx, events.Event{
		Type:          events.TransactionCreated,
		UserID:        userID,
		AccountID:     created.AccountID,
		TransactionID: created.ID,
		Amount:        created.Amount,
		Balance:       balance,
	})
	return &created, nil
}

// UpdateTransaction replaces every field of a transaction. The old effect is
// reversed and the new one applied against the same account snapshot; if the
// account changes, the old account gives up the effect and the new one takes it.
func (s *Service) UpdateTransaction(ctx context.Context, userID uint, transactionID string, in TransactionInput) (*domain.Transaction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var updated domain.Transaction
	var balance decimal.Decimal
	err := s.withRetry(ctx, "update transaction", func(tx *gorm.DB) error {
		if _, err := loadUser(tx, userID); err != nil {
			return err
		}
		var current domain.Transaction
		if err := tx.First(&current, "id = ?", transactionID).Error; err != nil {
			return lookupErr("transaction", fmt.Sprintf("%q", transactionID), err)
		}
		if current.UserID != userID {
			return fmt.Errorf("transaction %q belongs to another user: %w", transactionID, ErrForbidden)
		}

		target, err := loadAccount(tx, userID, in.AccountID)
		if err != nil {
			return err
		}
		source := target
		if current.AccountID != target.ID {
			if source, err = loadAccount(tx, userID, current.AccountID); err != nil {
				return err
			}
		}

		// undo with the stored amount and type; an account the transaction
		// leaves must still cover the effect it gives up
		if source == target {
			reverse(source, current.Amount, current.Type)
		} else if err := withdraw(source, current.Amount, current.Type); err != nil {
			return err
		}

		current.AccountID = target.ID
		current.Amount = in.Amount
		current.Type = in.Type
		current.Category = in.Category
		current.Description = in.Description
		if in.Date != nil {
			current.Date = in.Date.UTC()
		}

		// a failure here rolls back, discarding the half-reversed snapshot
		if err := apply(target, current.Amount, current.Type); err != nil {
			return err
		}

		if err := tx.Save(&current).Error; err != nil {
			return fmt.Errorf("save transaction %q: %w", current.ID, err)
		}
		if source != target {
			if err := saveAccount(tx, source); err != nil {
				return err
			}
		}
		if err := saveAccount(tx, target); err != nil {
			return err
		}
		updated = current
		balance = target.Balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":        userID,
		"account_id":     updated.AccountID,
		"transaction_id": updated.ID,
		"amount":         updated.Amount.String(),
		"type":           updated.Type,
		"balance":        balance.String(),
	}).Info("Transaction updated")
	s.publish(ctx, events.Event{
		Type:          events.TransactionUpdated,
		UserID:        userID,
		AccountID:     updated.AccountID,
		TransactionID: updated.ID,
		Amount:        updated.Amount,
		Balance:       balance,
	})
	return &updated, nil
}

// DeleteTransaction reverses a transaction's effect and removes it. When the
// referenced account no longer exists the call fails with ErrNotFound and the
// record is left in place; reconciliation reports it as an orphan.
func (s *Service) DeleteTransaction(ctx context.Context, userID uint, transactionID string) error {
	if userID == 0 {
		return ErrUnauthorized
	}

	var deleted domain.Transaction
	var balance decimal.Decimal
	err := s.withRetry(ctx, "delete transaction", func(tx *gorm.DB) error {
		var current domain.Transaction
		if err := tx.First(&current, "id = ?", transactionID).Error; err != nil {
			return lookupErr("transaction", fmt.Sprintf("%q", transactionID), err)
		}
		if current.UserID != userID {
			return fmt.Errorf("transaction %q belongs to another user: %w", transactionID, ErrForbidden)
		}
		if _, err := loadUser(tx, current.UserID); err != nil {
			return err
		}
		account, err := loadAccount(tx, current.UserID, current.AccountID)
		if err != nil {
			return err
		}

		reverse(account, current.Amount, current.Type)
		if err := checkBalance(account); err != nil {
			return err
		}
		if err := saveAccount(tx, account); err != nil {
			return err
		}
		if err := tx.Delete(&current).Error; err != nil {
			return fmt.Errorf("delete transaction %q: %w", current.ID, err)
		}
		deleted = current
		balance = account.Balance
		return nil
	})
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":        userID,
		"account_id":     deleted.AccountID,
		"transaction_id": deleted.ID,
		"balance":        balance.String(),
	}).Info("Transaction deleted")
	s.publish(ctx, events.Event{
		Type:          events.TransactionDeleted,
		UserID:        userID,
		AccountID:     deleted.AccountID,
		TransactionID: deleted.ID,
		Amount:        deleted.Amount,
		Balance:       balance,
	})
	return nil
}

// ListTransactionsByAccount returns the caller's transactions on accountID, newest date first
func (s *Service) ListTransactionsByAccount(ctx context.Context, userID uint, accountID string) ([]domain.Transaction, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	if strings.TrimSpace(accountID) == "" {
		return nil, validationErr("accountId is required")
	}
	txns := []domain.Transaction{}
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND account_id = ?", userID, accountID).
		Order("date desc").
		Order("created_at desc").
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("list transactions of account %q: %w", accountID, err)
	}
	return txns, nil
}
