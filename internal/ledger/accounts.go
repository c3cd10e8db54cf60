package ledger

import (
	"context"
	"fmt"
	"strings"

	"finance_tracker/internal/domain"
	"finance_tracker/internal/events"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AccountUpdate holds the account fields to overwrite; nil fields are left alone
type AccountUpdate struct {
	Name    *string
	Balance *decimal.Decimal
}

func listAccounts(tx *gorm.DB, userID uint) ([]domain.Account, error) {
	accounts := []domain.Account{}
	if err := tx.Where("user_id = ?", userID).Order("created_at asc").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("list accounts of user %d: %w", userID, err)
	}
	return accounts, nil
}

// ListAccounts returns every account of the user in creation order
func (s *Service) ListAccounts(ctx context.Context, userID uint) ([]domain.Account, error) {
	db := s.db.WithContext(ctx)
	if _, err := loadUser(db, userID); err != nil {
		return nil, err
	}
	return listAccounts(db, userID)
}

// AddAccount creates an account holding balance and returns the user's updated account list
func (s *Service) AddAccount(ctx context.Context, userID uint, name string, balance decimal.Decimal) ([]domain.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationErr("account_name is required")
	}
	if err := checkMoney("balance", balance); err != nil {
		return nil, err
	}

	var accounts []domain.Account
	account := domain.Account{
		ID:             uuid.NewString(),
		UserID:         userID,
		Name:           name,
		Balance:        balance,
		InitialBalance: balance,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadUser(tx, userID); err != nil {
			return err
		}
		if err := tx.Create(&account).Error; err != nil {
			return fmt.Errorf("create account: %w", err)
		}
		var err error
		accounts, err = listAccounts(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"account_id": account.ID,
		"balance":    balance.String(),
	}).Info("Account created")
	return accounts, nil
}

// UpdateAccount overwrites the supplied fields. A new balance is taken as-is,
// without consulting transactions; the baseline is moved so that the recorded
// transactions still add up to it.
func (s *Service) UpdateAccount(ctx context.Context, userID uint, accountID string, upd AccountUpdate) ([]domain.Account, error) {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, validationErr("account_name must not be empty")
	}
	if upd.Balance != nil {
		if err := checkMoney("balance", *upd.Balance); err != nil {
			return nil, err
		}
	}

	var accounts []domain.Account
	err := s.withRetry(ctx, "update account", func(tx *gorm.DB) error {
		if _, err := loadUser(tx, userID); err != nil {
			return err
		}
		account, err := loadAccount(tx, userID, accountID)
		if err != nil {
			return err
		}
		if upd.Name != nil {
			account.Name = strings.TrimSpace(*upd.Name)
		}
		if upd.Balance != nil {
			effects, err := sumEffects(tx, account.ID)
			if err != nil {
				return err
			}
			account.Balance = *upd.Balance
			account.InitialBalance = upd.Balance.Sub(effects)
		}
		if err := saveAccount(tx, account); err != nil {
			return err
		}
		accounts, err = listAccounts(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	fields := logrus.Fields{"user_id": userID, "account_id": accountID}
	if upd.Balance != nil {
		fields["balance"] = upd.Balance.String()
	}
	logrus.WithFields(fields).Info("Account updated")
	return accounts, nil
}

// DeleteAccount removes the account together with every transaction recorded against it
func (s *Service) DeleteAccount(ctx context.Context, userID uint, accountID string) ([]domain.Account, error) {
	var accounts []domain.Account
	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadUser(tx, userID); err != nil {
			return err
		}
		account, err := loadAccount(tx, userID, accountID)
		if err != nil {
			return err
		}
		res := tx.Where("account_id = ?", account.ID).Delete(&domain.Transaction{})
		if res.Error != nil {
			return fmt.Errorf("delete transactions of account %q: %w", account.ID, res.Error)
		}
		removed = res.RowsAffected
		if err := tx.Delete(account).Error; err != nil {
			return fmt.Errorf("delete account %q: %w", account.ID, err)
		}
		accounts, err = listAccounts(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":      userID,
		"account_id":   accountID,
		"transactions": removed,
	}).Info("Account deleted")
	s.publish(ctx, events.Event{Type: events.AccountDeleted, UserID: userID, AccountID: accountID})
	return accounts, nil
}
