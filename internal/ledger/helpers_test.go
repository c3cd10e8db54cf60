package ledger

import (
	"context"
	"testing"
	"time"

	"finance_tracker/internal/dbtest"
	"finance_tracker/internal/domain"
	"finance_tracker/internal/events"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	ctx       = context.Background()
	fixedNow  = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	dayBefore = fixedNow.AddDate(0, 0, -1)
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestService(t *testing.T) (*Service, *gorm.DB, *events.Recorder) {
	t.Helper()
	gdb := dbtest.New(t)
	rec := &events.Recorder{}
	svc := NewService(gdb, rec, 3)
	svc.now = func() time.Time { return fixedNow }
	return svc, gdb, rec
}

func createUser(t *testing.T, gdb *gorm.DB, username string) uint {
	t.Helper()
	user := domain.User{Username: username, Password: "hash"}
	require.NoError(t, gdb.Create(&user).Error)
	return user.ID
}

func createAccount(t *testing.T, svc *Service, userID uint, name, balance string) string {
	t.Helper()
	accounts, err := svc.AddAccount(ctx, userID, name, dec(balance))
	require.NoError(t, err)
	require.NotEmpty(t, accounts)
	return accounts[len(accounts)-1].ID
}

func addTxn(t *testing.T, svc *Service, userID uint, accountID, amount string, typ domain.TransactionType) *domain.Transaction {
	t.Helper()
	txn, err := svc.AddTransaction(ctx, userID, TransactionInput{
		AccountID: accountID,
		Amount:    dec(amount),
		Type:      typ,
		Category:  domain.CategoryOther,
	})
	require.NoError(t, err)
	return txn
}

func loadTestAccount(t *testing.T, gdb *gorm.DB, accountID string) domain.Account {
	t.Helper()
	var account domain.Account
	require.NoError(t, gdb.First(&account, "id = ?", accountID).Error)
	return account
}

func requireBalance(t *testing.T, gdb *gorm.DB, accountID, want string) {
	t.Helper()
	got := loadTestAccount(t, gdb, accountID).Balance
	require.Truef(t, got.Equal(dec(want)), "balance of %s = %s, want %s", accountID, got, want)
}

// requireConsistent checks balance == initial balance + sum of effects
func requireConsistent(t *testing.T, gdb *gorm.DB, accountID string) {
	t.Helper()
	account := loadTestAccount(t, gdb, accountID)
	var txns []domain.Transaction
	require.NoError(t, gdb.Where("account_id = ?", accountID).Find(&txns).Error)
	expected := account.InitialBalance
	for _, txn := range txns {
		expected = expected.Add(txn.Effect())
	}
	require.Truef(t, expected.Equal(account.Balance), "balance %s, transactions add up to %s", account.Balance, expected)
}

func countTxns(t *testing.T, gdb *gorm.DB, accountID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(&domain.Transaction{}).Where("account_id = ?", accountID).Count(&n).Error)
	return n
}

func loadTestTransaction(t *testing.T, gdb *gorm.DB, transactionID string) domain.Transaction {
	t.Helper()
	var txn domain.Transaction
	require.NoError(t, gdb.First(&txn, "id = ?", transactionID).Error)
	return txn
}
