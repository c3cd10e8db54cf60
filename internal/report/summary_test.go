package report

import (
	"testing"
	"time"

	"finance_tracker/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func txn(day int, amount string, typ domain.TransactionType, category domain.Category) domain.Transaction {
	return domain.Transaction{
		Amount:   decimal.RequireFromString(amount),
		Type:     typ,
		Category: category,
		Date:     time.Date(2024, 6, day, 9, 0, 0, 0, time.UTC),
	}
}

func TestParseTimeframe(t *testing.T) {
	assert.Equal(t, Week, ParseTimeframe("week"))
	assert.Equal(t, Year, ParseTimeframe("year"))
	assert.Equal(t, Month, ParseTimeframe("month"))
	assert.Equal(t, Month, ParseTimeframe(""))
	assert.Equal(t, Month, ParseTimeframe("decade"))
}

func TestWindow(t *testing.T) {
	tests := []struct {
		tf       Timeframe
		from, to time.Time
	}{
		{Week, time.Date(2024, 6, 8, 12, 0, 0, 0, time.UTC), now},
		{Month, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 30, 23, 59, 59, 999999999, time.UTC)},
		{Year, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 12, 31, 23, 59, 59, 999999999, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(string(tt.tf), func(t *testing.T) {
			from, to := Window(tt.tf, now)
			assert.True(t, from.Equal(tt.from), "from = %v", from)
			assert.True(t, to.Equal(tt.to), "to = %v", to)
		})
	}
}

func TestSummarize(t *testing.T) {
	txns := []domain.Transaction{
		txn(1, "1000", domain.TypeCredit, domain.CategoryOther),
		txn(2, "300", domain.TypeDebit, domain.CategoryHousing),
		txn(2, "50.25", domain.TypeDebit, domain.CategoryFood),
		txn(10, "49.75", domain.TypeDebit, domain.CategoryFood),
		txn(10, "20", domain.TypeToTake, domain.CategoryOther),
		txn(12, "15", domain.TypeToGive, domain.CategoryOther),
		{Amount: decimal.NewFromInt(999), Type: domain.TypeCredit, Category: domain.CategoryOther, Date: time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)},
	}

	s := Summarize(txns, Month, now)

	assert.Equal(t, 6, s.Count)
	assert.True(t, s.TotalIncome.Equal(decimal.NewFromInt(1000)))
	assert.True(t, s.TotalExpenses.Equal(decimal.NewFromInt(400)))
	assert.True(t, s.Net.Equal(decimal.NewFromInt(600)))
	assert.True(t, s.SavingsRate.Equal(decimal.NewFromInt(60)))
	assert.True(t, s.ToTake.Equal(decimal.NewFromInt(20)))
	assert.True(t, s.ToGive.Equal(decimal.NewFromInt(15)))

	require.Len(t, s.ByCategory, 2)
	assert.Equal(t, domain.CategoryHousing, s.ByCategory[0].Category)
	assert.Equal(t, domain.CategoryFood, s.ByCategory[1].Category)
	assert.True(t, s.ByCategory[1].Total.Equal(decimal.NewFromInt(100)))

	require.Len(t, s.Daily, 4)
	assert.Equal(t, "2024-06-01", s.Daily[0].Date)
	assert.Equal(t, "2024-06-02", s.Daily[1].Date)
	assert.True(t, s.Daily[1].Expense.Equal(decimal.RequireFromString("350.25")))
	assert.Equal(t, "2024-06-10", s.Daily[2].Date)
	assert.True(t, s.Daily[2].Expense.Equal(decimal.RequireFromString("69.75")))
	assert.True(t, s.Daily[3].Income.Equal(decimal.NewFromInt(15)))
}

func TestSummarizeWithoutIncome(t *testing.T) {
	s := Summarize([]domain.Transaction{txn(3, "10", domain.TypeDebit, domain.CategoryFood)}, Week, now)

	assert.Equal(t, 0, s.Count, "June 3rd is outside the last seven days")
	assert.True(t, s.SavingsRate.IsZero())
	assert.Empty(t, s.ByCategory)
	assert.Empty(t, s.Daily)

	s = Summarize([]domain.Transaction{txn(3, "10", domain.TypeDebit, domain.CategoryFood)}, Month, now)
	assert.True(t, s.Net.Equal(decimal.NewFromInt(-10)))
	assert.True(t, s.SavingsRate.IsZero())
}
