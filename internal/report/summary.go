// Package report aggregates transactions into read-only analytics views.
package report

import (
	"sort"
	"time"

	"finance_tracker/internal/domain"

	"github.com/shopspring/decimal"
)

// Timeframe selects the window a summary covers
type Timeframe string

const (
	Week  Timeframe = "week"  // the last seven days
	Month Timeframe = "month" // the current calendar month
	Year  Timeframe = "year"  // the current calendar year
)

// ParseTimeframe falls back to Month for anything it does not recognize
func ParseTimeframe(s string) Timeframe {
	switch tf := Timeframe(s); tf {
	case Week, Month, Year:
		return tf
	}
	return Month
}

// Window returns the inclusive [from, to] range of tf around now, in UTC
func Window(tf Timeframe, now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	switch tf {
	case Week:
		return now.AddDate(0, 0, -7), now
	case Year:
		from := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(1, 0, 0).Add(-time.Nanosecond)
	default:
		from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, 0).Add(-time.Nanosecond)
	}
}

// CategoryTotal is the debit spending in one category
type CategoryTotal struct {
	Category domain.Category `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// DailyFlow is money in and out on one UTC day
type DailyFlow struct {
	Date    string          `json:"date"` // YYYY-MM-DD
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// Summary is the analytics view of one account over a timeframe
type Summary struct {
	Timeframe     Timeframe       `json:"timeframe"`
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	Count         int             `json:"count"`
	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	Net           decimal.Decimal `json:"net"`
	SavingsRate   decimal.Decimal `json:"savings_rate"` // percent of income kept
	ToTake        decimal.Decimal `json:"to_take"`
	ToGive        decimal.Decimal `json:"to_give"`
	ByCategory    []CategoryTotal `json:"by_category"`
	Daily         []DailyFlow     `json:"daily"`
}

var hundred = decimal.NewFromInt(100)

// Summarize aggregates the transactions dated inside tf's window.
// Income counts credits and expenses count debits; the IOU types are
// reported separately, but both feed the daily flows.
func Summarize(txns []domain.Transaction, tf Timeframe, now time.Time) Summary {
	from, to := Window(tf, now)
	s := Summary{
		Timeframe:     tf,
		From:          from,
		To:            to,
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
		ToTake:        decimal.Zero,
		ToGive:        decimal.Zero,
		ByCategory:    []CategoryTotal{},
		Daily:         []DailyFlow{},
	}

	byCategory := map[domain.Category]decimal.Decimal{}
	daily := map[string]*DailyFlow{}
	for _, t := range txns {
		date := t.Date.UTC()
		if date.Before(from) || date.After(to) {
			continue
		}
		s.Count++

		switch t.Type {
		case domain.TypeCredit:
			s.TotalIncome = s.TotalIncome.Add(t.Amount)
		case domain.TypeDebit:
			s.TotalExpenses = s.TotalExpenses.Add(t.Amount)
			byCategory[t.Category] = byCategory[t.Category].Add(t.Amount)
		case domain.TypeToTake:
			s.ToTake = s.ToTake.Add(t.Amount)
		case domain.TypeToGive:
			s.ToGive = s.ToGive.Add(t.Amount)
		}

		key := date.Format("2006-01-02")
		flow, ok := daily[key]
		if !ok {
			flow = &DailyFlow{Date: key, Income: decimal.Zero, Expense: decimal.Zero}
			daily[key] = flow
		}
		if t.Type.Decreases() {
			flow.Expense = flow.Expense.Add(t.Amount)
		} else {
			flow.Income = flow.Income.Add(t.Amount)
		}
	}

	s.Net = s.TotalIncome.Sub(s.TotalExpenses)
	s.SavingsRate = decimal.Zero
	if s.TotalIncome.IsPositive() {
		s.SavingsRate = s.Net.Div(s.TotalIncome).Mul(hundred).Round(2)
	}

	for c, total := range byCategory {
		s.ByCategory = append(s.ByCategory, CategoryTotal{Category: c, Total: total})
	}
	sort.Slice(s.ByCategory, func(i, j int) bool {
		a, b := s.ByCategory[i], s.ByCategory[j]
		if !a.Total.Equal(b.Total) {
			return a.Total.GreaterThan(b.Total)
		}
		return a.Category < b.Category
	})

	for _, flow := range daily {
		s.Daily = append(s.Daily, *flow)
	}
	sort.Slice(s.Daily, func(i, j int) bool { return s.Daily[i].Date < s.Daily[j].Date })
	return s
}
