package domain

import "github.com/shopspring/decimal"

// TransactionType is the kind of money movement a transaction records
type TransactionType string

const (
	TypeCredit TransactionType = "credit"
	TypeDebit  TransactionType = "debit"
	TypeToTake TransactionType = "to_take" // money owed to the user
	TypeToGive TransactionType = "to_give" // money owed by the user
)

// TransactionTypes lists every accepted type
var TransactionTypes = []TransactionType{TypeCredit, TypeDebit, TypeToTake, TypeToGive}

// Valid reports whether t is one of the known types
func (t TransactionType) Valid() bool {
	switch t {
	case TypeCredit, TypeDebit, TypeToTake, TypeToGive:
		return true
	}
	return false
}

// Sign returns +1 for types that increase the balance and -1 for those that decrease it.
// to_give increases and to_take decreases; existing balances depend on this convention.
func (t TransactionType) Sign() int {
	switch t {
	case TypeDebit, TypeToTake:
		return -1
	case TypeCredit, TypeToGive:
		return 1
	}
	return 0
}

// Decreases reports whether applying t lowers the balance
func (t TransactionType) Decreases() bool {
	return t.Sign() < 0
}

// Effect is the signed delta that applying amount with type t has on a balance.
// Reversing a transaction subtracts the same value.
func Effect(amount decimal.Decimal, t TransactionType) decimal.Decimal {
	switch t.Sign() {
	case 1:
		return amount
	case -1:
		return amount.Neg()
	}
	return decimal.Zero
}

// Category classifies what a transaction was for
type Category string

const (
	CategoryFood          Category = "food"
	CategoryTransport     Category = "transport"
	CategoryHousing       Category = "housing"
	CategoryHealth        Category = "health"
	CategoryEntertainment Category = "entertainment"
	CategoryOther         Category = "other"
)

// Categories lists every accepted category
var Categories = []Category{CategoryFood, CategoryTransport, CategoryHousing, CategoryHealth, CategoryEntertainment, CategoryOther}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
