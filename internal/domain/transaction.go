package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction Model
type Transaction struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`              // Generated UUID
	UserID      uint            `gorm:"index;not null" json:"userId"`              // Owning user
	AccountID   string          `gorm:"index;size:36;not null" json:"accountId"`   // Referenced account, not a foreign key
	Amount      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"` // Always positive
	Type        TransactionType `gorm:"size:16;not null" json:"type"`              // credit, debit, to_take, to_give
	Category    Category        `gorm:"size:32;not null" json:"category"`          // Fixed enumeration
	Description string          `json:"description,omitempty"`                     // Optional free text
	Date        time.Time       `gorm:"index;not null" json:"date"`                // Defaults to creation time
	CreatedAt   int64           `gorm:"autoCreateTime:nano" json:"created_at"`     // Insert order
	UpdatedAt   int64           `gorm:"autoUpdateTime:nano" json:"updated_at"`     // Last edit
}

// Effect is the signed balance delta this transaction contributes to its account
func (t Transaction) Effect() decimal.Decimal {
	return Effect(t.Amount, t.Type)
}
