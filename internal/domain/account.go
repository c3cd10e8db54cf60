package domain

import "github.com/shopspring/decimal"

// Account Model
type Account struct {
	ID             string          `gorm:"primaryKey;size:36" json:"id"`                                 // Generated UUID
	UserID         uint            `gorm:"index;not null" json:"userId"`                                 // Owning user
	Name           string          `gorm:"not null" json:"account_name"`                                 // Display name
	Balance        decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"balance"`         // Current balance
	InitialBalance decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"initial_balance"` // Baseline the transactions are applied on
	Version        int64           `gorm:"not null;default:0" json:"-"`                                  // Optimistic concurrency stamp
	CreatedAt      int64           `gorm:"autoCreateTime:nano" json:"created_at"`                        // Creation order
}
