package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserCode is the short code a user hands to a vendor to receive a top-up.
type UserCode struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	Code      string    `json:"code" gorm:"size:6;uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
}

type Wallet struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	UserID    uint            `json:"user_id" gorm:"uniqueIndex;not null"`
	Balance   decimal.Decimal `json:"balance" gorm:"type:decimal(12,2);not null"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type TopUpRequest struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	Code      string          `json:"code" gorm:"size:6;index;not null"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Processed bool            `json:"processed"`
	CreatedAt time.Time       `json:"created_at"`
}
