package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Restaurant struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	OwnerID uint   `json:"owner_id" gorm:"index;not null"`
	Owner   User   `json:"-" gorm:"foreignKey:OwnerID"`
	Name    string `json:"name" gorm:"not null"`
	Slug    string `json:"slug" gorm:"index;not null"`
	// HashedSlug is the public menu token. Null only between insert and
	// token assignment inside the creating transaction.
	HashedSlug    *string             `json:"-" gorm:"uniqueIndex;size:64"`
	Address       string              `json:"address"`
	Description   string              `json:"description"`
	Latitude      decimal.NullDecimal `json:"latitude" gorm:"type:decimal(11,8)"`
	Longitude     decimal.NullDecimal `json:"longitude" gorm:"type:decimal(11,8)"`
	BusinessHours string              `json:"business_hours"`
	ChargeGST     bool                `json:"charge_gst"`
	Tables        []Table             `json:"tables,omitempty" gorm:"foreignKey:RestaurantID"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// Token returns the hashed slug or "" when none is assigned yet.
func (r Restaurant) Token() string {
	if r.HashedSlug == nil {
		return ""
	}
	return *r.HashedSlug
}

type Table struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	RestaurantID uint      `json:"restaurant_id" gorm:"not null;uniqueIndex:idx_table_restaurant_number"`
	Number       int       `json:"number" gorm:"not null;uniqueIndex:idx_table_restaurant_number"`
	CreatedAt    time.Time `json:"created_at"`
}

// MenuVisit records one public menu view.
type MenuVisit struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	RestaurantID uint      `json:"restaurant_id" gorm:"index;not null"`
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent"`
	Device       string    `json:"device"`
	VisitedAt    time.Time `json:"visited_at"`
}
