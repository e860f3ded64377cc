package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductAvailable   ProductStatus = "Available"
	ProductUnavailable ProductStatus = "Unavailable"
)

func (s ProductStatus) Valid() bool {
	return s == ProductAvailable || s == ProductUnavailable
}

// Category is global to the platform; products of any restaurant may join it.
type Category struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	Emoji     string    `json:"emoji"`
	Order     int       `json:"order" gorm:"column:display_order;not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
}

// Product prices are fixed-point with two decimals. When PriceByPercentage is
// set, Price holds a percentage and not an amount of money.
type Product struct {
	ID                 uint                `json:"id" gorm:"primaryKey"`
	RestaurantID       uint                `json:"restaurant_id" gorm:"index;not null"`
	CategoryID         *uint               `json:"category_id" gorm:"index"`
	Category           *Category           `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Name               string              `json:"name" gorm:"not null"`
	Description        string              `json:"description"`
	Price              decimal.Decimal     `json:"price" gorm:"type:decimal(10,2);not null"`
	PriceByPercentage  bool                `json:"price_by_percentage"`
	DiscountPercentage decimal.NullDecimal `json:"discount_percentage" gorm:"type:decimal(5,2)"`
	HasPromo           bool                `json:"has_promo"`
	PromoPrice         decimal.NullDecimal `json:"promo_price" gorm:"type:decimal(10,2)"`
	PromoStart         *time.Time          `json:"promo_start"`
	PromoEnd           *time.Time          `json:"promo_end"`
	Status             ProductStatus       `json:"status" gorm:"size:20;not null"`
	ChargeGST          bool                `json:"charge_gst"`
	HasVariations      bool                `json:"has_variations"`
	Variations         []ProductVariation  `json:"variations,omitempty" gorm:"foreignKey:ProductID"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// PromoActive reports whether the promo window covers the given day.
func (p Product) PromoActive(now time.Time) bool {
	if !p.HasPromo || !p.PromoPrice.Valid {
		return false
	}
	if p.PromoStart != nil && now.Before(*p.PromoStart) {
		return false
	}
	if p.PromoEnd != nil && now.After(*p.PromoEnd) {
		return false
	}
	return true
}

type ProductVariation struct {
	ID                 uint                `json:"id" gorm:"primaryKey"`
	ProductID          uint                `json:"product_id" gorm:"not null;uniqueIndex:idx_variation_product_name"`
	Name               string              `json:"name" gorm:"size:50;not null;uniqueIndex:idx_variation_product_name"`
	Price              decimal.Decimal     `json:"price" gorm:"type:decimal(10,2);not null"`
	DiscountPercentage decimal.NullDecimal `json:"discount_percentage" gorm:"type:decimal(5,2)"`
	IsDefault          bool                `json:"is_default"`
	HasPromo           bool                `json:"has_promo"`
	PromoPrice         decimal.NullDecimal `json:"promo_price" gorm:"type:decimal(10,2)"`
}
