package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents all possible states of an order
type OrderStatus string

const (
	StatusPending        OrderStatus = "PENDING"
	StatusConfirmed      OrderStatus = "CONFIRMED"
	StatusCooking        OrderStatus = "COOKING"
	StatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	StatusDelivered      OrderStatus = "DELIVERED"
)

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
	PaymentMobileMoney    PaymentMethod = "MOBILE_MONEY"
)

// ParsePaymentMethod accepts the enum value as well as the labels shown to
// customers.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cash_on_delivery", "cash on delivery", "cod":
		return PaymentCashOnDelivery, true
	case "mobile_money", "mobile money", "orange money":
		return PaymentMobileMoney, true
	}
	return "", false
}

type Order struct {
	ID            uint                 `json:"id" gorm:"primaryKey"`
	CustomerID    uint                 `json:"customer_id" gorm:"index;not null"`
	Customer      Customer             `json:"-" gorm:"foreignKey:CustomerID"`
	RestaurantID  uint                 `json:"restaurant_id" gorm:"index;not null"`
	Restaurant    Restaurant           `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	Status        OrderStatus          `json:"status" gorm:"size:32;not null"`
	PaymentMethod PaymentMethod        `json:"payment_method" gorm:"size:32;not null"`
	TableNumber   *int                 `json:"table_number"`
	Amount        decimal.Decimal      `json:"total_amount" gorm:"type:decimal(10,2);not null"`
	Lines         []OrderLine          `json:"lines,omitempty" gorm:"foreignKey:OrderID"`
	Earnings      *Earnings            `json:"earnings,omitempty" gorm:"foreignKey:OrderID"`
	StatusHistory []OrderStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// OrderLine snapshots the catalog price at order time.
type OrderLine struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	OrderID     uint            `json:"order_id" gorm:"index;not null"`
	ProductID   uint            `json:"product_id" gorm:"not null"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity" gorm:"not null"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:decimal(10,2);not null"`
}

func (l OrderLine) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Earnings is the platform fee collected for one order.
type Earnings struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	OrderID       uint            `json:"order_id" gorm:"uniqueIndex;not null"`
	ServiceCharge decimal.Decimal `json:"service_charge" gorm:"type:decimal(10,2);not null"`
	Currency      string          `json:"currency" gorm:"size:3;not null"`
	CreatedAt     time.Time       `json:"created_at"`
}

type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"order_id" gorm:"index;not null"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status" gorm:"not null"`
	ChangedBy  uint        `json:"changed_by"`
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"created_at"`
}
