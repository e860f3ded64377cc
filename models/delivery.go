package models

import "time"

type Rider struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	User        User      `json:"-" gorm:"foreignKey:UserID"`
	IsAvailable bool      `json:"is_available" gorm:"index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type DeliveryStatus string

const (
	DeliveryPending           DeliveryStatus = "Pending"
	DeliveryAssigned          DeliveryStatus = "Assigned"
	DeliveryNoRidersAvailable DeliveryStatus = "NoRidersAvailable"
)

type DeliveryRequest struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	OrderID   uint           `json:"order_id" gorm:"uniqueIndex;not null"`
	Order     *Order         `json:"order,omitempty" gorm:"foreignKey:OrderID"`
	Status    DeliveryStatus `json:"status" gorm:"size:32;not null"`
	RiderID   *uint          `json:"rider_id" gorm:"index"`
	Rider     *Rider         `json:"rider,omitempty" gorm:"foreignKey:RiderID"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Delivery is written when the assigned rider hands the order over.
type Delivery struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	OrderID     uint      `json:"order_id" gorm:"uniqueIndex;not null"`
	RiderID     uint      `json:"rider_id" gorm:"index;not null"`
	DeliveredAt time.Time `json:"delivered_at"`
}
