// Package events publishes order lifecycle notifications for the notification
// feed and other downstream consumers. Publishing happens after commit and a
// failure never undoes the business operation.
package events

import (
	"context"
	"time"
)

const (
	OrderPlaced        = "order.placed"
	OrderStatusChanged = "order.status_changed"
	DeliveryRequested  = "delivery.requested"
	DeliveryCompleted  = "delivery.completed"
)

type Event struct {
	Type           string    `json:"type"`
	OrderID        uint      `json:"order_id"`
	RestaurantID   uint      `json:"restaurant_id,omitempty"`
	Status         string    `json:"status,omitempty"`
	Total          string    `json:"total,omitempty"`
	RiderID        *uint     `json:"rider_id,omitempty"`
	DeliveryStatus string    `json:"delivery_status,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

var _ Publisher = Nop{}
