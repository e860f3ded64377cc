package services

import (
	"context"
	"log/slog"
	"time"

	"qrmenu-api/apperr"
	"qrmenu-api/events"
	"qrmenu-api/logger"
	"qrmenu-api/models"
	"qrmenu-api/statemachine"

	"gorm.io/gorm"
)

type DeliveryService struct {
	DB     *gorm.DB
	Events events.Publisher
	Log    *logger.Logger
	Now    func() time.Time
}

func NewDeliveryService(db *gorm.DB, pub events.Publisher, log *logger.Logger) *DeliveryService {
	return &DeliveryService{DB: db, Events: pub, Log: log, Now: time.Now}
}

// RequestDelivery creates the delivery request of an order and reserves a
// rider for it. NoRidersAvailable is a normal outcome, not an error.
func (s *DeliveryService) RequestDelivery(ctx context.Context, orderID uint) (*models.DeliveryRequest, error) {
	return s.request(ctx, orderID, 0)
}

// RequestForRestaurant is RequestDelivery restricted to orders of one
// restaurant.
func (s *DeliveryService) RequestForRestaurant(ctx context.Context, restaurantID, orderID uint) (*models.DeliveryRequest, error) {
	return s.request(ctx, orderID, restaurantID)
}

func (s *DeliveryService) request(ctx context.Context, orderID, restaurantID uint) (*models.DeliveryRequest, error) {
	var req *models.DeliveryRequest
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := lockForUpdate(tx).First(&order, orderID).Error; err != nil {
			return notFoundOr(err, "order", "load order")
		}
		if restaurantID != 0 && order.RestaurantID != restaurantID {
			return apperr.Forbidden("this order does not belong to your restaurant")
		}
		if order.Status == models.StatusDelivered {
			return apperr.Validation("order %d is already delivered", orderID)
		}
		var err error
		req, err = requestDelivery(tx, orderID)
		return err
	})
	if err != nil {
		return nil, classify(err, "request delivery")
	}

	s.Log.Info("delivery_requested", logger.RequestID(ctx), "delivery requested",
		slog.Uint64("order_id", uint64(orderID)),
		slog.String("status", string(req.Status)),
	)
	publish(ctx, s.Events, s.Log, events.Event{
		Type:           events.DeliveryRequested,
		OrderID:        orderID,
		RiderID:        req.RiderID,
		DeliveryStatus: string(req.Status),
	})
	return req, nil
}

// requestDelivery runs inside the caller's transaction. An existing request
// that found no rider is retried on the same row; any other existing request
// is a conflict.
func requestDelivery(tx *gorm.DB, orderID uint) (*models.DeliveryRequest, error) {
	var req models.DeliveryRequest
	res := lockForUpdate(tx).Where("order_id = ?", orderID).Limit(1).Find(&req)
	if res.Error != nil {
		return nil, apperr.Internal("load delivery request", res.Error)
	}
	if res.RowsAffected > 0 && req.Status != models.DeliveryNoRidersAvailable {
		return nil, apperr.Conflict("delivery already requested for order %d", orderID)
	}
	if res.RowsAffected == 0 {
		req = models.DeliveryRequest{OrderID: orderID, Status: models.DeliveryPending}
		if err := tx.Create(&req).Error; err != nil {
			return nil, apperr.Internal("create delivery request", err)
		}
	}

	// Rows held by a concurrent assignment are skipped, so two requests can
	// never reserve the same rider.
	var rider models.Rider
	res = lockSkipLocked(tx).Where("is_available = ?", true).Order("id").Limit(1).Find(&rider)
	if res.Error != nil {
		return nil, apperr.Internal("select rider", res.Error)
	}

	if res.RowsAffected == 0 {
		req.Status = models.DeliveryNoRidersAvailable
		req.RiderID = nil
	} else {
		if err := tx.Model(&rider).Update("is_available", false).Error; err != nil {
			return nil, apperr.Internal("reserve rider", err)
		}
		req.Status = models.DeliveryAssigned
		req.RiderID = &rider.ID
	}
	if err := tx.Model(&req).Select("status", "rider_id").Updates(&req).Error; err != nil {
		return nil, apperr.Internal("update delivery request", err)
	}
	return &req, nil
}

// CompleteDelivery is called by the assigned rider on hand-over. It delivers
// the order and makes the rider available again.
func (s *DeliveryService) CompleteDelivery(ctx context.Context, riderUserID, orderID uint) (*models.Delivery, error) {
	var delivery models.Delivery
	var restaurantID uint
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := lockForUpdate(tx).First(&order, orderID).Error; err != nil {
			return notFoundOr(err, "order", "load order")
		}
		restaurantID = order.RestaurantID

		var req models.DeliveryRequest
		if err := lockForUpdate(tx).Where("order_id = ?", orderID).First(&req).Error; err != nil {
			return notFoundOr(err, "delivery request", "load delivery request")
		}

		var rider models.Rider
		if err := lockForUpdate(tx).Where("user_id = ?", riderUserID).First(&rider).Error; err != nil {
			return notFoundOr(err, "rider", "load rider")
		}
		if req.Status != models.DeliveryAssigned || req.RiderID == nil || *req.RiderID != rider.ID {
			return apperr.Forbidden("this delivery is not assigned to you")
		}

		if err := statemachine.CanTransition(order.Status, models.StatusDelivered, statemachine.ActorRider); err != nil {
			return apperr.Validation("%s", err.Error())
		}
		if err := moveOrder(tx, &order, models.StatusDelivered, riderUserID, "delivered by rider"); err != nil {
			return err
		}

		settled, err := settleDelivery(tx, orderID, rider.ID, s.Now())
		if err != nil {
			return err
		}
		delivery = *settled
		return nil
	})
	if err != nil {
		return nil, classify(err, "complete delivery")
	}

	riderID := delivery.RiderID
	publish(ctx, s.Events, s.Log, events.Event{
		Type:         events.DeliveryCompleted,
		OrderID:      orderID,
		RestaurantID: restaurantID,
		Status:       string(models.StatusDelivered),
		RiderID:      &riderID,
	})
	return &delivery, nil
}

// settleDelivery records the hand-over of orderID and makes the rider
// available again. It runs in the transaction that delivers the order.
func settleDelivery(tx *gorm.DB, orderID, riderID uint, at time.Time) (*models.Delivery, error) {
	delivery := models.Delivery{OrderID: orderID, RiderID: riderID, DeliveredAt: at}
	if err := tx.Create(&delivery).Error; err != nil {
		return nil, apperr.Internal("record delivery", err)
	}
	err := tx.Model(&models.Rider{}).Where("id = ?", riderID).Update("is_available", true).Error
	if err != nil {
		return nil, apperr.Internal("release rider", err)
	}
	return &delivery, nil
}

// SetAvailability toggles whether the rider can receive new assignments.
// It is refused while the rider still carries an undelivered order.
func (s *DeliveryService) SetAvailability(ctx context.Context, riderUserID uint, available bool) (*models.Rider, error) {
	var rider models.Rider
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Where("user_id = ?", riderUserID).First(&rider).Error; err != nil {
			return notFoundOr(err, "rider", "load rider")
		}
		active, err := activeAssignments(tx, rider.ID)
		if err != nil {
			return err
		}
		if active > 0 {
			return apperr.Conflict("finish your current delivery first")
		}
		if rider.IsAvailable == available {
			return nil
		}
		rider.IsAvailable = available
		if err := tx.Model(&rider).Update("is_available", available).Error; err != nil {
			return apperr.Internal("update availability", err)
		}
		return nil
	})
	if err != nil {
		return nil, classify(err, "set availability")
	}
	return &rider, nil
}

func activeAssignments(tx *gorm.DB, riderID uint) (int64, error) {
	var n int64
	err := tx.Model(&models.DeliveryRequest{}).
		Joins("JOIN orders ON orders.id = delivery_requests.order_id").
		Where("delivery_requests.rider_id = ? AND delivery_requests.status = ? AND orders.status <> ?",
			riderID, models.DeliveryAssigned, models.StatusDelivered).
		Count(&n).Error
	if err != nil {
		return 0, apperr.Internal("count assignments", err)
	}
	return n, nil
}

// ListAssignments returns the rider's delivery requests, newest first.
func (s *DeliveryService) ListAssignments(ctx context.Context, riderUserID uint) ([]models.DeliveryRequest, error) {
	db := s.DB.WithContext(ctx)
	var rider models.Rider
	if err := db.Where("user_id = ?", riderUserID).First(&rider).Error; err != nil {
		return nil, notFoundOr(err, "rider", "load rider")
	}
	var requests []models.DeliveryRequest
	err := db.Preload("Order").Preload("Order.Restaurant").Preload("Order.Lines").
		Where("rider_id = ?", rider.ID).
		Order("id desc").
		Find(&requests).Error
	if err != nil {
		return nil, apperr.Internal("list assignments", err)
	}
	return requests, nil
}
