package services

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"time"

	"qrmenu-api/apperr"
	"qrmenu-api/cache"
	"qrmenu-api/cart"
	"qrmenu-api/events"
	"qrmenu-api/logger"
	"qrmenu-api/models"
	"qrmenu-api/statemachine"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderConfig struct {
	ServiceCharge decimal.Decimal
	Currency      string
	// DefaultTable tags orders without an explicit table with the
	// restaurant's lowest-numbered table.
	DefaultTable bool
	CountTTL     time.Duration
}

type PlaceOrderInput struct {
	UserID        uint
	RestaurantID  uint
	Lines         []cart.Line
	PaymentMethod models.PaymentMethod
	TableNumber   *int
}

type OrderResult struct {
	OrderID uint            `json:"order_id"`
	Total   decimal.Decimal `json:"total_amount"`
}

type OrderService struct {
	DB     *gorm.DB
	Config OrderConfig
	Events events.Publisher
	Cache  cache.Cache
	Log    *logger.Logger
}

func NewOrderService(db *gorm.DB, cfg OrderConfig, pub events.Publisher, c cache.Cache, log *logger.Logger) *OrderService {
	return &OrderService{DB: db, Config: cfg, Events: pub, Cache: c, Log: log}
}

// PlaceOrder validates the cart against the live catalog and writes the
// order, its lines and its earnings in one transaction. Every product row is
// locked until commit, in ascending id order. Any rejected line aborts the
// whole order.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*OrderResult, error) {
	if len(in.Lines) == 0 {
		return nil, apperr.ValidationField("cart", "cart is empty")
	}
	if in.PaymentMethod == "" {
		return nil, apperr.ValidationField("payment_method", "payment method is required")
	}
	lines := slices.Clone(in.Lines)
	slices.SortFunc(lines, func(a, b cart.Line) int { return cmp.Compare(a.ProductID, b.ProductID) })

	var order models.Order
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var restaurant models.Restaurant
		if err := tx.First(&restaurant, in.RestaurantID).Error; err != nil {
			return notFoundOr(err, "restaurant", "load restaurant")
		}

		customer, err := ensureCustomer(tx, in.UserID)
		if err != nil {
			return err
		}

		table, err := s.resolveTable(tx, restaurant.ID, in.TableNumber)
		if err != nil {
			return err
		}

		order = models.Order{
			CustomerID:    customer.ID,
			RestaurantID:  restaurant.ID,
			Status:        models.StatusPending,
			PaymentMethod: in.PaymentMethod,
			TableNumber:   table,
			Amount:        decimal.Zero,
		}
		if err := tx.Create(&order).Error; err != nil {
			return apperr.Internal("create order", err)
		}

		total := decimal.Zero
		for i, line := range lines {
			if i > 0 && line.ProductID == lines[i-1].ProductID {
				return apperr.ProductValidation(line.ProductID, "product %d appears twice in the cart", line.ProductID)
			}
			if line.Quantity <= 0 {
				return apperr.ProductValidation(line.ProductID, "quantity for product %d must be greater than zero", line.ProductID)
			}

			var product models.Product
			res := lockForUpdate(tx).Where("id = ?", line.ProductID).Limit(1).Find(&product)
			if res.Error != nil {
				return apperr.Internal("lock product", res.Error)
			}
			if res.RowsAffected == 0 {
				return apperr.ProductValidation(line.ProductID, "product %d does not exist", line.ProductID)
			}
			if product.RestaurantID != restaurant.ID {
				return apperr.ProductValidation(product.ID, "%s is not on this restaurant's menu", product.Name)
			}
			if product.Status != models.ProductAvailable {
				return apperr.ProductValidation(product.ID, "%s is not available", product.Name)
			}
			if product.PriceByPercentage {
				return apperr.ProductValidation(product.ID, "%s has no fixed price and cannot be ordered", product.Name)
			}

			orderLine := models.OrderLine{
				OrderID:     order.ID,
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    line.Quantity,
				UnitPrice:   product.Price,
			}
			if err := tx.Create(&orderLine).Error; err != nil {
				return apperr.Internal("create order line", err)
			}
			total = total.Add(orderLine.Total())
		}

		total = total.Add(s.Config.ServiceCharge)
		order.Amount = total
		if err := tx.Model(&order).Update("amount", total).Error; err != nil {
			return apperr.Internal("update order total", err)
		}

		earnings := models.Earnings{
			OrderID:       order.ID,
			ServiceCharge: s.Config.ServiceCharge,
			Currency:      s.Config.Currency,
		}
		if err := tx.Create(&earnings).Error; err != nil {
			return apperr.Internal("record earnings", err)
		}

		if err := tx.Create(&models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  models.StatusPending,
			ChangedBy: in.UserID,
			Note:      "order placed",
		}).Error; err != nil {
			return apperr.Internal("record status history", err)
		}

		return tx.Model(&models.Customer{}).Where("id = ?", customer.ID).
			Update("restaurant_id", restaurant.ID).Error
	})
	if err != nil {
		return nil, classify(err, "place order")
	}

	s.Log.Info("order_placed", logger.RequestID(ctx), "order placed",
		slog.Uint64("order_id", uint64(order.ID)),
		slog.Uint64("restaurant_id", uint64(order.RestaurantID)),
		slog.String("total", order.Amount.StringFixed(2)),
	)
	s.forgetCount(ctx, order.RestaurantID)
	publish(ctx, s.Events, s.Log, events.Event{
		Type:         events.OrderPlaced,
		OrderID:      order.ID,
		RestaurantID: order.RestaurantID,
		Status:       string(order.Status),
		Total:        order.Amount.StringFixed(2),
	})

	return &OrderResult{OrderID: order.ID, Total: order.Amount}, nil
}

func (s *OrderService) resolveTable(tx *gorm.DB, restaurantID uint, requested *int) (*int, error) {
	var table models.Table
	if requested != nil {
		res := tx.Where("restaurant_id = ? AND number = ?", restaurantID, *requested).Limit(1).Find(&table)
		if res.Error != nil {
			return nil, apperr.Internal("load table", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, apperr.ValidationField("table_number", "table %d does not exist", *requested)
		}
		return &table.Number, nil
	}
	if !s.Config.DefaultTable {
		return nil, nil
	}
	res := tx.Where("restaurant_id = ?", restaurantID).Order("number").Limit(1).Find(&table)
	if res.Error != nil {
		return nil, apperr.Internal("load table", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &table.Number, nil
}

func preloadOrder(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines").Preload("Earnings").Preload("Restaurant").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
}

// GetCustomerOrder returns an order placed by userID. Orders of other
// customers are forbidden, not hidden.
func (s *OrderService) GetCustomerOrder(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := preloadOrder(s.DB.WithContext(ctx)).Preload("Customer").First(&order, orderID).Error; err != nil {
		return nil, notFoundOr(err, "order", "load order")
	}
	if order.Customer.UserID != userID {
		return nil, apperr.Forbidden("you can only view your own orders")
	}
	return &order, nil
}

func (s *OrderService) ListCustomerOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := preloadOrder(s.DB.WithContext(ctx)).
		Joins("JOIN customers ON customers.id = orders.customer_id").
		Where("customers.user_id = ?", userID).
		Order("orders.created_at desc, orders.id desc").
		Find(&orders).Error
	if err != nil {
		return nil, apperr.Internal("list customer orders", err)
	}
	return orders, nil
}

func (s *OrderService) ListRestaurantOrders(ctx context.Context, restaurantID uint, status models.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	query := preloadOrder(s.DB.WithContext(ctx)).Where("restaurant_id = ?", restaurantID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("created_at desc, id desc").Find(&orders).Error; err != nil {
		return nil, apperr.Internal("list restaurant orders", err)
	}
	return orders, nil
}

// ListOrders is the admin view over every order.
func (s *OrderService) ListOrders(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	query := preloadOrder(s.DB.WithContext(ctx))
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("created_at desc, id desc").Find(&orders).Error; err != nil {
		return nil, apperr.Internal("list orders", err)
	}
	return orders, nil
}

// UpdateStatus moves an order of restaurantID one step along its lifecycle.
// Entering OUT_FOR_DELIVERY requests a rider in the same transaction unless a
// delivery was already requested.
func (s *OrderService) UpdateStatus(ctx context.Context, actorUserID, restaurantID, orderID uint, to models.OrderStatus) (*models.Order, error) {
	return s.transition(ctx, actorUserID, orderID, to, statemachine.ActorRestaurant, func(o *models.Order) error {
		if o.RestaurantID != restaurantID {
			return apperr.Forbidden("this order does not belong to your restaurant")
		}
		return nil
	})
}

// ForceStatus lets an admin move any order forward, skipping steps.
func (s *OrderService) ForceStatus(ctx context.Context, adminUserID, orderID uint, to models.OrderStatus) (*models.Order, error) {
	return s.transition(ctx, adminUserID, orderID, to, statemachine.ActorAdmin, nil)
}

func (s *OrderService) transition(ctx context.Context, actorUserID, orderID uint, to models.OrderStatus, actor statemachine.Actor, authorize func(*models.Order) error) (*models.Order, error) {
	if !statemachine.Valid(to) {
		return nil, apperr.ValidationField("status", "unknown status %q", to)
	}

	var order models.Order
	var from models.OrderStatus
	var delivery *models.DeliveryRequest
	var settled *models.Delivery
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&order, orderID).Error; err != nil {
			return notFoundOr(err, "order", "load order")
		}
		if authorize != nil {
			if err := authorize(&order); err != nil {
				return err
			}
		}
		if err := statemachine.CanTransition(order.Status, to, actor); err != nil {
			return apperr.Validation("%s", err.Error())
		}
		from = order.Status

		// An assigned rider is only released by delivering. Restaurants must
		// leave that to the rider; an admin override settles it here.
		var assigned *models.DeliveryRequest
		if to == models.StatusDelivered {
			var req models.DeliveryRequest
			res := lockForUpdate(tx).Where("order_id = ?", order.ID).Limit(1).Find(&req)
			if res.Error != nil {
				return apperr.Internal("load delivery request", res.Error)
			}
			if res.RowsAffected > 0 && req.Status == models.DeliveryAssigned && req.RiderID != nil {
				if actor != statemachine.ActorAdmin {
					return apperr.Conflict("the assigned rider must complete this delivery")
				}
				assigned = &req
			}
		}

		note := ""
		if actor == statemachine.ActorAdmin {
			note = "[ADMIN OVERRIDE]"
		}
		if err := moveOrder(tx, &order, to, actorUserID, note); err != nil {
			return err
		}

		if assigned != nil {
			var rider models.Rider
			if err := lockForUpdate(tx).First(&rider, *assigned.RiderID).Error; err != nil {
				return notFoundOr(err, "rider", "load rider")
			}
			d, err := settleDelivery(tx, order.ID, rider.ID, time.Now())
			if err != nil {
				return err
			}
			settled = d
		}

		if to == models.StatusOutForDelivery {
			var existing int64
			if err := tx.Model(&models.DeliveryRequest{}).Where("order_id = ?", order.ID).Count(&existing).Error; err != nil {
				return apperr.Internal("check delivery request", err)
			}
			if existing == 0 {
				req, err := requestDelivery(tx, order.ID)
				if err != nil {
					return err
				}
				delivery = req
			}
		}
		return nil
	})
	if err != nil {
		return nil, classify(err, "update order status")
	}

	s.Log.Info("order_status_changed", logger.RequestID(ctx), "order status changed",
		slog.Uint64("order_id", uint64(order.ID)),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
		slog.String("actor", string(actor)),
	)
	publish(ctx, s.Events, s.Log, events.Event{
		Type:         events.OrderStatusChanged,
		OrderID:      order.ID,
		RestaurantID: order.RestaurantID,
		Status:       string(to),
	})
	if delivery != nil {
		publish(ctx, s.Events, s.Log, events.Event{
			Type:           events.DeliveryRequested,
			OrderID:        order.ID,
			RestaurantID:   order.RestaurantID,
			RiderID:        delivery.RiderID,
			DeliveryStatus: string(delivery.Status),
		})
	}
	if settled != nil {
		riderID := settled.RiderID
		publish(ctx, s.Events, s.Log, events.Event{
			Type:         events.DeliveryCompleted,
			OrderID:      order.ID,
			RestaurantID: order.RestaurantID,
			Status:       string(models.StatusDelivered),
			RiderID:      &riderID,
		})
	}
	return &order, nil
}

// moveOrder writes the new status and its audit row. The caller has already
// checked the transition.
func moveOrder(tx *gorm.DB, order *models.Order, to models.OrderStatus, changedBy uint, note string) error {
	from := order.Status
	if err := tx.Model(order).Update("status", to).Error; err != nil {
		return apperr.Internal("update order status", err)
	}
	order.Status = to
	history := models.OrderStatusHistory{
		OrderID:    order.ID,
		FromStatus: from,
		ToStatus:   to,
		ChangedBy:  changedBy,
		Note:       note,
	}
	if err := tx.Create(&history).Error; err != nil {
		return apperr.Internal("record status history", err)
	}
	return nil
}

// TotalOrders is the dashboard counter, cached for CountTTL.
func (s *OrderService) TotalOrders(ctx context.Context, restaurantID uint) (int64, error) {
	key := cache.OrderCountKey(restaurantID)

	var count int64
	found, err := s.Cache.Get(ctx, key, &count)
	if err != nil {
		s.Log.Warn("order_count_cache_read", logger.RequestID(ctx), "order count cache read failed",
			slog.String("key", key), slog.String("error", err.Error()))
	}
	if found {
		return count, nil
	}

	if err := s.DB.WithContext(ctx).Model(&models.Order{}).Where("restaurant_id = ?", restaurantID).Count(&count).Error; err != nil {
		return 0, apperr.Internal("count orders", err)
	}
	if err := s.Cache.Set(ctx, key, count, s.Config.CountTTL); err != nil {
		s.Log.Warn("order_count_cache_write", logger.RequestID(ctx), "order count cache write failed",
			slog.String("key", key), slog.String("error", err.Error()))
	}
	return count, nil
}

func (s *OrderService) forgetCount(ctx context.Context, restaurantID uint) {
	if err := s.Cache.Delete(ctx, cache.OrderCountKey(restaurantID)); err != nil {
		s.Log.Warn("order_count_cache_invalidate", logger.RequestID(ctx), "order count cache invalidation failed",
			slog.Uint64("restaurant_id", uint64(restaurantID)), slog.String("error", err.Error()))
	}
}
