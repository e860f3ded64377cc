package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"qrmenu-api/apperr"
	"qrmenu-api/cache"
	"qrmenu-api/config"
	"qrmenu-api/events"
	"qrmenu-api/logger"
	"qrmenu-api/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	testSalt    = "pepper"
	testBaseURL = "https://menu.example.com"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return db
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func assertKind(t *testing.T, want apperr.Kind, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, apperr.KindOf(err), "error: %v", err)
}

func createUser(t *testing.T, db *gorm.DB, role models.UserRole, email string) models.User {
	t.Helper()
	user := models.User{Name: email, Email: email, PasswordHash: "x", Role: role}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createRestaurant(t *testing.T, db *gorm.DB, ownerEmail, name string) (models.User, *models.Restaurant) {
	t.Helper()
	owner := createUser(t, db, models.RoleOwner, ownerEmail)
	r, err := NewRestaurantService(db, testSalt, testBaseURL).Create(context.Background(), owner.ID, RestaurantInput{
		Name:          name,
		BusinessHours: "Everyday",
	})
	require.NoError(t, err)
	return owner, r
}

func createProduct(t *testing.T, db *gorm.DB, restaurantID uint, name, price string) models.Product {
	t.Helper()
	p := models.Product{
		RestaurantID: restaurantID,
		Name:         name,
		Price:        dec(price),
		Status:       models.ProductAvailable,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func createRider(t *testing.T, db *gorm.DB, email string, available bool) models.Rider {
	t.Helper()
	user := createUser(t, db, models.RoleRider, email)
	rider := models.Rider{UserID: user.ID, IsAvailable: available}
	require.NoError(t, db.Create(&rider).Error)
	if !available {
		// gorm skips zero values on insert, so make the flag explicit.
		require.NoError(t, db.Model(&rider).Update("is_available", false).Error)
	}
	return rider
}

var customerSeq atomic.Int64

func createOrder(t *testing.T, db *gorm.DB, restaurantID uint, status models.OrderStatus) models.Order {
	t.Helper()
	user := createUser(t, db, models.RoleCustomer, fmt.Sprintf("customer%d@example.com", customerSeq.Add(1)))
	customer := models.Customer{UserID: user.ID}
	require.NoError(t, db.Create(&customer).Error)
	order := models.Order{
		CustomerID:    customer.ID,
		RestaurantID:  restaurantID,
		Status:        status,
		PaymentMethod: models.PaymentCashOnDelivery,
		Amount:        dec("10.51"),
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}

func reload[T any](t *testing.T, db *gorm.DB, id uint) T {
	t.Helper()
	var v T
	require.NoError(t, db.First(&v, id).Error)
	return v
}

func count[T any](t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(new(T)).Count(&n).Error)
	return n
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func testOrderConfig() OrderConfig {
	return OrderConfig{
		ServiceCharge: dec("0.51"),
		Currency:      "LRD",
		DefaultTable:  true,
		CountTTL:      time.Hour,
	}
}

func newTestOrderService(db *gorm.DB, pub events.Publisher) *OrderService {
	return NewOrderService(db, testOrderConfig(), pub, cache.Nop{}, logger.Discard())
}

var errBroker = errors.New("broker down")
