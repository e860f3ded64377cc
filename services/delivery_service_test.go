package services

import (
	"context"
	"testing"
	"time"

	"qrmenu-api/apperr"
	"qrmenu-api/events"
	"qrmenu-api/logger"
	"qrmenu-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestDeliveryAssignsFirstAvailableRider(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, r := createRestaurant(t, db, "owner@example.com", "Mama's Kitchen")
	busy := createRider(t, db, "busy@example.com", false)
	free := createRider(t, db, "free@example.com", true)
	later := createRider(t, db, "later@example.com", true)
	order := createOrder(t, db, r.ID, models.StatusCooking)

	pub := &recordingPublisher{}
	svc := NewDeliveryService(db, pub, logger.Discard())

	req, err := svc.RequestDelivery(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryAssigned, req.Status)
	require.NotNil(t, req.RiderID)
	assert.Equal(t, free.ID, *req.RiderID)

	assert.False(t, reload[models.Rider](t, db, free.ID).IsAvailable)
	assert.True(t, reload[models.Rider](t, db, later.ID).IsAvailable)
	assert.False(t, reload[models.Rider](t, db, busy.ID).IsAvailable)

	stored := reload[models.DeliveryRequest](t, db, req.ID)
	assert.Equal(t, models.DeliveryAssigned, stored.Status)
	assert.Equal(t, req.RiderID, stored.RiderID)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.DeliveryRequested, pub.events[0].Type)
	assert.Equal(t, string(models.DeliveryAssigned), pub.events[0].DeliveryStatus)
}

func TestRequestDeliveryWithoutRiders(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, r := createRestaurant(t, db, "owner@example.com", "Mama's Kitchen")
	busy := createRider(t, db, "busy@example.com", false)
	before := reload[models.Rider](t, db, busy.ID)
	order := createOrder(t, db, r.ID, models.StatusCooking)
	svc := NewDeliveryService(db, nil, logger.Discard())

	req, err := svc.RequestDelivery(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryNoRidersAvailable, req.Status)
	assert.Nil(t, req.RiderID)

	after := reload[models.Rider](t, db, busy.ID)
	assert.False(t, after.IsAvailable)
	assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt))
}

func TestRequestDeliveryNeverDoubleAssigns(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, r := createRestaurant(t, db, "owner@example.com", "Mama's Kitchen")
	only := createRider(t, db, "rider@example.com", true)
	first := createOrder(t, db, r.ID, models.StatusCooking)
	second := createOrder(t, db, r.ID, models.StatusCooking)
	svc := NewDeliveryService(db, nil, logger.Discard())

	a, err := svc.RequestDelivery(ctx, first.ID)
	require.NoError(t, err)
	b, err := svc.RequestDelivery(ctx, second.ID)
	require.NoError(t, err)

	assert.Equal(t, models.DeliveryAssigned, a.Status)
	assert.Equal(t, only.ID, *a.RiderID)
	assert.Equal(t, models.DeliveryNoRidersAvailable, b.Status)
	assert.Nil(t, b.RiderID)
}

func TestRequestDeliveryRepeats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, r := createRestaurant(t, db, "owner@example.com", "Mama's Kitchen")
	order := createOrder(t, db, r.ID, models.StatusCooking)
	svc := NewDeliveryService(db, nil, logger.Discard())

	req, err := svc.RequestDelivery(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, models.DeliveryNoRidersAvailable, req.Status)

	// A request that found nobody can be retried once a rider shows up.
	rider := createRider(t, db, "rider@example.com", true)
	retried, err := svc.RequestDelivery(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, retried.ID)
	assert.Equal(t, models.DeliveryAssigned, retried.Status)
	assert.Equal(t, rider.ID, *retried.RiderID)

	_, err = svc.RequestDelivery(ctx, order.ID)
	assertKind(t, apperr.KindConflict, err)
	assert.Equal(t, int64(1), count[models.DeliveryRequest](t, db))
}

func TestRequestForRestaurant(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, r := createRestaurant(t, db, "owner@example.com", "Mama's Kitchen")
	_, other := createRestaurant(t, db, "rival@example.com", "Rival Grill")
	cooking := createOrder(t, db, r.ID, models.StatusCooking)
	delivered := createOrder(t, db, r.ID, models.StatusDelivered)
	svc := NewDeliveryService(db, nil, logger.Discard())

	tests := []struct {
		name         string
		restaurantID uint
		orderID      uint
		wantKind     apperr.Kind
	}{
		{name: "other_restaurant", restaurantID: other.ID, orderID: cooking.ID, wantKind: apperr.KindAuthorization},
		{name: "already_delivered", restaurantID: r.ID, orderID: delivered.ID, wantKind: apperr.KindValidation},
		{name: "missing_order", restaurantID: r.ID, orderID: 9999, wantKind: apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RequestForRestaurant(ctx, tt.restaurantID, tt.orderID)
			assertKind(t, tt.wantKind, err)
		})
	}
	assert.Zero(t, count[models.DeliveryRequest](t, db))
}

func TestCompleteDelivery(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner, r := createRestaurant(t, db, "owner@example.com", "Mama's Kitchen")
	rider := createRider(t, db, "rider@example.com", true)
	stranger := createRider(t, db, "stranger@example.com", true)
	order := createOrder(t, db, r.ID, models.StatusCooking)

	fixed := time.Date(2024, time.January, 3, 18, 30, 0, 0, time.UTC)
	pub := &recordingPublisher{}
	svc := NewDeliveryService(db, pub, logger.Discard())
	svc.Now = func() time.Time { return fixed }

	_, err := svc.RequestDelivery(ctx, order.ID)
	require.NoError(t, err)

	// Still cooking: the rider cannot deliver yet.
	_, err = svc.CompleteDelivery(ctx, rider.UserID, order.ID)
	assertKind(t, apperr.KindValidation, err)

	_, err = newTestOrderService(db, nil).UpdateStatus(ctx, owner.ID, r.ID, order.ID, models.StatusOutForDelivery)
	require.NoError(t, err)

	_, err = svc.CompleteDelivery(ctx, stranger.UserID, order.ID)
	assertKind(t, apperr.KindAuthorization, err)

	delivery, err := svc.CompleteDelivery(ctx, rider.UserID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, rider.ID, delivery.RiderID)
	assert.True(t, fixed.Equal(delivery.DeliveredAt))

	assert.Equal(t, models.StatusDelivered, reload[models.Order](t, db, order.ID).Status)
	assert.True(t, reload[models.Rider](t, db, rider.ID).IsAvailable)
	assert.Equal(t, int64(1), count[models.Delivery](t, db))

	_, err = svc.CompleteDelivery(ctx, rider.UserID, order.ID)
	assertKind(t, apperr.KindValidation, err)

	assert.Equal(t, []string{events.DeliveryRequested, events.DeliveryCompleted}, pub.types())
}

func TestSetAvailability(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner, r := createRestaurant(t, db, "owner@example.com", "Mama's Kitchen")
	rider := createRider(t, db, "rider@example.com", true)
	order := createOrder(t, db, r.ID, models.StatusCooking)
	svc := NewDeliveryService(db, nil, logger.Discard())

	updated, err := svc.SetAvailability(ctx, rider.UserID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsAvailable)

	updated, err = svc.SetAvailability(ctx, rider.UserID, true)
	require.NoError(t, err)
	assert.True(t, updated.IsAvailable)

	_, err = newTestOrderService(db, nil).UpdateStatus(ctx, owner.ID, r.ID, order.ID, models.StatusOutForDelivery)
	require.NoError(t, err)

	_, err = svc.SetAvailability(ctx, rider.UserID, true)
	assertKind(t, apperr.KindConflict, err)
	assert.False(t, reload[models.Rider](t, db, rider.ID).IsAvailable)

	_, err = svc.CompleteDelivery(ctx, rider.UserID, order.ID)
	require.NoError(t, err)
	updated, err = svc.SetAvailability(ctx, rider.UserID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsAvailable)

	_, err = svc.SetAvailability(ctx, 9999, true)
	assertKind(t, apperr.KindNotFound, err)
}

func TestListAssignments(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, r := createRestaurant(t, db, "owner@example.com", "Mama's Kitchen")
	rider := createRider(t, db, "rider@example.com", true)
	order := createOrder(t, db, r.ID, models.StatusCooking)
	svc := NewDeliveryService(db, nil, logger.Discard())

	_, err := svc.RequestDelivery(ctx, order.ID)
	require.NoError(t, err)

	list, err := svc.ListAssignments(ctx, rider.UserID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Order)
	assert.Equal(t, order.ID, list[0].Order.ID)
	assert.Equal(t, "Mama's Kitchen", list[0].Order.Restaurant.Name)
}
