package services

import (
	"context"
	"testing"
	"time"

	"qrmenu-api/apperr"
	"qrmenu-api/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashedToken(t *testing.T) {
	first := HashedToken(42, testSalt)
	assert.Len(t, first, 10)
	assert.Regexp(t, `^[0-9a-f]{10}$`, first)
	assert.Equal(t, first, HashedToken(42, testSalt))
	assert.NotEqual(t, first, HashedToken(43, testSalt))
	assert.NotEqual(t, first, HashedToken(42, "other-salt"))

	seen := make(map[string]uint)
	for id := uint(1); id <= 2000; id++ {
		token := HashedToken(id, testSalt)
		prev, dup := seen[token]
		require.False(t, dup, "ids %d and %d share token %s", prev, id, token)
		seen[token] = id
	}
}

func TestCreateRestaurant(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewRestaurantService(db, testSalt, testBaseURL)
	owner := createUser(t, db, models.RoleOwner, "owner@example.com")
	lat := decimal.RequireFromString("6.300774123")

	r, err := svc.Create(ctx, owner.ID, RestaurantInput{
		Name:          "Blue Fish & Chips",
		BusinessHours: "Everyday",
		Latitude:      &lat,
		ChargeGST:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, "blue-fish-and-chips", r.Slug)
	assert.Equal(t, HashedToken(r.ID, testSalt), r.Token())

	stored := reload[models.Restaurant](t, db, r.ID)
	assert.Equal(t, r.Token(), stored.Token())
	require.True(t, stored.Latitude.Valid)
	assertDecimal(t, "6.30077412", stored.Latitude.Decimal)
	assert.False(t, stored.Longitude.Valid)

	_, err = svc.Create(ctx, owner.ID, RestaurantInput{Name: "Second Place"})
	assertKind(t, apperr.KindConflict, err)

	other := createUser(t, db, models.RoleOwner, "other@example.com")
	_, err = svc.Create(ctx, other.ID, RestaurantInput{Name: "!!!"})
	assertKind(t, apperr.KindValidation, err)
}

func TestUpdateRestaurantKeepsToken(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner, r := createRestaurant(t, db, "owner@example.com", "Mama's Kitchen")
	svc := NewRestaurantService(db, testSalt, testBaseURL)

	updated, err := svc.Update(ctx, owner.ID, RestaurantInput{
		Name:          "Mama's New Kitchen",
		Address:       "Broad Street",
		BusinessHours: "MonTue:0800-1700",
	})
	require.NoError(t, err)
	assert.Equal(t, "Mama's New Kitchen", updated.Name)
	assert.Equal(t, "Broad Street", updated.Address)
	assert.Equal(t, r.Slug, updated.Slug)
	assert.Equal(t, r.Token(), updated.Token())

	_, err = svc.Update(ctx, 9999, RestaurantInput{Name: "x"})
	assertKind(t, apperr.KindNotFound, err)
}

func TestResolvePublic(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, r := createRestaurant(t, db, "owner@example.com", "Mama's Kitchen")
	_, other := createRestaurant(t, db, "rival@example.com", "Rival Grill")
	svc := NewRestaurantService(db, testSalt, testBaseURL)

	tests := []struct {
		name    string
		slug    string
		token   string
		wantID  uint
		wantErr bool
	}{
		{name: "both_match", slug: r.Slug, token: r.Token(), wantID: r.ID},
		{name: "wrong_token", slug: r.Slug, token: "0000000000", wantErr: true},
		{name: "token_of_other_restaurant", slug: r.Slug, token: other.Token(), wantErr: true},
		{name: "slug_only", slug: r.Slug, token: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ResolvePublic(ctx, tt.slug, tt.token)
			if tt.wantErr {
				assertKind(t, apperr.KindNotFound, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}

	assert.Equal(t, "https://menu.example.com/menu/"+r.Slug+"/"+r.Token()+"/", svc.MenuURL(r))

	found, err := svc.List(ctx, "Rival")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, other.ID, found[0].ID)
}

func TestIsOpen(t *testing.T) {
	monday9 := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	monday18 := time.Date(2024, time.January, 1, 18, 0, 0, 0, time.UTC)
	wednesday1730 := time.Date(2024, time.January, 3, 17, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		hours string
		now   time.Time
		want  bool
	}{
		{name: "everyday", hours: "Everyday", now: monday18, want: true},
		{name: "everyday_trailing_dot", hours: "Everyday.", now: monday18, want: true},
		{name: "empty", hours: "", now: monday9, want: false},
		{name: "inside_window", hours: "MonTue:0800-1700", now: monday9, want: true},
		{name: "after_closing", hours: "MonTue:0800-1700", now: monday18, want: false},
		{name: "day_not_listed", hours: "MonTue:0800-1700", now: wednesday1730, want: false},
		{name: "second_entry", hours: "MonTue:0800-1700,WedThu:0900-1800", now: wednesday1730, want: true},
		{name: "malformed", hours: "open late", now: monday9, want: false},
		{name: "bad_time", hours: "Mon:08h-17h", now: monday9, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsOpen(tt.hours, tt.now))
		})
	}
}
