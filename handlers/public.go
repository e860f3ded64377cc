package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"qrmenu-api/logger"
	"qrmenu-api/middleware"
	"qrmenu-api/models"
	"qrmenu-api/services"
	"qrmenu-api/statemachine"

	"github.com/gin-gonic/gin"
)

// ListRestaurants returns all restaurants, optionally filtered by name (public)
func (h *Handler) ListRestaurants(c *gin.Context) {
	restaurants, err := h.Restaurants.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		h.respondError(c, "list_restaurants", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":       len(restaurants),
		"restaurants": restaurants,
	})
}

// GetRestaurant returns a single restaurant. Its menu is only reachable
// through the QR link.
func (h *Handler) GetRestaurant(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	restaurant, err := h.Restaurants.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "get_restaurant", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"restaurant": restaurant,
		"is_open":    services.IsOpen(restaurant.BusinessHours, h.now()),
	})
}

// ListCategories returns the global categories in display order (public)
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		h.respondError(c, "list_categories", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// PublicMenu serves the menu behind a table QR code. Slug and token must
// both match.
func (h *Handler) PublicMenu(c *gin.Context) {
	ctx := c.Request.Context()
	restaurant, err := h.Restaurants.ResolvePublic(ctx, c.Param("slug"), c.Param("token"))
	if err != nil {
		h.respondError(c, "public_menu", err)
		return
	}

	menu, err := h.Catalog.Menu(ctx, restaurant)
	if err != nil {
		h.respondError(c, "public_menu", err)
		return
	}

	requestID := logger.RequestID(ctx)
	if err := h.Catalog.RecordVisit(ctx, restaurant.ID, c.ClientIP(), c.Request.UserAgent()); err != nil {
		h.Log.Error("record_visit", requestID, "menu visit not recorded", err,
			slog.Uint64("restaurant_id", uint64(restaurant.ID)))
	}
	if userID, ok := middleware.UserID(c); ok {
		if role, _ := middleware.Role(c); role == models.RoleCustomer {
			if err := h.Profiles.RememberRestaurant(ctx, userID, restaurant.ID); err != nil {
				h.Log.Error("remember_restaurant", requestID, "last restaurant not saved", err,
					slog.Uint64("user_id", uint64(userID)))
			}
		}
	}

	body := gin.H{
		"restaurant": gin.H{
			"id":             restaurant.ID,
			"name":           restaurant.Name,
			"slug":           restaurant.Slug,
			"address":        restaurant.Address,
			"description":    restaurant.Description,
			"business_hours": restaurant.BusinessHours,
			"latitude":       restaurant.Latitude,
			"longitude":      restaurant.Longitude,
			"charge_gst":     restaurant.ChargeGST,
		},
		"is_open": services.IsOpen(restaurant.BusinessHours, h.now()),
		"menu":    menu,
	}
	if table, err := strconv.Atoi(c.Query("table")); err == nil && table > 0 {
		body["table"] = table
	}
	c.JSON(http.StatusOK, body)
}

// GetStateMachineInfo documents the order lifecycle
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"states": []models.OrderStatus{
			models.StatusPending,
			models.StatusConfirmed,
			models.StatusCooking,
			models.StatusOutForDelivery,
			models.StatusDelivered,
		},
		"transitions": statemachine.GetAllTransitions(),
		"notes": []string{
			"Transitions only move forward; there is no cancellation",
			"Entering OUT_FOR_DELIVERY requests a rider automatically",
			"Only the assigned rider can mark an order DELIVERED after OUT_FOR_DELIVERY",
			"Admins can move an order any number of steps forward",
		},
	})
}
