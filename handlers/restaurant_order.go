package handlers

import (
	"net/http"

	"qrmenu-api/middleware"
	"qrmenu-api/models"
	"qrmenu-api/statemachine"

	"github.com/gin-gonic/gin"
)

// GetRestaurantOrders returns the orders placed at the owner's restaurant
func (h *Handler) GetRestaurantOrders(c *gin.Context) {
	restaurant, ok := h.myRestaurant(c)
	if !ok {
		return
	}

	orders, err := h.Orders.ListRestaurantOrders(c.Request.Context(), restaurant.ID, models.OrderStatus(c.Query("status")))
	if err != nil {
		h.respondError(c, "list_restaurant_orders", err)
		return
	}

	summary := map[models.OrderStatus]int{}
	for _, o := range orders {
		summary[o.Status]++
	}

	c.JSON(http.StatusOK, gin.H{
		"restaurant":    restaurant.Name,
		"order_summary": summary,
		"count":         len(orders),
		"orders":        orders,
	})
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// UpdateOrderStatus moves one of the restaurant's orders forward
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	restaurant, ok := h.myRestaurant(c)
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.Orders.UpdateStatus(c.Request.Context(), middleware.GetUserID(c), restaurant.ID, orderID, req.Status)
	if err != nil {
		h.respondError(c, "update_order_status", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Order status updated",
		"order":      order,
		"next_steps": statemachine.ValidTransitionsFrom(order.Status),
	})
}

// RequestDelivery asks for a rider for one of the restaurant's orders
func (h *Handler) RequestDelivery(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	restaurant, ok := h.myRestaurant(c)
	if !ok {
		return
	}
	request, err := h.Deliveries.RequestForRestaurant(c.Request.Context(), restaurant.ID, orderID)
	if err != nil {
		h.respondError(c, "request_delivery", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"delivery_request": request})
}
