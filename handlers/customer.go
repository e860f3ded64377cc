package handlers

import (
	"encoding/json"
	"net/http"

	"qrmenu-api/cart"
	"qrmenu-api/middleware"
	"qrmenu-api/models"
	"qrmenu-api/services"

	"github.com/gin-gonic/gin"
)

// CheckoutRequest carries the client-held cart. Cart may be a JSON object or
// a string holding one, as the menu page stores it.
type CheckoutRequest struct {
	Cart          json.RawMessage `json:"cart" binding:"required"`
	PaymentMethod string          `json:"payment_method" binding:"required"`
	TableNumber   *int            `json:"table_number"`
}

// Checkout places an order for the cart at one restaurant
func (h *Handler) Checkout(c *gin.Context) {
	restaurantID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	method, ok := models.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "payment_method must be Cash on Delivery or Mobile Money",
			"field": "payment_method",
		})
		return
	}

	lines, err := cart.Parse(req.Cart)
	if err != nil {
		h.respondError(c, "checkout", err)
		return
	}

	result, err := h.Orders.PlaceOrder(c.Request.Context(), services.PlaceOrderInput{
		UserID:        middleware.GetUserID(c),
		RestaurantID:  restaurantID,
		Lines:         lines,
		PaymentMethod: method,
		TableNumber:   req.TableNumber,
	})
	if err != nil {
		h.respondError(c, "checkout", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Order placed successfully",
		"order_id":     result.OrderID,
		"total_amount": result.Total.StringFixed(2),
	})
}

// GetMyOrders returns the customer's orders, newest first
func (h *Handler) GetMyOrders(c *gin.Context) {
	orders, err := h.Orders.ListCustomerOrders(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, "list_my_orders", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

// GetOrderDetail returns one of the customer's own orders
func (h *Handler) GetOrderDetail(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := h.Orders.GetCustomerOrder(c.Request.Context(), middleware.GetUserID(c), orderID)
	if err != nil {
		h.respondError(c, "get_order", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}
