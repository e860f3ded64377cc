package handlers

import (
	"net/http"

	"qrmenu-api/middleware"
	"qrmenu-api/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AdminGetAllOrders returns every order with an aggregate by status
func (h *Handler) AdminGetAllOrders(c *gin.Context) {
	orders, err := h.Orders.ListOrders(c.Request.Context(), models.OrderStatus(c.Query("status")))
	if err != nil {
		h.respondError(c, "admin_list_orders", err)
		return
	}

	summary := map[models.OrderStatus]int{}
	revenue := decimal.Zero
	for _, o := range orders {
		summary[o.Status]++
		if o.Status == models.StatusDelivered {
			revenue = revenue.Add(o.Amount)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"order_summary": summary,
		"total_revenue": revenue.StringFixed(2),
		"count":         len(orders),
		"orders":        orders,
	})
}

// AdminGetAllUsers returns all users, optionally of one role
func (h *Handler) AdminGetAllUsers(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context(), models.UserRole(c.Query("role")))
	if err != nil {
		h.respondError(c, "admin_list_users", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

func (h *Handler) AdminGetAllRestaurants(c *gin.Context) {
	restaurants, err := h.Restaurants.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		h.respondError(c, "admin_list_restaurants", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(restaurants), "restaurants": restaurants})
}

type ForceStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// AdminForceOrderStatus moves an order forward past the usual actor rules
func (h *Handler) AdminForceOrderStatus(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req ForceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	order, err := h.Orders.ForceStatus(c.Request.Context(), middleware.GetUserID(c), orderID, req.Status)
	if err != nil {
		h.respondError(c, "admin_force_status", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Order status force-updated by admin",
		"order_id":   order.ID,
		"new_status": order.Status,
	})
}

// AdminRequestDelivery dispatches a rider for any order, including one whose
// earlier request found nobody free.
func (h *Handler) AdminRequestDelivery(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	request, err := h.Deliveries.RequestDelivery(c.Request.Context(), orderID)
	if err != nil {
		h.respondError(c, "admin_request_delivery", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"delivery_request": request})
}

type CategoryRequest struct {
	Name  string `json:"name" binding:"required"`
	Emoji string `json:"emoji"`
	Order int    `json:"order"`
}

func (h *Handler) AdminCreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	category, err := h.Catalog.CreateCategory(c.Request.Context(), req.Name, req.Emoji, req.Order)
	if err != nil {
		h.respondError(c, "create_category", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": category})
}

type ReorderCategoriesRequest struct {
	IDs []uint `json:"ids" binding:"required,min=1"`
}

// AdminReorderCategories sets the display order to the order of ids
func (h *Handler) AdminReorderCategories(c *gin.Context) {
	var req ReorderCategoriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	categories, err := h.Catalog.ReorderCategories(c.Request.Context(), req.IDs)
	if err != nil {
		h.respondError(c, "reorder_categories", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}
