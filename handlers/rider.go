package handlers

import (
	"net/http"

	"qrmenu-api/middleware"

	"github.com/gin-gonic/gin"
)

// GetMyAssignments returns the delivery requests assigned to the logged-in rider
func (h *Handler) GetMyAssignments(c *gin.Context) {
	requests, err := h.Deliveries.ListAssignments(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, "list_assignments", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(requests), "assignments": requests})
}

type AvailabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

// SetAvailability toggles whether the rider can receive new assignments
func (h *Handler) SetAvailability(c *gin.Context) {
	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rider, err := h.Deliveries.SetAvailability(c.Request.Context(), middleware.GetUserID(c), *req.Available)
	if err != nil {
		h.respondError(c, "set_availability", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rider": rider})
}

// CompleteDelivery marks an assigned order DELIVERED and frees the rider
func (h *Handler) CompleteDelivery(c *gin.Context) {
	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}
	delivery, err := h.Deliveries.CompleteDelivery(c.Request.Context(), middleware.GetUserID(c), orderID)
	if err != nil {
		h.respondError(c, "complete_delivery", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Order delivered successfully",
		"delivery": delivery,
	})
}
