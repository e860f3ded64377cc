package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"qrmenu-api/apperr"
	"qrmenu-api/logger"
	"qrmenu-api/middleware"
	"qrmenu-api/models"
	"qrmenu-api/services"

	"github.com/gin-gonic/gin"
)

// Handler serves the HTTP API on top of the services.
type Handler struct {
	Auth        *middleware.Authenticator
	Users       *services.UserService
	Profiles    *services.ProfileService
	Restaurants *services.RestaurantService
	Catalog     *services.CatalogService
	Orders      *services.OrderService
	Deliveries  *services.DeliveryService
	Wallets     *services.WalletService
	Tables      *services.TableService
	Log         *logger.Logger
	Now         func() time.Time
}

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindAuthorization:
		return http.StatusForbidden
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as JSON. Internal failures are logged and hidden
// behind a generic message.
func (h *Handler) respondError(c *gin.Context, action string, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		appErr = apperr.Internal(action, err)
	}

	status := statusOf(appErr.Kind)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		h.Log.Error(action, logger.RequestID(c.Request.Context()), "request failed", err,
			slog.String("path", c.FullPath()))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}

	body := gin.H{"error": appErr.Message}
	if appErr.Field != "" {
		body["field"] = appErr.Field
	}
	if appErr.ProductID != 0 {
		body["product_id"] = appErr.ProductID
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// paramID reads a positive numeric path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// myRestaurant loads the caller's restaurant, answering the request itself
// when there is none.
func (h *Handler) myRestaurant(c *gin.Context) (*models.Restaurant, bool) {
	r, err := h.Restaurants.ForOwner(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, "load_restaurant", err)
		return nil, false
	}
	return r, true
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}
