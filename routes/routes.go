package routes

import (
	"net/http"

	"qrmenu-api/handlers"
	"qrmenu-api/logger"
	"qrmenu-api/middleware"
	"qrmenu-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handler) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "qrmenu-api"})
	})

	// ── QR menu ────────────────────────────────────────────────────
	// Printed codes carry a trailing slash; both forms resolve.
	r.GET("/menu/:slug/:token", h.Auth.Optional(), h.PublicMenu)
	r.GET("/menu/:slug/:token/", h.Auth.Optional(), h.PublicMenu)

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/auth/register", h.Register)
		public.POST("/auth/login", h.Login)

		public.GET("/restaurants", h.ListRestaurants)
		public.GET("/restaurants/:id", h.GetRestaurant)
		public.GET("/categories", h.ListCategories)

		public.GET("/state-machine", h.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(h.Auth.Required())
	{
		auth.GET("/profile", h.GetProfile)
		auth.GET("/wallet", h.GetWallet)
		auth.POST("/wallet/code", h.IssueCode)
		auth.POST("/wallet/topups", middleware.RoleRequired(models.RoleOwner, models.RoleAdmin), h.TopUp)
	}

	// ── Customer routes ────────────────────────────────────────────
	customer := r.Group("/api/customer")
	customer.Use(h.Auth.Required(), middleware.RoleRequired(models.RoleCustomer))
	{
		customer.POST("/restaurants/:id/checkout", h.Checkout)
		customer.GET("/orders", h.GetMyOrders)
		customer.GET("/orders/:id", h.GetOrderDetail)
	}

	// ── Restaurant owner routes ────────────────────────────────────
	restaurant := r.Group("/api/restaurant")
	restaurant.Use(h.Auth.Required(), middleware.RoleRequired(models.RoleOwner))
	{
		restaurant.POST("", h.CreateRestaurant)
		restaurant.GET("", h.GetMyRestaurant)
		restaurant.PUT("", h.UpdateRestaurant)
		restaurant.GET("/dashboard", h.Dashboard)

		restaurant.GET("/products", h.ListProducts)
		restaurant.POST("/products", h.AddProduct)
		restaurant.PUT("/products/:productId", h.UpdateProduct)
		restaurant.DELETE("/products/:productId", h.DeleteProduct)
		restaurant.PUT("/products/:productId/variations", h.SaveVariation)
		restaurant.DELETE("/products/:productId/variations/:variationId", h.DeleteVariation)

		restaurant.POST("/tables", h.CreateTable)
		restaurant.GET("/tables", h.ListTables)
		restaurant.GET("/tables/:number/qrcode", h.DownloadTableQR)

		restaurant.GET("/orders", h.GetRestaurantOrders)
		restaurant.PUT("/orders/:id/status", h.UpdateOrderStatus)
		restaurant.POST("/orders/:id/delivery", h.RequestDelivery)
	}

	// ── Rider routes ───────────────────────────────────────────────
	rider := r.Group("/api/rider")
	rider.Use(h.Auth.Required(), middleware.RoleRequired(models.RoleRider))
	{
		rider.GET("/assignments", h.GetMyAssignments)
		rider.PUT("/availability", h.SetAvailability)
		rider.POST("/orders/:id/complete", h.CompleteDelivery)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(h.Auth.Required(), middleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/orders", h.AdminGetAllOrders)
		admin.PUT("/orders/:id/status", h.AdminForceOrderStatus)
		admin.POST("/orders/:id/delivery", h.AdminRequestDelivery)
		admin.GET("/users", h.AdminGetAllUsers)
		admin.GET("/restaurants", h.AdminGetAllRestaurants)
		admin.POST("/categories", h.AdminCreateCategory)
		admin.PUT("/categories/order", h.AdminReorderCategories)
	}
}

// NewEngine builds the gin engine with request tagging, access logging and
// panic recovery in front of the API.
func NewEngine(h *handlers.Handler, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(log))
	SetupRoutes(r, h)
	return r
}
