package handlers

import (
	"net/http"
	"strconv"
	"time"

	"qrmenu-api/middleware"
	"qrmenu-api/models"
	"qrmenu-api/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ── Restaurant Management ────────────────────────────────────────────────────

type RestaurantRequest struct {
	Name          string           `json:"name" binding:"required"`
	Address       string           `json:"address" binding:"required"`
	Description   string           `json:"description"`
	BusinessHours string           `json:"business_hours"`
	Latitude      *decimal.Decimal `json:"latitude"`
	Longitude     *decimal.Decimal `json:"longitude"`
	ChargeGST     bool             `json:"charge_gst"`
}

func (r RestaurantRequest) input() services.RestaurantInput {
	return services.RestaurantInput{
		Name:          r.Name,
		Address:       r.Address,
		Description:   r.Description,
		BusinessHours: r.BusinessHours,
		Latitude:      r.Latitude,
		Longitude:     r.Longitude,
		ChargeGST:     r.ChargeGST,
	}
}

// CreateRestaurant lets an owner register their restaurant
func (h *Handler) CreateRestaurant(c *gin.Context) {
	var req RestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	restaurant, err := h.Restaurants.Create(c.Request.Context(), middleware.GetUserID(c), req.input())
	if err != nil {
		h.respondError(c, "create_restaurant", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":    "Restaurant created",
		"restaurant": restaurant,
		"menu_url":   h.Restaurants.MenuURL(restaurant),
	})
}

// GetMyRestaurant fetches the restaurant owned by the logged-in user
func (h *Handler) GetMyRestaurant(c *gin.Context) {
	restaurant, ok := h.myRestaurant(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"restaurant": restaurant,
		"menu_url":   h.Restaurants.MenuURL(restaurant),
	})
}

// UpdateRestaurant replaces the editable restaurant details. The slug and
// token stay as they are so printed QR codes keep working.
func (h *Handler) UpdateRestaurant(c *gin.Context) {
	var req RestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	restaurant, err := h.Restaurants.Update(c.Request.Context(), middleware.GetUserID(c), req.input())
	if err != nil {
		h.respondError(c, "update_restaurant", err)
		return
	}
	// The menu shows the GST note and restaurant details.
	h.Catalog.InvalidateMenu(c.Request.Context(), restaurant.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant updated", "restaurant": restaurant})
}

// Dashboard summarizes the owner's restaurant
func (h *Handler) Dashboard(c *gin.Context) {
	restaurant, ok := h.myRestaurant(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	total, err := h.Orders.TotalOrders(ctx, restaurant.ID)
	if err != nil {
		h.respondError(c, "dashboard", err)
		return
	}
	products, err := h.Catalog.ListProducts(ctx, restaurant.ID)
	if err != nil {
		h.respondError(c, "dashboard", err)
		return
	}
	tables, err := h.Tables.ListTables(ctx, restaurant.ID)
	if err != nil {
		h.respondError(c, "dashboard", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"restaurant":    restaurant,
		"menu_url":      h.Restaurants.MenuURL(restaurant),
		"is_open":       services.IsOpen(restaurant.BusinessHours, h.now()),
		"total_orders":  total,
		"product_count": len(products),
		"table_count":   len(tables),
	})
}

// ── Product Management ───────────────────────────────────────────────────────

type ProductRequest struct {
	Name               string               `json:"name" binding:"required"`
	Description        string               `json:"description"`
	CategoryID         *uint                `json:"category_id"`
	Price              decimal.Decimal      `json:"price"`
	PriceByPercentage  bool                 `json:"price_by_percentage"`
	DiscountPercentage *decimal.Decimal     `json:"discount_percentage"`
	HasPromo           bool                 `json:"has_promo"`
	PromoPrice         *decimal.Decimal     `json:"promo_price"`
	PromoStart         *time.Time           `json:"promo_start"`
	PromoEnd           *time.Time           `json:"promo_end"`
	Status             models.ProductStatus `json:"status"`
	ChargeGST          bool                 `json:"charge_gst"`
}

func (r ProductRequest) input() services.ProductInput {
	return services.ProductInput{
		Name:               r.Name,
		Description:        r.Description,
		CategoryID:         r.CategoryID,
		Price:              r.Price,
		PriceByPercentage:  r.PriceByPercentage,
		DiscountPercentage: r.DiscountPercentage,
		HasPromo:           r.HasPromo,
		PromoPrice:         r.PromoPrice,
		PromoStart:         r.PromoStart,
		PromoEnd:           r.PromoEnd,
		Status:             r.Status,
		ChargeGST:          r.ChargeGST,
	}
}

// ListProducts returns every product of the owner's restaurant, unavailable
// ones included
func (h *Handler) ListProducts(c *gin.Context) {
	restaurant, ok := h.myRestaurant(c)
	if !ok {
		return
	}
	products, err := h.Catalog.ListProducts(c.Request.Context(), restaurant.ID)
	if err != nil {
		h.respondError(c, "list_products", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(products), "products": products})
}

// AddProduct adds a product to the owner's menu
func (h *Handler) AddProduct(c *gin.Context) {
	restaurant, ok := h.myRestaurant(c)
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	product, err := h.Catalog.CreateProduct(c.Request.Context(), restaurant.ID, req.input())
	if err != nil {
		h.respondError(c, "create_product", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Product added", "product": product})
}

// UpdateProduct replaces a product's details
func (h *Handler) UpdateProduct(c *gin.Context) {
	productID, ok := paramID(c, "productId")
	if !ok {
		return
	}
	restaurant, ok := h.myRestaurant(c)
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	product, err := h.Catalog.UpdateProduct(c.Request.Context(), restaurant.ID, productID, req.input())
	if err != nil {
		h.respondError(c, "update_product", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated", "product": product})
}

// DeleteProduct removes a product and its variations
func (h *Handler) DeleteProduct(c *gin.Context) {
	productID, ok := paramID(c, "productId")
	if !ok {
		return
	}
	restaurant, ok := h.myRestaurant(c)
	if !ok {
		return
	}
	if err := h.Catalog.DeleteProduct(c.Request.Context(), restaurant.ID, productID); err != nil {
		h.respondError(c, "delete_product", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

type VariationRequest struct {
	Name               string           `json:"name" binding:"required"`
	Price              decimal.Decimal  `json:"price"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage"`
	IsDefault          bool             `json:"is_default"`
	HasPromo           bool             `json:"has_promo"`
	PromoPrice         *decimal.Decimal `json:"promo_price"`
}

// SaveVariation creates or replaces the named size of a product
func (h *Handler) SaveVariation(c *gin.Context) {
	productID, ok := paramID(c, "productId")
	if !ok {
		return
	}
	restaurant, ok := h.myRestaurant(c)
	if !ok {
		return
	}
	var req VariationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	variation, err := h.Catalog.SaveVariation(c.Request.Context(), restaurant.ID, productID, services.VariationInput{
		Name:               req.Name,
		Price:              req.Price,
		DiscountPercentage: req.DiscountPercentage,
		IsDefault:          req.IsDefault,
		HasPromo:           req.HasPromo,
		PromoPrice:         req.PromoPrice,
	})
	if err != nil {
		h.respondError(c, "save_variation", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Variation saved", "variation": variation})
}

func (h *Handler) DeleteVariation(c *gin.Context) {
	productID, ok := paramID(c, "productId")
	if !ok {
		return
	}
	variationID, ok := paramID(c, "variationId")
	if !ok {
		return
	}
	restaurant, ok := h.myRestaurant(c)
	if !ok {
		return
	}
	if err := h.Catalog.DeleteVariation(c.Request.Context(), restaurant.ID, productID, variationID); err != nil {
		h.respondError(c, "delete_variation", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Variation deleted"})
}

// ── Tables & QR codes ────────────────────────────────────────────────────────

type TableRequest struct {
	Number int `json:"number" binding:"required"`
}

func (h *Handler) CreateTable(c *gin.Context) {
	restaurant, ok := h.myRestaurant(c)
	if !ok {
		return
	}
	var req TableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	table, err := h.Tables.CreateTable(c.Request.Context(), restaurant.ID, req.Number)
	if err != nil {
		h.respondError(c, "create_table", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"table": table,
		"url":   h.Tables.TableURL(restaurant, table.Number),
	})
}

func (h *Handler) ListTables(c *gin.Context) {
	restaurant, ok := h.myRestaurant(c)
	if !ok {
		return
	}
	tables, err := h.Tables.ListTables(c.Request.Context(), restaurant.ID)
	if err != nil {
		h.respondError(c, "list_tables", err)
		return
	}
	out := make([]gin.H, 0, len(tables))
	for _, t := range tables {
		out = append(out, gin.H{"table": t, "url": h.Tables.TableURL(restaurant, t.Number)})
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "tables": out})
}

// DownloadTableQR returns the PNG QR code that links to the table's menu
func (h *Handler) DownloadTableQR(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid table number"})
		return
	}
	restaurant, ok := h.myRestaurant(c)
	if !ok {
		return
	}
	img, err := h.Tables.QRCode(c.Request.Context(), restaurant, number)
	if err != nil {
		h.respondError(c, "table_qr", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+img.Filename+`"`)
	c.Data(http.StatusOK, "image/png", img.PNG)
}
