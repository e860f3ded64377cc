package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"qrmenu-api/apperr"
	"qrmenu-api/cache"
	"qrmenu-api/logger"
	"qrmenu-api/models"
	"qrmenu-api/pricing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductInput struct {
	Name               string
	Description        string
	CategoryID         *uint
	Price              decimal.Decimal
	PriceByPercentage  bool
	DiscountPercentage *decimal.Decimal
	HasPromo           bool
	PromoPrice         *decimal.Decimal
	PromoStart         *time.Time
	PromoEnd           *time.Time
	Status             models.ProductStatus
	ChargeGST          bool
}

type VariationInput struct {
	Name               string
	Price              decimal.Decimal
	DiscountPercentage *decimal.Decimal
	IsDefault          bool
	HasPromo           bool
	PromoPrice         *decimal.Decimal
}

// MenuProduct is a product as the public menu shows it.
type MenuProduct struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        pricing.Display `json:"price"`
	IsDiscounted bool            `json:"is_discounted"`
	PromoActive  bool            `json:"promo_active"`
	PromoPrice   *string         `json:"promo_price,omitempty"`
	GSTNote      string          `json:"gst_note,omitempty"`
	Variations   []MenuVariation `json:"variations,omitempty"`
}

type MenuVariation struct {
	ID         uint    `json:"id"`
	Name       string  `json:"name"`
	Price      string  `json:"price"`
	IsDefault  bool    `json:"is_default"`
	HasPromo   bool    `json:"has_promo"`
	PromoPrice *string `json:"promo_price,omitempty"`
}

type MenuSection struct {
	Category models.Category `json:"category"`
	Products []MenuProduct   `json:"products"`
}

type Menu struct {
	RestaurantID  uint          `json:"restaurant_id"`
	Sections      []MenuSection `json:"sections"`
	Uncategorized []MenuProduct `json:"uncategorized"`
	GSTNote       string        `json:"gst_note,omitempty"`
	GeneratedAt   time.Time     `json:"generated_at"`
}

type CatalogService struct {
	DB      *gorm.DB
	Cache   cache.Cache
	MenuTTL time.Duration
	Pricing *pricing.Resolver
	GSTNote string
	Now     func() time.Time
	Log     *logger.Logger
}

func NewCatalogService(db *gorm.DB, c cache.Cache, menuTTL time.Duration, resolver *pricing.Resolver, gstNote string, now func() time.Time, log *logger.Logger) *CatalogService {
	if now == nil {
		now = time.Now
	}
	return &CatalogService{DB: db, Cache: c, MenuTTL: menuTTL, Pricing: resolver, GSTNote: gstNote, Now: now, Log: log}
}

// ── Categories ──────────────────────────────────────────────────────────────

func (s *CatalogService) CreateCategory(ctx context.Context, name, emoji string, order int) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.ValidationField("name", "category name is required")
	}
	category := models.Category{Name: name, Emoji: emoji, Order: order}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&models.Category{}).Where("name = ?", name).Count(&taken).Error; err != nil {
			return apperr.Internal("check category", err)
		}
		if taken > 0 {
			return apperr.Conflict("category %q already exists", name)
		}
		if err := tx.Create(&category).Error; err != nil {
			return apperr.Internal("create category", err)
		}
		return nil
	})
	if err != nil {
		return nil, classify(err, "create category")
	}
	s.invalidateAllMenus(ctx)
	return &category, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.DB.WithContext(ctx).Order("display_order, id").Find(&categories).Error; err != nil {
		return nil, apperr.Internal("list categories", err)
	}
	return categories, nil
}

// ReorderCategories assigns display order 1..n following ids.
func (s *CatalogService) ReorderCategories(ctx context.Context, ids []uint) ([]models.Category, error) {
	if len(ids) == 0 {
		return nil, apperr.ValidationField("ids", "at least one category id is required")
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			res := tx.Model(&models.Category{}).Where("id = ?", id).Update("display_order", i+1)
			if res.Error != nil {
				return apperr.Internal("reorder categories", res.Error)
			}
			if res.RowsAffected == 0 {
				return apperr.NotFound("category")
			}
		}
		return nil
	})
	if err != nil {
		return nil, classify(err, "reorder categories")
	}
	s.invalidateAllMenus(ctx)
	return s.ListCategories(ctx)
}

// ── Products ────────────────────────────────────────────────────────────────

func validateProduct(tx *gorm.DB, in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.ValidationField("name", "product name is required")
	}
	if !in.Price.IsPositive() {
		return apperr.ValidationField("price", "price must be greater than zero")
	}
	if in.PriceByPercentage && in.Price.GreaterThan(decimal.NewFromInt(100)) {
		return apperr.ValidationField("price", "percentage price cannot exceed 100")
	}
	if err := validatePercent("discount_percentage", in.DiscountPercentage); err != nil {
		return err
	}
	if in.Status != "" && !in.Status.Valid() {
		return apperr.ValidationField("status", "status must be Available or Unavailable")
	}
	if in.HasPromo && in.PromoPrice == nil {
		return apperr.ValidationField("promo_price", "promo price is required when a promo is set")
	}
	if in.PromoStart != nil && in.PromoEnd != nil && in.PromoEnd.Before(*in.PromoStart) {
		return apperr.ValidationField("promo_end", "promo end must not be before promo start")
	}
	if in.CategoryID != nil {
		var n int64
		if err := tx.Model(&models.Category{}).Where("id = ?", *in.CategoryID).Count(&n).Error; err != nil {
			return apperr.Internal("check category", err)
		}
		if n == 0 {
			return apperr.NotFound("category")
		}
	}
	return nil
}

func validatePercent(field string, v *decimal.Decimal) error {
	if v == nil {
		return nil
	}
	if v.IsNegative() || v.GreaterThan(decimal.NewFromInt(100)) {
		return apperr.ValidationField(field, "%s must be between 0 and 100", field)
	}
	return nil
}

func nullable(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*v)
}

func (in ProductInput) apply(p *models.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.CategoryID = in.CategoryID
	p.Price = in.Price.Round(2)
	p.PriceByPercentage = in.PriceByPercentage
	p.DiscountPercentage = nullable(in.DiscountPercentage)
	p.HasPromo = in.HasPromo
	p.PromoPrice = nullable(in.PromoPrice)
	p.PromoStart = in.PromoStart
	p.PromoEnd = in.PromoEnd
	p.ChargeGST = in.ChargeGST
	p.Status = in.Status
	if p.Status == "" {
		p.Status = models.ProductAvailable
	}
}

func (s *CatalogService) CreateProduct(ctx context.Context, restaurantID uint, in ProductInput) (*models.Product, error) {
	product := models.Product{RestaurantID: restaurantID}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := validateProduct(tx, in); err != nil {
			return err
		}
		in.apply(&product)
		if err := tx.Create(&product).Error; err != nil {
			return apperr.Internal("create product", err)
		}
		return nil
	})
	if err != nil {
		return nil, classify(err, "create product")
	}
	s.InvalidateMenu(ctx, restaurantID)
	return &product, nil
}

// UpdateProduct replaces the editable fields of a product. The row is locked
// so an in-flight checkout finishes with the price it read.
func (s *CatalogService) UpdateProduct(ctx context.Context, restaurantID, productID uint, in ProductInput) (*models.Product, error) {
	var product models.Product
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&product, productID).Error; err != nil {
			return notFoundOr(err, "product", "load product")
		}
		if product.RestaurantID != restaurantID {
			return apperr.Forbidden("you don't own this product")
		}
		if err := validateProduct(tx, in); err != nil {
			return err
		}
		in.apply(&product)
		if err := tx.Select("*").Omit("id", "restaurant_id", "has_variations", "created_at").Save(&product).Error; err != nil {
			return apperr.Internal("update product", err)
		}
		return nil
	})
	if err != nil {
		return nil, classify(err, "update product")
	}
	s.InvalidateMenu(ctx, restaurantID)
	return &product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, restaurantID, productID uint) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := lockForUpdate(tx).First(&product, productID).Error; err != nil {
			return notFoundOr(err, "product", "load product")
		}
		if product.RestaurantID != restaurantID {
			return apperr.Forbidden("you don't own this product")
		}
		if err := tx.Where("product_id = ?", productID).Delete(&models.ProductVariation{}).Error; err != nil {
			return apperr.Internal("delete variations", err)
		}
		if err := tx.Delete(&product).Error; err != nil {
			return apperr.Internal("delete product", err)
		}
		return nil
	})
	if err != nil {
		return classify(err, "delete product")
	}
	s.InvalidateMenu(ctx, restaurantID)
	return nil
}

func (s *CatalogService) ListProducts(ctx context.Context, restaurantID uint) ([]models.Product, error) {
	var products []models.Product
	err := s.DB.WithContext(ctx).
		Preload("Variations", func(db *gorm.DB) *gorm.DB { return db.Order("is_default desc, name") }).
		Where("restaurant_id = ?", restaurantID).
		Order("name").
		Find(&products).Error
	if err != nil {
		return nil, apperr.Internal("list products", err)
	}
	return products, nil
}

// ── Variations ──────────────────────────────────────────────────────────────

// SaveVariation creates or updates the variation named in.Name. Making it the
// default clears the flag on every sibling in the same transaction.
func (s *CatalogService) SaveVariation(ctx context.Context, restaurantID, productID uint, in VariationInput) (*models.ProductVariation, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.ValidationField("name", "variation name is required")
	}
	if !in.Price.IsPositive() {
		return nil, apperr.ValidationField("price", "price must be greater than zero")
	}
	if err := validatePercent("discount_percentage", in.DiscountPercentage); err != nil {
		return nil, err
	}

	var variation models.ProductVariation
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := lockForUpdate(tx).First(&product, productID).Error; err != nil {
			return notFoundOr(err, "product", "load product")
		}
		if product.RestaurantID != restaurantID {
			return apperr.Forbidden("you don't own this product")
		}
		if product.PriceByPercentage {
			return apperr.Validation("percentage-priced products cannot have variations")
		}

		res := tx.Where("product_id = ? AND name = ?", productID, name).Limit(1).Find(&variation)
		if res.Error != nil {
			return apperr.Internal("load variation", res.Error)
		}
		variation.ProductID = productID
		variation.Name = name
		variation.Price = in.Price.Round(2)
		variation.DiscountPercentage = nullable(in.DiscountPercentage)
		variation.IsDefault = in.IsDefault
		variation.HasPromo = in.HasPromo
		variation.PromoPrice = nullable(in.PromoPrice)

		if variation.IsDefault {
			err := tx.Model(&models.ProductVariation{}).
				Where("product_id = ? AND is_default = ? AND name <> ?", productID, true, name).
				Update("is_default", false).Error
			if err != nil {
				return apperr.Internal("clear default variation", err)
			}
		}
		if err := tx.Save(&variation).Error; err != nil {
			return apperr.Internal("save variation", err)
		}
		if !product.HasVariations {
			if err := tx.Model(&product).Update("has_variations", true).Error; err != nil {
				return apperr.Internal("flag variations", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, classify(err, "save variation")
	}
	s.InvalidateMenu(ctx, restaurantID)
	return &variation, nil
}

func (s *CatalogService) DeleteVariation(ctx context.Context, restaurantID, productID, variationID uint) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := lockForUpdate(tx).First(&product, productID).Error; err != nil {
			return notFoundOr(err, "product", "load product")
		}
		if product.RestaurantID != restaurantID {
			return apperr.Forbidden("you don't own this product")
		}
		res := tx.Where("id = ? AND product_id = ?", variationID, productID).Delete(&models.ProductVariation{})
		if res.Error != nil {
			return apperr.Internal("delete variation", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("variation")
		}
		var left int64
		if err := tx.Model(&models.ProductVariation{}).Where("product_id = ?", productID).Count(&left).Error; err != nil {
			return apperr.Internal("count variations", err)
		}
		if err := tx.Model(&product).Update("has_variations", left > 0).Error; err != nil {
			return apperr.Internal("flag variations", err)
		}
		return nil
	})
	if err != nil {
		return classify(err, "delete variation")
	}
	s.InvalidateMenu(ctx, restaurantID)
	return nil
}

// ── Public menu ─────────────────────────────────────────────────────────────

// Menu lists the Available products of a restaurant grouped by category.
// The listing is cached for the current day only, since prices depend on it.
func (s *CatalogService) Menu(ctx context.Context, restaurant *models.Restaurant) (*Menu, error) {
	now := s.Now()
	key := cache.MenuKey(restaurant.ID, now)

	var cached Menu
	found, err := s.Cache.Get(ctx, key, &cached)
	if err != nil {
		s.Log.Warn("menu_cache_read", logger.RequestID(ctx), "menu cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if found {
		return &cached, nil
	}

	menu, err := s.buildMenu(ctx, restaurant)
	if err != nil {
		return nil, err
	}
	if err := s.Cache.Set(ctx, key, menu, s.MenuTTL); err != nil {
		s.Log.Warn("menu_cache_write", logger.RequestID(ctx), "menu cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return menu, nil
}

func (s *CatalogService) buildMenu(ctx context.Context, restaurant *models.Restaurant) (*Menu, error) {
	db := s.DB.WithContext(ctx)
	now := s.Now()

	var products []models.Product
	err := db.Preload("Variations", func(db *gorm.DB) *gorm.DB { return db.Order("is_default desc, name") }).
		Where("restaurant_id = ? AND status = ?", restaurant.ID, models.ProductAvailable).
		Order("name").
		Find(&products).Error
	if err != nil {
		return nil, apperr.Internal("load menu products", err)
	}

	var categories []models.Category
	if err := db.Order("display_order, id").Find(&categories).Error; err != nil {
		return nil, apperr.Internal("load categories", err)
	}

	gstNote := ""
	if restaurant.ChargeGST {
		gstNote = s.GSTNote
	}

	byCategory := make(map[uint][]MenuProduct)
	menu := &Menu{RestaurantID: restaurant.ID, GSTNote: gstNote, GeneratedAt: now, Uncategorized: []MenuProduct{}, Sections: []MenuSection{}}
	known := make(map[uint]bool, len(categories))
	for _, c := range categories {
		known[c.ID] = true
	}

	for _, p := range products {
		item := s.menuProduct(p, gstNote, now)
		if p.CategoryID != nil && known[*p.CategoryID] {
			byCategory[*p.CategoryID] = append(byCategory[*p.CategoryID], item)
			continue
		}
		menu.Uncategorized = append(menu.Uncategorized, item)
	}

	for _, c := range categories {
		if items := byCategory[c.ID]; len(items) > 0 {
			menu.Sections = append(menu.Sections, MenuSection{Category: c, Products: items})
		}
	}
	return menu, nil
}

func fixedString(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.StringFixed(2)
	return &s
}

func (s *CatalogService) menuProduct(p models.Product, gstNote string, now time.Time) MenuProduct {
	display := s.Pricing.Resolve(p, pricing.DefaultSize)
	item := MenuProduct{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        display,
		IsDiscounted: display.Promotional,
		PromoActive:  p.PromoActive(now),
		GSTNote:      gstNote,
	}
	if item.PromoActive {
		item.PromoPrice = fixedString(p.PromoPrice)
	}
	for _, v := range p.Variations {
		item.Variations = append(item.Variations, MenuVariation{
			ID:         v.ID,
			Name:       v.Name,
			Price:      pricing.Discounted(v.Price, v.DiscountPercentage).StringFixed(2),
			IsDefault:  v.IsDefault,
			HasPromo:   v.HasPromo,
			PromoPrice: fixedString(v.PromoPrice),
		})
	}
	return item
}

// InvalidateMenu drops today's cached menu of one restaurant.
func (s *CatalogService) InvalidateMenu(ctx context.Context, restaurantID uint) {
	s.dropMenus(ctx, cache.MenuKey(restaurantID, s.Now()))
}

// invalidateAllMenus drops today's cached menu of every restaurant. Category
// changes reach all of them since categories are shared.
func (s *CatalogService) invalidateAllMenus(ctx context.Context) {
	var ids []uint
	if err := s.DB.WithContext(ctx).Model(&models.Restaurant{}).Pluck("id", &ids).Error; err != nil {
		s.Log.Warn("menu_cache_invalidate", logger.RequestID(ctx), "restaurant ids not loaded", slog.String("error", err.Error()))
		return
	}
	today := s.Now()
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, cache.MenuKey(id, today))
	}
	s.dropMenus(ctx, keys...)
}

func (s *CatalogService) dropMenus(ctx context.Context, keys ...string) {
	if err := s.Cache.Delete(ctx, keys...); err != nil {
		s.Log.Warn("menu_cache_invalidate", logger.RequestID(ctx), "menu cache invalidation failed",
			slog.Int("keys", len(keys)), slog.String("error", err.Error()))
	}
}

// RecordVisit logs one public menu view.
func (s *CatalogService) RecordVisit(ctx context.Context, restaurantID uint, ip, userAgent string) error {
	visit := models.MenuVisit{
		RestaurantID: restaurantID,
		IPAddress:    ip,
		UserAgent:    userAgent,
		Device:       deviceClass(userAgent),
		VisitedAt:    s.Now(),
	}
	if err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&visit).Error; err != nil {
		return apperr.Internal("record visit", err)
	}
	return nil
}

func deviceClass(userAgent string) string {
	ua := strings.ToLower(userAgent)
	for _, marker := range []string{"mobile", "android", "iphone", "ipad"} {
		if strings.Contains(ua, marker) {
			return "mobile"
		}
	}
	return "desktop"
}
