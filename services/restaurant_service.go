package services

import (
	"context"
	"fmt"

	"qrmenu-api/apperr"
	"qrmenu-api/models"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const coordinatePlaces = 8

type RestaurantInput struct {
	Name          string
	Address       string
	Description   string
	BusinessHours string
	Latitude      *decimal.Decimal
	Longitude     *decimal.Decimal
	ChargeGST     bool
}

type RestaurantService struct {
	DB      *gorm.DB
	Salt    string
	BaseURL string
}

func NewRestaurantService(db *gorm.DB, salt, baseURL string) *RestaurantService {
	return &RestaurantService{DB: db, Salt: salt, BaseURL: baseURL}
}

func coordinate(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(v.Round(coordinatePlaces))
}

// Create registers the owner's restaurant. The hashed token is assigned in
// the same transaction as soon as the id exists and is never rewritten.
func (s *RestaurantService) Create(ctx context.Context, ownerID uint, in RestaurantInput) (*models.Restaurant, error) {
	name := slug.Make(in.Name)
	if name == "" {
		return nil, apperr.ValidationField("name", "name must contain letters or digits")
	}

	restaurant := models.Restaurant{
		OwnerID:       ownerID,
		Name:          in.Name,
		Slug:          name,
		Address:       in.Address,
		Description:   in.Description,
		BusinessHours: in.BusinessHours,
		Latitude:      coordinate(in.Latitude),
		Longitude:     coordinate(in.Longitude),
		ChargeGST:     in.ChargeGST,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned int64
		if err := tx.Model(&models.Restaurant{}).Where("owner_id = ?", ownerID).Count(&owned).Error; err != nil {
			return apperr.Internal("check restaurant", err)
		}
		if owned > 0 {
			return apperr.Conflict("you already have a restaurant")
		}
		if err := tx.Create(&restaurant).Error; err != nil {
			return apperr.Internal("create restaurant", err)
		}
		token := HashedToken(restaurant.ID, s.Salt)
		if err := tx.Model(&restaurant).Update("hashed_slug", token).Error; err != nil {
			return apperr.Internal("assign token", err)
		}
		restaurant.HashedSlug = &token
		return nil
	})
	if err != nil {
		return nil, classify(err, "create restaurant")
	}
	return &restaurant, nil
}

// Update changes descriptive fields. Slug and token stay fixed so printed
// QR codes keep working.
func (s *RestaurantService) Update(ctx context.Context, ownerID uint, in RestaurantInput) (*models.Restaurant, error) {
	restaurant, err := s.ForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"address":        in.Address,
		"description":    in.Description,
		"business_hours": in.BusinessHours,
		"charge_gst":     in.ChargeGST,
		"latitude":       coordinate(in.Latitude),
		"longitude":      coordinate(in.Longitude),
	}
	if in.Name != "" {
		updates["name"] = in.Name
	}
	if err := s.DB.WithContext(ctx).Model(restaurant).Updates(updates).Error; err != nil {
		return nil, apperr.Internal("update restaurant", err)
	}
	return s.ForOwner(ctx, ownerID)
}

func (s *RestaurantService) ForOwner(ctx context.Context, ownerID uint) (*models.Restaurant, error) {
	var r models.Restaurant
	if err := s.DB.WithContext(ctx).Where("owner_id = ?", ownerID).First(&r).Error; err != nil {
		return nil, notFoundOr(err, "restaurant", "load restaurant")
	}
	return &r, nil
}

func (s *RestaurantService) Get(ctx context.Context, id uint) (*models.Restaurant, error) {
	var r models.Restaurant
	if err := s.DB.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, notFoundOr(err, "restaurant", "load restaurant")
	}
	return &r, nil
}

// ResolvePublic finds a restaurant by its menu URL. Both parts must match.
func (s *RestaurantService) ResolvePublic(ctx context.Context, slugPart, token string) (*models.Restaurant, error) {
	var r models.Restaurant
	err := s.DB.WithContext(ctx).
		Where("slug = ? AND hashed_slug = ?", slugPart, token).
		First(&r).Error
	if err != nil {
		return nil, notFoundOr(err, "restaurant", "resolve menu")
	}
	return &r, nil
}

func (s *RestaurantService) List(ctx context.Context, search string) ([]models.Restaurant, error) {
	var restaurants []models.Restaurant
	query := s.DB.WithContext(ctx).Order("name")
	if search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	if err := query.Find(&restaurants).Error; err != nil {
		return nil, apperr.Internal("list restaurants", err)
	}
	return restaurants, nil
}

// MenuURL is the public menu address printed on table QR codes.
func (s *RestaurantService) MenuURL(r *models.Restaurant) string {
	return fmt.Sprintf("%s/menu/%s/%s/", s.BaseURL, r.Slug, r.Token())
}
