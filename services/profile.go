package services

import (
	"context"

	"qrmenu-api/apperr"
	"qrmenu-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Profile is what a user acts as. Exactly one of the variants below is
// returned by ProfileService.Resolve.
type Profile interface {
	isProfile()
}

type NoProfile struct{}

type CustomerProfile struct {
	Customer models.Customer
}

type OwnerProfile struct {
	Restaurant models.Restaurant
}

type RiderProfile struct {
	Rider models.Rider
}

func (NoProfile) isProfile()       {}
func (CustomerProfile) isProfile() {}
func (OwnerProfile) isProfile()    {}
func (RiderProfile) isProfile()    {}

type ProfileService struct {
	DB *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{DB: db}
}

func (s *ProfileService) Resolve(ctx context.Context, userID uint) (Profile, error) {
	db := s.DB.WithContext(ctx)

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return nil, notFoundOr(err, "user", "load user")
	}

	switch user.Role {
	case models.RoleOwner:
		var r models.Restaurant
		res := db.Where("owner_id = ?", userID).Limit(1).Find(&r)
		if res.Error != nil {
			return nil, apperr.Internal("load restaurant", res.Error)
		}
		if res.RowsAffected == 0 {
			return NoProfile{}, nil
		}
		return OwnerProfile{Restaurant: r}, nil
	case models.RoleCustomer:
		var c models.Customer
		res := db.Where("user_id = ?", userID).Limit(1).Find(&c)
		if res.Error != nil {
			return nil, apperr.Internal("load customer", res.Error)
		}
		if res.RowsAffected == 0 {
			return NoProfile{}, nil
		}
		return CustomerProfile{Customer: c}, nil
	case models.RoleRider:
		var r models.Rider
		res := db.Where("user_id = ?", userID).Limit(1).Find(&r)
		if res.Error != nil {
			return nil, apperr.Internal("load rider", res.Error)
		}
		if res.RowsAffected == 0 {
			return NoProfile{}, nil
		}
		return RiderProfile{Rider: r}, nil
	default:
		return NoProfile{}, nil
	}
}

// RememberRestaurant stores the last restaurant a customer browsed. Users
// without a customer profile are left alone.
func (s *ProfileService) RememberRestaurant(ctx context.Context, userID, restaurantID uint) error {
	err := s.DB.WithContext(ctx).Model(&models.Customer{}).
		Where("user_id = ?", userID).
		Update("restaurant_id", restaurantID).Error
	if err != nil {
		return apperr.Internal("remember restaurant", err)
	}
	return nil
}

// ensureCustomer returns the customer profile of userID, creating it if the
// user has none.
func ensureCustomer(tx *gorm.DB, userID uint) (*models.Customer, error) {
	err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Customer{UserID: userID}).Error
	if err != nil {
		return nil, apperr.Internal("create customer", err)
	}
	var c models.Customer
	if err := tx.Where("user_id = ?", userID).First(&c).Error; err != nil {
		return nil, apperr.Internal("load customer", err)
	}
	return &c, nil
}
