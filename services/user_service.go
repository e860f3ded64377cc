package services

import (
	"context"
	"errors"
	"strings"

	"qrmenu-api/apperr"
	"qrmenu-api/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     models.UserRole
	Phone    string
}

type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// Register creates the user together with the profile its role needs.
// Riders start available.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if !in.Role.Valid() {
		return nil, apperr.ValidationField("role", "invalid role, must be one of: customer, owner, rider, admin")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}

	user := models.User{
		Name:         in.Name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         in.Role,
		Phone:        in.Phone,
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
			return apperr.Internal("check email", err)
		}
		if existing > 0 {
			return apperr.Conflict("email already registered")
		}
		if err := tx.Create(&user).Error; err != nil {
			return apperr.Internal("create user", err)
		}

		switch user.Role {
		case models.RoleCustomer:
			if _, err := ensureCustomer(tx, user.ID); err != nil {
				return err
			}
		case models.RoleRider:
			if err := tx.Create(&models.Rider{UserID: user.ID, IsAvailable: true}).Error; err != nil {
				return apperr.Internal("create rider", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, classify(err, "register")
	}
	return &user, nil
}

// Authenticate checks the credentials and returns the user.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthenticated("invalid email or password")
	}
	if err != nil {
		return nil, apperr.Internal("load user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Unauthenticated("invalid email or password")
	}
	return &user, nil
}

func (s *UserService) Get(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, notFoundOr(err, "user", "load user")
	}
	return &user, nil
}

func (s *UserService) List(ctx context.Context, role models.UserRole) ([]models.User, error) {
	var users []models.User
	query := s.DB.WithContext(ctx).Order("id")
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if err := query.Find(&users).Error; err != nil {
		return nil, apperr.Internal("list users", err)
	}
	return users, nil
}
