package handlers

import (
	"net/http"

	"qrmenu-api/middleware"
	"qrmenu-api/models"
	"qrmenu-api/services"

	"github.com/gin-gonic/gin"
)

type RegisterRequest struct {
	Name     string          `json:"name" binding:"required"`
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=6"`
	Role     models.UserRole `json:"role" binding:"required"`
	Phone    string          `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func userBody(user *models.User) gin.H {
	return gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  user.Role,
	}
}

// Register creates a new user account
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.Users.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Phone:    req.Phone,
	})
	if err != nil {
		h.respondError(c, "register", err)
		return
	}

	token, err := h.Auth.GenerateToken(user)
	if err != nil {
		h.respondError(c, "register", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created successfully",
		"token":   token,
		"user":    userBody(user),
	})
}

// Login authenticates a user and returns a JWT
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.Users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, "login", err)
		return
	}

	token, err := h.Auth.GenerateToken(user)
	if err != nil {
		h.respondError(c, "login", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    userBody(user),
	})
}

// GetProfile returns the authenticated user and what they act as.
func (h *Handler) GetProfile(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)

	user, err := h.Users.Get(ctx, userID)
	if err != nil {
		h.respondError(c, "get_profile", err)
		return
	}
	profile, err := h.Profiles.Resolve(ctx, userID)
	if err != nil {
		h.respondError(c, "get_profile", err)
		return
	}

	body := gin.H{"user": user}
	switch p := profile.(type) {
	case services.CustomerProfile:
		body["profile"] = gin.H{"kind": "customer", "customer": p.Customer}
	case services.OwnerProfile:
		body["profile"] = gin.H{"kind": "owner", "restaurant": p.Restaurant, "menu_url": h.Restaurants.MenuURL(&p.Restaurant)}
	case services.RiderProfile:
		body["profile"] = gin.H{"kind": "rider", "rider": p.Rider}
	case services.NoProfile:
		body["profile"] = gin.H{"kind": "none"}
	}
	c.JSON(http.StatusOK, body)
}
