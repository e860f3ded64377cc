package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"qrmenu-api/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	userIDKey = "userID"
	emailKey  = "email"
	roleKey   = "role"
)

type Claims struct {
	UserID uint            `json:"user_id"`
	Email  string          `json:"email"`
	Role   models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator issues and checks HS256 bearer tokens.
type Authenticator struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func NewAuthenticator(secret []byte, ttl time.Duration) *Authenticator {
	return &Authenticator{Secret: secret, TTL: ttl, Now: time.Now}
}

// GenerateToken creates a signed JWT for a given user
func (a *Authenticator) GenerateToken(user *models.User) (string, error) {
	now := a.Now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.Secret)
}

var errNoBearer = errors.New("authorization header required (Bearer <token>)")

func (a *Authenticator) parse(header string) (*Claims, error) {
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return nil, errNoBearer
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims,
		func(*jwt.Token) (any, error) { return a.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.Now),
	)
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	return claims, nil
}

func setClaims(c *gin.Context, claims *Claims) {
	c.Set(userIDKey, claims.UserID)
	c.Set(emailKey, claims.Email)
	c.Set(roleKey, string(claims.Role))
}

// Required validates the JWT and injects claims into context
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := a.parse(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// Optional injects claims when a valid token is present and lets anonymous
// requests through otherwise.
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := a.parse(c.GetHeader("Authorization")); err == nil {
			setClaims(c, claims)
		}
		c.Next()
	}
}

// RoleRequired enforces that caller has one of the allowed roles
func RoleRequired(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := Role(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "role not found in context"})
			return
		}
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		names := make([]string, len(roles))
		for i, r := range roles {
			names[i] = string(r)
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "access denied, required role(s): " + strings.Join(names, ", "),
		})
	}
}

// UserID returns the caller's id when the request carried a valid token.
func UserID(c *gin.Context) (uint, bool) {
	id, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	uid, ok := id.(uint)
	return uid, ok
}

// Role returns the caller's role when the request carried a valid token.
func Role(c *gin.Context) (models.UserRole, bool) {
	v, ok := c.Get(roleKey)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return models.UserRole(s), ok
}

// GetUserID extracts caller user ID from context. Only valid behind Required.
func GetUserID(c *gin.Context) uint {
	id, _ := UserID(c)
	return id
}
