package utils

import (
	"errors"
	"fmt"
	"time"

	"excel_analytics/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidRole = errors.New("token carries an unknown role")

// TokenUser is the user payload embedded in every token
type TokenUser struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

// JWTClaims custom claims for JWT
type JWTClaims struct {
	User TokenUser `json:"user"`
	jwt.RegisteredClaims
}

// UserID parses the embedded user id.
func (c *JWTClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.User.ID)
}

// JWTUtil provides JWT generation and validation
type JWTUtil struct {
	secretKey  string
	expiration time.Duration
}

// NewJWTUtil creates a new JWTUtil
func NewJWTUtil(secretKey string, expiration time.Duration) *JWTUtil {
	return &JWTUtil{secretKey: secretKey, expiration: expiration}
}

// GenerateToken generates a new signed token for user
func (ju *JWTUtil) GenerateToken(user *model.User) (string, error) {
	if !user.Role.Valid() {
		return "", ErrInvalidRole
	}

	now := time.Now()
	claims := &JWTClaims{
		User: TokenUser{
			ID:    user.ID.String(),
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ju.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   user.ID.String(),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(ju.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken validates the JWT token
func (ju *JWTUtil) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(ju.secretKey), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if !claims.User.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("invalid user id in token: %w", err)
	}
	return claims, nil
}
