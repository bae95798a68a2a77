package handler

import (
	"errors"
	"net/http"

	"excel_analytics/internal/middleware"
	"excel_analytics/internal/model"
	"excel_analytics/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Helper to get authenticated user ID from context
func getAuthUserID(c *gin.Context) (uuid.UUID, error) {
	userIDVal, exists := c.Get(middleware.AuthUserKey)
	if !exists {
		return uuid.Nil, errors.New("user ID not found in context")
	}
	userID, ok := userIDVal.(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.New("invalid user ID type in context")
	}
	return userID, nil
}

// Helper to get authenticated user role from context
func getAuthUserRole(c *gin.Context) (model.Role, error) {
	roleVal, exists := c.Get(middleware.AuthRoleKey)
	if !exists {
		return "", errors.New("user role not found in context")
	}
	role, ok := roleVal.(model.Role)
	if !ok {
		return "", errors.New("invalid user role type in context")
	}
	return role, nil
}

func getAuthClaims(c *gin.Context) *utils.JWTClaims {
	claims, _ := c.Get(middleware.AuthClaimsKey)
	jc, _ := claims.(*utils.JWTClaims)
	return jc
}

// authUser reads both id and role, answering 401 when either is missing
func authUser(c *gin.Context) (uuid.UUID, model.Role, bool) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required: " + err.Error()})
		return uuid.Nil, "", false
	}
	role, err := getAuthUserRole(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User role not found"})
		return uuid.Nil, "", false
	}
	return userID, role, true
}

// chain drops nil handlers so optional middleware can be passed through
func chain(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}
