package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"excel_analytics/internal/session"
	"excel_analytics/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	AuthUserKey   = "authUser"
	AuthRoleKey   = "authRole"
	AuthClaimsKey = "authClaims"

	LegacyTokenHeader = "x-auth-token"
)

// ExtractToken reads the bearer token, falling back to the legacy header and
// then to a bare token in Authorization. Stray quotes left by clients that
// stored the token as a JSON string are removed.
func ExtractToken(c *gin.Context) string {
	auth := strings.TrimSpace(c.GetHeader("Authorization"))
	if scheme, token, ok := strings.Cut(auth, " "); ok && strings.EqualFold(scheme, "bearer") {
		if token = cleanToken(token); token != "" {
			return token
		}
	}
	if token := cleanToken(c.GetHeader(LegacyTokenHeader)); token != "" {
		return token
	}
	if !strings.Contains(auth, " ") {
		return cleanToken(auth)
	}
	return ""
}

func cleanToken(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}

// JWTAuthMiddleware creates a middleware for JWT authentication. Tokens whose
// ID is in revocations are rejected; revocations may be nil.
func JWTAuthMiddleware(jwtUtil *utils.JWTUtil, revocations session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ExtractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "No token, authorization denied"})
			return
		}

		claims, err := jwtUtil.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Token is not valid"})
			return
		}

		if revocations != nil {
			revoked, err := revocations.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				slog.Error("Failed to check token revocation", "error", err)
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"msg": "Unable to verify session"})
				return
			}
			if revoked {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "Token is not valid"})
				return
			}
		}

		// ValidateToken already checked the id parses
		userID, _ := claims.UserID()

		// Set user information in context
		c.Set(AuthUserKey, userID)
		c.Set(AuthRoleKey, claims.User.Role)
		c.Set(AuthClaimsKey, claims)

		c.Next()
	}
}
