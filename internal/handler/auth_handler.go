package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"excel_analytics/internal/model"
	"excel_analytics/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	service service.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(s service.AuthService) *AuthHandler {
	return &AuthHandler{service: s}
}

func sessionResponse(msg string, user *model.User, token string) gin.H {
	return gin.H{
		"msg":      msg,
		"token":    token,
		"user":     user,
		"redirect": user.Role.HomePath(),
	}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req model.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": validationErrors(err)})
		return
	}

	user, token, err := h.service.Signup(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserAlreadyExists):
			c.JSON(http.StatusBadRequest, gin.H{"warning": "User with that email or username already exists"})
			return
		case errors.Is(err, service.ErrNameRequired):
			c.JSON(http.StatusBadRequest, gin.H{"msg": "Name cannot be blank"})
			return
		}
		slog.Error("Error during signup", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "Server error"})
		return
	}

	c.JSON(http.StatusCreated, sessionResponse("User registered successfully", user, token))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": validationErrors(err)})
		return
	}

	user, token, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "Invalid Credentials"})
			return
		}
		slog.Error("Error during login", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "Server error"})
		return
	}

	c.JSON(http.StatusOK, sessionResponse("Login successful", user, token))
}

func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req model.GoogleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": validationErrors(err)})
		return
	}

	user, token, err := h.service.GoogleLogin(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGoogleEmailRequired):
			c.JSON(http.StatusBadRequest, gin.H{"msg": "Email is required"})
		case errors.Is(err, service.ErrGoogleVerification):
			slog.Warn("Google login rejected", "error", err)
			c.JSON(http.StatusUnauthorized, gin.H{"msg": "Google authentication failed"})
		default:
			slog.Error("Error during google login", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "Server error"})
		}
		return
	}

	c.JSON(http.StatusOK, sessionResponse("Google login successful", user, token))
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "A valid email is required."})
		return
	}

	if err := h.service.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found."})
		case errors.Is(err, service.ErrEmailDelivery):
			slog.Error("Failed to send OTP email", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to send email."})
		default:
			slog.Error("Error during forgot password", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error."})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "OTP sent to your email."})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Email, OTP and a new password of at least 6 characters are required.", "errors": validationErrors(err)})
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), req); err != nil {
		switch {
		case errors.Is(err, service.ErrOTPInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid OTP or email."})
		case errors.Is(err, service.ErrOTPExpired):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "OTP has expired."})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found."})
		default:
			slog.Error("Error during password reset", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server error."})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password has been reset successfully."})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), getAuthClaims(c)); err != nil {
		if errors.Is(err, service.ErrTokenNotActive) {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "Token cannot be revoked"})
			return
		}
		slog.Error("Error during logout", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Logged out successfully"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"msg": err.Error()})
		return
	}

	user, err := h.service.Me(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"msg": "User not found"})
			return
		}
		slog.Error("Error loading current user", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "Server error"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, role, ok := authUser(c)
	if !ok {
		return
	}

	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "Invalid user ID"})
		return
	}

	var req model.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": validationErrors(err)})
		return
	}

	user, token, err := h.service.UpdateProfile(c.Request.Context(), userID, role, targetID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"msg": "Not authorized to update this profile"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"msg": "User not found"})
		case errors.Is(err, service.ErrUserAlreadyExists):
			c.JSON(http.StatusBadRequest, gin.H{"warning": "User with that email or username already exists"})
		default:
			slog.Error("Error updating profile", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"msg": "Server error"})
		}
		return
	}

	resp := gin.H{"msg": "Profile updated successfully", "user": user}
	if token != "" {
		resp["token"] = token
	}
	c.JSON(http.StatusOK, resp)
}

// RegisterAuthRoutes registers auth routes. rateMW, when set, guards the
// credential endpoints.
func (h *AuthHandler) RegisterAuthRoutes(rg *gin.RouterGroup, authMW, rateMW gin.HandlerFunc) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/signup", chain(rateMW, h.Signup)...)
		authGroup.POST("/login", chain(rateMW, h.Login)...)
		authGroup.POST("/google-login", chain(rateMW, h.GoogleLogin)...)
		authGroup.POST("/forgot-password", chain(rateMW, h.ForgotPassword)...)
		authGroup.POST("/reset-password", chain(rateMW, h.ResetPassword)...)

		authGroup.POST("/logout", chain(authMW, h.Logout)...)
		authGroup.GET("/me", chain(authMW, h.Me)...)
		authGroup.PUT("/profile/:id", chain(authMW, h.UpdateProfile)...)
	}
}
