package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"excel_analytics/internal/model"
	"excel_analytics/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler handles admin-only requests
type AdminHandler struct {
	service service.AdminService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(s service.AdminService) *AdminHandler {
	return &AdminHandler{service: s}
}

// parseUploadFilters reads the admin query filters; end_date covers the whole day
func parseUploadFilters(c *gin.Context) (model.AdminUploadFilters, error) {
	var filters model.AdminUploadFilters
	if userIDStr := c.Query("user_id"); userIDStr != "" {
		uid, err := uuid.Parse(userIDStr)
		if err != nil {
			return filters, errors.New("Invalid user_id format")
		}
		filters.UserID = &uid
	}
	if typeParam := c.Query("file_type"); typeParam != "" {
		fileType := model.FileType(typeParam)
		if !fileType.Valid() {
			return filters, errors.New("Invalid file_type, use xlsx, xls or csv")
		}
		filters.FileType = &fileType
	}
	if startDateParam := c.Query("start_date"); startDateParam != "" {
		parsedDate, err := time.ParseInLocation("2006-01-02", startDateParam, time.Local)
		if err != nil {
			return filters, errors.New("Invalid date format for 'start_date', use YYYY-MM-DD")
		}
		filters.StartDate = &parsedDate
	}
	if endDateParam := c.Query("end_date"); endDateParam != "" {
		parsedDate, err := time.ParseInLocation("2006-01-02", endDateParam, time.Local)
		if err != nil {
			return filters, errors.New("Invalid date format for 'end_date', use YYYY-MM-DD")
		}
		// Adjust end date to include the whole day
		endOfDay := time.Date(parsedDate.Year(), parsedDate.Month(), parsedDate.Day(), 23, 59, 59, 999999999, parsedDate.Location())
		filters.EndDate = &endOfDay
	}
	return filters, nil
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		slog.Error("Error listing users", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *AdminHandler) UpdateUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var req model.AdminUpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": validationErrors(err)})
		return
	}

	user, err := h.service.UpdateUser(c.Request.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		case errors.Is(err, service.ErrUserAlreadyExists):
			c.JSON(http.StatusBadRequest, gin.H{"warning": "User with that email or username already exists"})
		case errors.Is(err, service.ErrNameRequired), errors.Is(err, service.ErrInvalidRole):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			slog.Error("Error updating user", "user_id", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		}
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	callerID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), callerID, userID); err != nil {
		switch {
		case errors.Is(err, service.ErrCannotDeleteSelf):
			c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot delete your own account"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		default:
			slog.Error("Error deleting user", "user_id", userID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func (h *AdminHandler) LoginsToday(c *gin.Context) {
	logins, err := h.service.LoginsToday(c.Request.Context())
	if err != nil {
		slog.Error("Error getting today's logins", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve login activity"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logins": logins})
}

func (h *AdminHandler) ListUploads(c *gin.Context) {
	filters, err := parseUploadFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	uploads, err := h.service.ListUploads(c.Request.Context(), filters)
	if err != nil {
		slog.Error("Error getting all uploads for admin", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve uploads"})
		return
	}
	c.JSON(http.StatusOK, uploads)
}

func (h *AdminHandler) GetStatistics(c *gin.Context) {
	filters, err := parseUploadFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stats, err := h.service.GetStatistics(c.Request.Context(), filters)
	if err != nil {
		slog.Error("Error getting statistics for admin", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve statistics"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// RegisterAdminRoutes registers admin routes behind authentication and the admin role
func (h *AdminHandler) RegisterAdminRoutes(rg *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	adminRoutes := rg.Group("/admin")
	adminRoutes.Use(authMW)  // Requires authentication
	adminRoutes.Use(adminMW) // Requires admin role
	{
		adminRoutes.GET("/users", h.ListUsers)
		adminRoutes.PUT("/users/:id", h.UpdateUser)
		adminRoutes.DELETE("/users/:id", h.DeleteUser)
		adminRoutes.GET("/user-logins/today", h.LoginsToday)
		adminRoutes.GET("/uploads", h.ListUploads)
		adminRoutes.GET("/stats", h.GetStatistics)
	}
}
