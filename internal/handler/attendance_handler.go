package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"excel_analytics/internal/model"
	"excel_analytics/internal/service"

	"github.com/gin-gonic/gin"
)

type AttendanceHandler struct {
	service service.AttendanceService
}

func NewAttendanceHandler(s service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: s}
}

func (h *AttendanceHandler) Record(c *gin.Context) {
	var req model.CreateAttendanceRequest
	// A malformed body is reported like a missing field
	_ = c.ShouldBindJSON(&req)

	if _, err := h.service.Record(c.Request.Context(), req); err != nil {
		if errors.Is(err, service.ErrAttendanceFieldsRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Name, time, and date are required"})
			return
		}
		slog.Error("Error recording attendance", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save attendance"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Attendance recorded successfully"})
}

func (h *AttendanceHandler) List(c *gin.Context) {
	records, err := h.service.List(c.Request.Context())
	if err != nil {
		slog.Error("Error listing attendance", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve attendance"})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *AttendanceHandler) RegisterAttendanceRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	att := rg.Group("/employee/att")
	att.Use(authMW)
	{
		att.POST("/set", h.Record)
		att.GET("/get", h.List)
	}
}
