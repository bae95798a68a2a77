package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"excel_analytics/internal/chart"
	"excel_analytics/internal/model"
	"excel_analytics/internal/service"
	"excel_analytics/internal/spreadsheet"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UploadHandler handles spreadsheet upload requests
type UploadHandler struct {
	service service.UploadService
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(s service.UploadService) *UploadHandler {
	return &UploadHandler{service: s}
}

// writeUploadError maps service errors shared by the single-upload routes
func writeUploadError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, service.ErrUploadNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		slog.Error("Upload request failed", "action", action, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}

func uploadIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file ID"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *UploadHandler) Upload(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	upload, err := h.service.Upload(c.Request.Context(), userID, file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptySpreadsheet):
			c.JSON(http.StatusBadRequest, gin.H{"error": "The uploaded file contains no data"})
		case errors.Is(err, spreadsheet.ErrUnsupportedFileType),
			errors.Is(err, spreadsheet.ErrMalformedFile),
			errors.Is(err, service.ErrFileSizeExceeded):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			slog.Error("Error uploading file", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "File uploaded and parsed successfully", "data": upload})
}

func (h *UploadHandler) GetMyUploads(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	uploads, err := h.service.GetUserUploads(c.Request.Context(), userID)
	if err != nil {
		slog.Error("Error getting user uploads", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve files"})
		return
	}
	c.JSON(http.StatusOK, uploads)
}

func (h *UploadHandler) CountMyUploads(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	count, err := h.service.CountUserUploads(c.Request.Context(), userID)
	if err != nil {
		slog.Error("Error counting user uploads", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count files"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *UploadHandler) GetLastUpload(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	upload, err := h.service.GetLastUpload(c.Request.Context(), userID)
	if err != nil {
		slog.Error("Error getting last upload", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve last upload"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lastUpload": upload})
}

func (h *UploadHandler) GetUpload(c *gin.Context) {
	userID, role, ok := authUser(c)
	if !ok {
		return
	}
	uploadID, ok := uploadIDParam(c)
	if !ok {
		return
	}

	upload, err := h.service.GetUploadByID(c.Request.Context(), uploadID, userID, role)
	if err != nil {
		writeUploadError(c, err, "retrieve file")
		return
	}
	c.JSON(http.StatusOK, upload)
}

func (h *UploadHandler) DeleteUpload(c *gin.Context) {
	userID, role, ok := authUser(c)
	if !ok {
		return
	}
	uploadID, ok := uploadIDParam(c)
	if !ok {
		return
	}

	if err := h.service.DeleteUpload(c.Request.Context(), uploadID, userID, role); err != nil {
		writeUploadError(c, err, "delete file")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
}

func (h *UploadHandler) BuildChart(c *gin.Context) {
	userID, role, ok := authUser(c)
	if !ok {
		return
	}
	uploadID, ok := uploadIDParam(c)
	if !ok {
		return
	}

	var req model.ChartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	spec, err := h.service.BuildChart(c.Request.Context(), uploadID, userID, role, req)
	if err != nil {
		switch {
		case errors.Is(err, chart.ErrNoData), errors.Is(err, chart.ErrTooMuchData):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, chart.ErrUnknownKind),
			errors.Is(err, chart.ErrNoColumns),
			errors.Is(err, chart.ErrUnknownColumn),
			errors.Is(err, chart.ErrNotEnoughColumns):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			writeUploadError(c, err, "build chart")
		}
		return
	}
	c.JSON(http.StatusOK, spec)
}

func (h *UploadHandler) ExportCSV(c *gin.Context) {
	userID, role, ok := authUser(c)
	if !ok {
		return
	}
	uploadID, ok := uploadIDParam(c)
	if !ok {
		return
	}

	csvBuffer, fileName, err := h.service.ExportCSV(c.Request.Context(), uploadID, userID, role)
	if err != nil {
		writeUploadError(c, err, "export file")
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Data(http.StatusOK, "text/csv", csvBuffer.Bytes())
}

func (h *UploadHandler) UploadProfilePicture(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required: " + err.Error()})
		return
	}

	file, err := c.FormFile("profilePicture")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Profile picture file is required"})
		return
	}

	path, err := h.service.UploadProfilePicture(c.Request.Context(), userID, file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidFileFormat), errors.Is(err, service.ErrFileSizeExceeded):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			slog.Error("Error uploading profile picture", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload profile picture"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile picture uploaded successfully", "profilePicture": path})
}

// RegisterUploadRoutes registers upload routes; every route requires authentication
// and, when userMW is set, a user or admin role.
func (h *UploadHandler) RegisterUploadRoutes(rg *gin.RouterGroup, authMW, userMW gin.HandlerFunc) {
	uploadRoutes := rg.Group("/upload")
	uploadRoutes.Use(chain(authMW, userMW)...)
	{
		uploadRoutes.POST("/upload", h.Upload)
		uploadRoutes.GET("/getall", h.GetMyUploads)
		uploadRoutes.GET("/count", h.CountMyUploads)
		uploadRoutes.GET("/lastupload", h.GetLastUpload)
		uploadRoutes.POST("/profile-picture", h.UploadProfilePicture)
		uploadRoutes.DELETE("/delete/:id", h.DeleteUpload) // Service layer handles ownership for non-admins
		uploadRoutes.GET("/:id", h.GetUpload)
		uploadRoutes.POST("/:id/chart", h.BuildChart)
		uploadRoutes.GET("/:id/export", h.ExportCSV)
	}
}
