package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"excel_analytics/internal/chart"
	"excel_analytics/internal/metrics"
	"excel_analytics/internal/model"
	"excel_analytics/internal/repository"
	"excel_analytics/internal/spreadsheet"

	"github.com/google/uuid"
)

const (
	DefaultMaxUploadSize  = 10 * 1024 * 1024 // 10MB
	MaxProfilePictureSize = 5 * 1024 * 1024  // 5MB

	profilePictureDir = "profile-pictures"
)

var allowedPictureExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// UploadService defines operations for parsed spreadsheets
type UploadService interface {
	Upload(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (*model.Upload, error)
	GetUserUploads(ctx context.Context, userID uuid.UUID) ([]model.Upload, error)
	CountUserUploads(ctx context.Context, userID uuid.UUID) (int64, error)
	GetLastUpload(ctx context.Context, userID uuid.UUID) (*model.Upload, error)
	GetUploadByID(ctx context.Context, uploadID, userID uuid.UUID, userRole model.Role) (*model.Upload, error)
	DeleteUpload(ctx context.Context, uploadID, userID uuid.UUID, userRole model.Role) error
	BuildChart(ctx context.Context, uploadID, userID uuid.UUID, userRole model.Role, req model.ChartRequest) (*chart.Spec, error)
	ExportCSV(ctx context.Context, uploadID, userID uuid.UUID, userRole model.Role) (*bytes.Buffer, string, error)
	UploadProfilePicture(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (string, error)
}

type uploadService struct {
	repo       repository.UploadRepository
	userRepo   repository.UserRepository
	uploadsDir string
	maxBytes   int64
	now        func() time.Time
}

// NewUploadService creates a new UploadService. A non-positive maxBytes selects DefaultMaxUploadSize.
func NewUploadService(repo repository.UploadRepository, userRepo repository.UserRepository, uploadsDir string, maxBytes int64) UploadService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadSize
	}
	return &uploadService{repo: repo, userRepo: userRepo, uploadsDir: uploadsDir, maxBytes: maxBytes, now: time.Now}
}

func (s *uploadService) Upload(ctx context.Context, userID uuid.UUID, fileHeader *multipart.FileHeader) (*model.Upload, error) {
	if fileHeader.Size > s.maxBytes {
		return nil, ErrFileSizeExceeded
	}
	fileName := filepath.Base(fileHeader.Filename)
	if _, err := spreadsheet.DetectType(fileName); err != nil {
		return nil, err
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	content, err := io.ReadAll(io.LimitReader(src, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if int64(len(content)) > s.maxBytes {
		return nil, ErrFileSizeExceeded
	}

	sheet, err := spreadsheet.Parse(fileName, content)
	if err != nil {
		return nil, err
	}
	if sheet.DataRowCount() == 0 {
		return nil, ErrEmptySpreadsheet
	}

	upload := &model.Upload{
		ID:         uuid.New(),
		UserID:     userID,
		FileName:   fileName,
		FileType:   sheet.Type,
		FileSize:   int64(len(content)),
		RowCount:   sheet.DataRowCount(),
		Data:       sheet.Rows,
		UploadedAt: s.now(),
	}
	if err := s.repo.Create(ctx, upload); err != nil {
		return nil, fmt.Errorf("failed to create upload in repo: %w", err)
	}

	metrics.ObserveUpload(string(upload.FileType), upload.RowCount)
	slog.Info("Stored upload", "upload_id", upload.ID, "user_id", userID, "file_type", upload.FileType, "rows", upload.RowCount)
	return upload, nil
}

func (s *uploadService) GetUserUploads(ctx context.Context, userID uuid.UUID) ([]model.Upload, error) {
	uploads, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user uploads from repo: %w", err)
	}
	return uploads, nil
}

func (s *uploadService) CountUserUploads(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count user uploads: %w", err)
	}
	return count, nil
}

// GetLastUpload returns nil without error when the user has no uploads
func (s *uploadService) GetLastUpload(ctx context.Context, userID uuid.UUID) (*model.Upload, error) {
	upload, err := s.repo.FindLatestByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get last upload: %w", err)
	}
	return upload, nil
}

func (s *uploadService) GetUploadByID(ctx context.Context, uploadID, userID uuid.UUID, userRole model.Role) (*model.Upload, error) {
	upload, err := s.repo.FindByID(ctx, uploadID)
	if err != nil {
		return nil, fmt.Errorf("failed to find upload by ID: %w", err)
	}
	if upload == nil {
		return nil, ErrUploadNotFound
	}

	if userRole != model.RoleAdmin && upload.UserID != userID {
		return nil, ErrForbidden
	}
	return upload, nil
}

func (s *uploadService) DeleteUpload(ctx context.Context, uploadID, userID uuid.UUID, userRole model.Role) error {
	if _, err := s.GetUploadByID(ctx, uploadID, userID, userRole); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, uploadID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUploadNotFound
		}
		return fmt.Errorf("failed to delete upload in repo: %w", err)
	}
	return nil
}

func (s *uploadService) BuildChart(ctx context.Context, uploadID, userID uuid.UUID, userRole model.Role, req model.ChartRequest) (*chart.Spec, error) {
	kind, err := chart.ParseKind(req.ChartType)
	if err != nil {
		return nil, err
	}
	upload, err := s.GetUploadByID(ctx, uploadID, userID, userRole)
	if err != nil {
		return nil, err
	}

	spec, err := chart.Build(upload.Data, kind, req.Headers)
	if err != nil {
		return nil, err
	}
	metrics.ObserveChart(string(kind))
	return spec, nil
}

// ExportCSV re-serializes the stored rows and returns the attachment name
func (s *uploadService) ExportCSV(ctx context.Context, uploadID, userID uuid.UUID, userRole model.Role) (*bytes.Buffer, string, error) {
	upload, err := s.GetUploadByID(ctx, uploadID, userID, userRole)
	if err != nil {
		return nil, "", err
	}

	buffer := &bytes.Buffer{}
	writer := csv.NewWriter(buffer)
	for _, row := range upload.Data {
		record := make([]string, len(row))
		for i, cell := range row {
			record[i] = model.CellString(cell)
		}
		if err := writer.Write(record); err != nil {
			return nil, "", fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", fmt.Errorf("error flushing CSV writer: %w", err)
	}

	fileName := strings.TrimSuffix(upload.FileName, filepath.Ext(upload.FileName)) + ".csv"
	return buffer, fileName, nil
}

// UploadProfilePicture saves the image under the uploads directory and
// returns the public path stored on the user.
func (s *uploadService) UploadProfilePicture(ctx context.Context, userID uuid.UUID, fileHeader *multipart.FileHeader) (string, error) {
	// Validate file
	if fileHeader.Size > MaxProfilePictureSize {
		return "", ErrFileSizeExceeded
	}
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedPictureExts[ext] {
		return "", ErrInvalidFileFormat
	}

	pictureDir := filepath.Join(s.uploadsDir, profilePictureDir)
	if err := os.MkdirAll(pictureDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	fileName := userID.String() + "-" + strconv.FormatInt(s.now().UnixNano(), 10) + ext
	filePath := filepath.Join(pictureDir, fileName)

	// Save the file
	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file on server: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(filePath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	publicPath := "/uploads/" + profilePictureDir + "/" + fileName
	if err := s.userRepo.UpdateProfilePicture(ctx, userID, publicPath); err != nil {
		os.Remove(filePath) // Attempt to clean up
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to update user with profile picture: %w", err)
	}
	return publicPath, nil
}
