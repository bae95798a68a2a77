package model

import (
	"time"

	"github.com/google/uuid"
)

// FileType is the spreadsheet format an upload was parsed from
type FileType string

const (
	FileTypeXLSX FileType = "xlsx"
	FileTypeXLS  FileType = "xls"
	FileTypeCSV  FileType = "csv"
)

// Valid reports whether t is a supported spreadsheet format.
func (t FileType) Valid() bool {
	switch t {
	case FileTypeXLSX, FileTypeXLS, FileTypeCSV:
		return true
	}
	return false
}

// Upload is one parsed spreadsheet. Data[0] is the header row.
type Upload struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user"`
	FileName   string    `json:"fileName"`
	FileType   FileType  `json:"fileType"`
	FileSize   int64     `json:"fileSize"`
	RowCount   int       `json:"rowCount"`
	Data       [][]any   `json:"data,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Headers returns the header row as strings.
func (u *Upload) Headers() []string {
	if len(u.Data) == 0 {
		return nil
	}
	headers := make([]string, len(u.Data[0]))
	for i, h := range u.Data[0] {
		headers[i] = CellString(h)
	}
	return headers
}

// ChartRequest selects a chart kind and the columns feeding it
type ChartRequest struct {
	ChartType string   `json:"chartType" binding:"required"`
	Headers   []string `json:"headers" binding:"required,min=1"`
}

// AdminUploadFilters contains filter parameters for admin upload queries
type AdminUploadFilters struct {
	UserID    *uuid.UUID
	FileType  *FileType
	StartDate *time.Time
	EndDate   *time.Time
}

// UploadStats represents upload statistics for admins
type UploadStats struct {
	TotalUsers   int64                        `json:"totalUsers"`
	TotalUploads int64                        `json:"totalUploads"`
	TotalRows    int64                        `json:"totalRows"`
	TotalBytes   int64                        `json:"totalBytes"`
	ByFileType   map[FileType]int64           `json:"byFileType"`
	ByUser       map[uuid.UUID]UserUploadStat `json:"byUser"`
}

type UserUploadStat struct {
	UserID      uuid.UUID `json:"userId"`
	Name        string    `json:"name"`
	UploadCount int64     `json:"uploadCount"`
	RowCount    int64     `json:"rowCount"`
	TotalBytes  int64     `json:"totalBytes"`
}
