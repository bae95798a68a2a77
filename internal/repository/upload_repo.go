package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"excel_analytics/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UploadRepository defines operations for parsed spreadsheet uploads
type UploadRepository interface {
	Create(ctx context.Context, upload *model.Upload) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Upload, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]model.Upload, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	FindLatestByUser(ctx context.Context, userID uuid.UUID) (*model.Upload, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindAll(ctx context.Context, filters model.AdminUploadFilters) ([]model.Upload, error)
	GetStats(ctx context.Context, filters model.AdminUploadFilters) (*model.UploadStats, error)
}

const uploadColumns = `id, user_id, file_name, file_type, file_size, row_count, data, uploaded_at`

type uploadRepository struct {
	db DBTX
}

// NewUploadRepository creates a new UploadRepository
func NewUploadRepository(db DBTX) UploadRepository {
	return &uploadRepository{db: db}
}

func scanUpload(row scanner) (*model.Upload, error) {
	u := &model.Upload{}
	var raw []byte
	if err := row.Scan(&u.ID, &u.UserID, &u.FileName, &u.FileType, &u.FileSize, &u.RowCount, &raw, &u.UploadedAt); err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &u.Data); err != nil {
			return nil, fmt.Errorf("failed to decode upload data: %w", err)
		}
	}
	return u, nil
}

func collectUploads(rows pgx.Rows, scan func(scanner) (*model.Upload, error)) ([]model.Upload, error) {
	defer rows.Close()

	uploads := []model.Upload{}
	for rows.Next() {
		u, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan upload row: %w", err)
		}
		uploads = append(uploads, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating upload rows: %w", err)
	}
	return uploads, nil
}

// Create inserts a new upload into the database
func (r *uploadRepository) Create(ctx context.Context, u *model.Upload) error {
	data, err := json.Marshal(u.Data)
	if err != nil {
		return fmt.Errorf("failed to encode upload data: %w", err)
	}
	sql := `INSERT INTO uploads (id, user_id, file_name, file_type, file_size, row_count, data, uploaded_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.Exec(ctx, sql, u.ID, u.UserID, u.FileName, u.FileType, u.FileSize, u.RowCount, data, u.UploadedAt); err != nil {
		return fmt.Errorf("failed to create upload: %w", err)
	}
	return nil
}

// FindByID retrieves an upload including its rows
func (r *uploadRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Upload, error) {
	u, err := scanUpload(r.db.QueryRow(ctx, `SELECT `+uploadColumns+` FROM uploads WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to find upload by ID: %w", err)
	}
	return u, nil
}

// FindByUser retrieves all uploads of a user, newest first
func (r *uploadRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]model.Upload, error) {
	rows, err := r.db.Query(ctx, `SELECT `+uploadColumns+` FROM uploads WHERE user_id = $1 ORDER BY uploaded_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query uploads by user: %w", err)
	}
	return collectUploads(rows, scanUpload)
}

// CountByUser counts the uploads owned by a user
func (r *uploadRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM uploads WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count uploads: %w", err)
	}
	return count, nil
}

// FindLatestByUser retrieves the most recent upload of a user
func (r *uploadRepository) FindLatestByUser(ctx context.Context, userID uuid.UUID) (*model.Upload, error) {
	sql := `SELECT ` + uploadColumns + ` FROM uploads WHERE user_id = $1 ORDER BY uploaded_at DESC LIMIT 1`
	u, err := scanUpload(r.db.QueryRow(ctx, sql, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find latest upload: %w", err)
	}
	return u, nil
}

// Delete removes an upload from the database
func (r *uploadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM uploads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// buildUploadFilter renders the admin filters as a WHERE clause with positional args
func buildUploadFilter(filters model.AdminUploadFilters) (string, []any) {
	args := []any{}
	argCount := 1
	var conditions []string

	if filters.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("up.user_id = $%d", argCount))
		args = append(args, *filters.UserID)
		argCount++
	}
	if filters.FileType != nil && *filters.FileType != "" {
		conditions = append(conditions, fmt.Sprintf("up.file_type = $%d", argCount))
		args = append(args, *filters.FileType)
		argCount++
	}
	if filters.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("up.uploaded_at >= $%d", argCount))
		args = append(args, *filters.StartDate)
		argCount++
	}
	if filters.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("up.uploaded_at <= $%d", argCount))
		args = append(args, *filters.EndDate)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// FindAll retrieves upload summaries (without rows) matching the admin filters
func (r *uploadRepository) FindAll(ctx context.Context, filters model.AdminUploadFilters) ([]model.Upload, error) {
	where, args := buildUploadFilter(filters)

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT up.id, up.user_id, up.file_name, up.file_type, up.file_size, up.row_count, up.uploaded_at FROM uploads up`)
	queryBuilder.WriteString(where)
	queryBuilder.WriteString(" ORDER BY up.uploaded_at DESC")

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query all uploads: %w", err)
	}
	return collectUploads(rows, func(row scanner) (*model.Upload, error) {
		u := &model.Upload{}
		err := row.Scan(&u.ID, &u.UserID, &u.FileName, &u.FileType, &u.FileSize, &u.RowCount, &u.UploadedAt)
		return u, err
	})
}

// GetStats calculates aggregated upload statistics for admins
func (r *uploadRepository) GetStats(ctx context.Context, filters model.AdminUploadFilters) (*model.UploadStats, error) {
	stats := &model.UploadStats{
		ByFileType: make(map[model.FileType]int64),
		ByUser:     make(map[uuid.UUID]model.UserUploadStat),
	}

	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&stats.TotalUsers); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	where, args := buildUploadFilter(filters)
	baseQuery := "FROM uploads up JOIN users u ON up.user_id = u.id" + where

	totalsQuery := `SELECT COUNT(up.id), COALESCE(SUM(up.row_count), 0), COALESCE(SUM(up.file_size), 0) ` + baseQuery
	err := r.db.QueryRow(ctx, totalsQuery, args...).Scan(&stats.TotalUploads, &stats.TotalRows, &stats.TotalBytes)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get upload totals: %w", err)
	}

	rows, err := r.db.Query(ctx, `SELECT up.file_type, COUNT(up.id) `+baseQuery+` GROUP BY up.file_type`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get uploads by file type: %w", err)
	}
	for rows.Next() {
		var fileType model.FileType
		var count int64
		if err := rows.Scan(&fileType, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan uploads by file type: %w", err)
		}
		stats.ByFileType[fileType] = count
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating uploads by file type: %w", err)
	}

	userQuery := `SELECT up.user_id, u.name, COUNT(up.id), COALESCE(SUM(up.row_count), 0), COALESCE(SUM(up.file_size), 0) ` +
		baseQuery + ` GROUP BY up.user_id, u.name`
	rows, err = r.db.Query(ctx, userQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats by user: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var us model.UserUploadStat
		if err := rows.Scan(&us.UserID, &us.Name, &us.UploadCount, &us.RowCount, &us.TotalBytes); err != nil {
			return nil, fmt.Errorf("failed to scan user stats: %w", err)
		}
		stats.ByUser[us.UserID] = us
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user stats: %w", err)
	}

	return stats, nil
}
