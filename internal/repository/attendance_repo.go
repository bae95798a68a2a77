package repository

import (
	"context"
	"fmt"

	"excel_analytics/internal/model"
)

type AttendanceRepository interface {
	Create(ctx context.Context, a *model.Attendance) error
	FindAll(ctx context.Context) ([]model.Attendance, error)
}

type attendanceRepository struct {
	db DBTX
}

func NewAttendanceRepository(db DBTX) AttendanceRepository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) Create(ctx context.Context, a *model.Attendance) error {
	sql := `INSERT INTO attendance (id, name, date, time, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.Exec(ctx, sql, a.ID, a.Name, a.Date, a.Time, a.CreatedAt); err != nil {
		return fmt.Errorf("failed to create attendance: %w", err)
	}
	return nil
}

func (r *attendanceRepository) FindAll(ctx context.Context) ([]model.Attendance, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, date, time, created_at FROM attendance ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	records := []model.Attendance{}
	for rows.Next() {
		var a model.Attendance
		if err := rows.Scan(&a.ID, &a.Name, &a.Date, &a.Time, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attendance row: %w", err)
		}
		records = append(records, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attendance rows: %w", err)
	}
	return records, nil
}
