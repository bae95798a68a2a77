package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"excel_analytics/internal/model"
	"excel_analytics/internal/repository"

	"github.com/google/uuid"
)

type AttendanceService interface {
	Record(ctx context.Context, req model.CreateAttendanceRequest) (*model.Attendance, error)
	List(ctx context.Context) ([]model.Attendance, error)
}

type attendanceService struct {
	repo repository.AttendanceRepository
}

func NewAttendanceService(repo repository.AttendanceRepository) AttendanceService {
	return &attendanceService{repo: repo}
}

func (s *attendanceService) Record(ctx context.Context, req model.CreateAttendanceRequest) (*model.Attendance, error) {
	name, at, date := strings.TrimSpace(req.Name), strings.TrimSpace(req.Time), strings.TrimSpace(req.Date)
	if name == "" || at == "" || date == "" {
		return nil, ErrAttendanceFieldsRequired
	}

	record := &model.Attendance{
		ID:        uuid.New(),
		Name:      name,
		Date:      date,
		Time:      at,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record attendance: %w", err)
	}
	return record, nil
}

func (s *attendanceService) List(ctx context.Context) ([]model.Attendance, error) {
	records, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return records, nil
}
