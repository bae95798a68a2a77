package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"excel_analytics/internal/model"
	"excel_analytics/internal/repository"

	"github.com/google/uuid"
)

// AdminService defines operations reserved for administrators
type AdminService interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, req model.AdminUpdateUserRequest) (*model.User, error)
	DeleteUser(ctx context.Context, callerID, userID uuid.UUID) error
	LoginsToday(ctx context.Context) ([24]int, error)
	ListUploads(ctx context.Context, filters model.AdminUploadFilters) ([]model.Upload, error)
	GetStatistics(ctx context.Context, filters model.AdminUploadFilters) (*model.UploadStats, error)
}

type adminService struct {
	userRepo   repository.UserRepository
	uploadRepo repository.UploadRepository
	now        func() time.Time
}

// NewAdminService creates a new AdminService
func NewAdminService(userRepo repository.UserRepository, uploadRepo repository.UploadRepository) AdminService {
	return &adminService{userRepo: userRepo, uploadRepo: uploadRepo, now: time.Now}
}

func (s *adminService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *adminService) UpdateUser(ctx context.Context, userID uuid.UUID, req model.AdminUpdateUserRequest) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user for update: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		user.Name = name
	}
	if req.Email != nil {
		user.Email = normalizeEmail(*req.Email)
	}
	if req.Role != nil {
		role, err := model.ParseRole(string(*req.Role))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRole, err)
		}
		user.Role = role
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrUserAlreadyExists
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user in repo: %w", err)
	}
	return user, nil
}

func (s *adminService) DeleteUser(ctx context.Context, callerID, userID uuid.UUID) error {
	if callerID == userID {
		return ErrCannotDeleteSelf
	}
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user in repo: %w", err)
	}
	return nil
}

// LoginsToday buckets today's last-login times by local hour
func (s *adminService) LoginsToday(ctx context.Context) ([24]int, error) {
	var buckets [24]int

	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1).Add(-time.Nanosecond)

	logins, err := s.userRepo.FindLoginsBetween(ctx, startOfDay, endOfDay)
	if err != nil {
		return buckets, fmt.Errorf("failed to get today's logins: %w", err)
	}
	for _, at := range logins {
		buckets[at.In(now.Location()).Hour()]++
	}
	return buckets, nil
}

func (s *adminService) ListUploads(ctx context.Context, filters model.AdminUploadFilters) ([]model.Upload, error) {
	uploads, err := s.uploadRepo.FindAll(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get all uploads for admin: %w", err)
	}
	return uploads, nil
}

func (s *adminService) GetStatistics(ctx context.Context, filters model.AdminUploadFilters) (*model.UploadStats, error) {
	stats, err := s.uploadRepo.GetStats(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get upload stats for admin: %w", err)
	}
	return stats, nil
}
