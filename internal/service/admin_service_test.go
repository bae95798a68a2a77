package service

import (
	"context"
	"testing"
	"time"

	"excel_analytics/internal/model"
	"excel_analytics/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAdminService_LoginsToday(t *testing.T) {
	users := &MockUserRepository{}
	svc := NewAdminService(users, newMemUploadRepository()).(*adminService)
	loc := time.FixedZone("UTC+5", 5*60*60)
	now := time.Date(2024, 5, 1, 15, 30, 0, 0, loc)
	svc.now = func() time.Time { return now }

	startOfDay := time.Date(2024, 5, 1, 0, 0, 0, 0, loc)
	users.On("FindLoginsBetween", mock.Anything, startOfDay, mock.MatchedBy(func(end time.Time) bool {
		return end.Before(startOfDay.AddDate(0, 0, 1)) && end.After(now)
	})).Return([]time.Time{
		time.Date(2024, 5, 1, 9, 5, 0, 0, loc),
		time.Date(2024, 5, 1, 9, 55, 0, 0, loc),
		// 10:00 UTC is 15:00 local
		time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}, nil)

	logins, err := svc.LoginsToday(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, logins[9])
	assert.Equal(t, 1, logins[15])
	total := 0
	for _, n := range logins {
		total += n
	}
	assert.Equal(t, 3, total)
}

func TestAdminService_DeleteUser(t *testing.T) {
	users := &MockUserRepository{}
	svc := NewAdminService(users, newMemUploadRepository())
	ctx := context.Background()
	admin, target, missing := uuid.New(), uuid.New(), uuid.New()

	users.On("Delete", ctx, target).Return(nil)
	users.On("Delete", ctx, missing).Return(repository.ErrNotFound)

	assert.ErrorIs(t, svc.DeleteUser(ctx, admin, admin), ErrCannotDeleteSelf)
	assert.NoError(t, svc.DeleteUser(ctx, admin, target))
	assert.ErrorIs(t, svc.DeleteUser(ctx, admin, missing), ErrUserNotFound)
}

func TestAdminService_UpdateUser(t *testing.T) {
	users := &MockUserRepository{}
	svc := NewAdminService(users, newMemUploadRepository())
	ctx := context.Background()
	user := &model.User{ID: uuid.New(), Name: "bob", Email: "bob@example.com", Role: model.RoleUser}

	users.On("FindByID", ctx, user.ID).Return(user, nil)
	users.On("Update", ctx, user).Return(nil)

	role := model.RoleAdmin
	updated, err := svc.UpdateUser(ctx, user.ID, model.AdminUpdateUserRequest{Role: &role})

	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, updated.Role)

	missing := uuid.New()
	users.On("FindByID", ctx, missing).Return(nil, nil)
	_, err = svc.UpdateUser(ctx, missing, model.AdminUpdateUserRequest{})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAdminService_UpdateUser_Rejected(t *testing.T) {
	users := &MockUserRepository{}
	svc := NewAdminService(users, newMemUploadRepository())
	ctx := context.Background()
	user := &model.User{ID: uuid.New(), Name: "bob", Email: "bob@example.com", Role: model.RoleUser}
	users.On("FindByID", ctx, user.ID).Return(user, nil)

	blank := " \t "
	_, err := svc.UpdateUser(ctx, user.ID, model.AdminUpdateUserRequest{Name: &blank})
	assert.ErrorIs(t, err, ErrNameRequired)

	role := model.Role("superuser")
	_, err = svc.UpdateUser(ctx, user.ID, model.AdminUpdateUserRequest{Role: &role})
	assert.ErrorIs(t, err, ErrInvalidRole)

	assert.Equal(t, "bob", user.Name)
	assert.Equal(t, model.RoleUser, user.Role)
	users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestAdminService_UpdateUser_Duplicate(t *testing.T) {
	users := &MockUserRepository{}
	svc := NewAdminService(users, newMemUploadRepository())
	ctx := context.Background()
	user := &model.User{ID: uuid.New(), Name: "bob", Email: "bob@example.com", Role: model.RoleUser}

	users.On("FindByID", ctx, user.ID).Return(user, nil)
	users.On("Update", ctx, user).Return(repository.ErrDuplicate)

	email := "alice@example.com"
	_, err := svc.UpdateUser(ctx, user.ID, model.AdminUpdateUserRequest{Email: &email})

	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}
