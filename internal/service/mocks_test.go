package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"sort"
	"sync"
	"testing"
	"time"

	"excel_analytics/internal/model"
	"excel_analytics/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) user(args mock.Arguments) (*model.User, error) {
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.user(m.Called(ctx, email))
}

func (m *MockUserRepository) FindByName(ctx context.Context, name string) (*model.User, error) {
	return m.user(m.Called(ctx, name))
}

func (m *MockUserRepository) FindByEmailOrName(ctx context.Context, email, name string) (*model.User, error) {
	return m.user(m.Called(ctx, email, name))
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return m.user(m.Called(ctx, id))
}

func (m *MockUserRepository) FindAll(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]model.User)
	return users, args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockUserRepository) UpdateProfilePicture(ctx context.Context, id uuid.UUID, path string) error {
	return m.Called(ctx, id, path).Error(0)
}

func (m *MockUserRepository) SetRoleByEmail(ctx context.Context, email string, role model.Role) error {
	return m.Called(ctx, email, role).Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserRepository) FindLoginsBetween(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	args := m.Called(ctx, from, to)
	logins, _ := args.Get(0).([]time.Time)
	return logins, args.Error(1)
}

type MockOTPRepository struct {
	mock.Mock
}

func (m *MockOTPRepository) Create(ctx context.Context, otp *model.OTP) error {
	return m.Called(ctx, otp).Error(0)
}

func (m *MockOTPRepository) FindLatest(ctx context.Context, email, code string) (*model.OTP, error) {
	args := m.Called(ctx, email, code)
	otp, _ := args.Get(0).(*model.OTP)
	return otp, args.Error(1)
}

func (m *MockOTPRepository) DeleteByEmail(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockOTPRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockAttendanceRepository struct {
	mock.Mock
}

func (m *MockAttendanceRepository) Create(ctx context.Context, a *model.Attendance) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAttendanceRepository) FindAll(ctx context.Context) ([]model.Attendance, error) {
	args := m.Called(ctx)
	records, _ := args.Get(0).([]model.Attendance)
	return records, args.Error(1)
}

// memUploadRepository keeps uploads in memory so flows like upload then delete can be observed.
type memUploadRepository struct {
	mu      sync.Mutex
	uploads map[uuid.UUID]model.Upload
}

func newMemUploadRepository() *memUploadRepository {
	return &memUploadRepository{uploads: make(map[uuid.UUID]model.Upload)}
}

func (r *memUploadRepository) Create(_ context.Context, u *model.Upload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uploads[u.ID] = *u
	return nil
}

func (r *memUploadRepository) FindByID(_ context.Context, id uuid.UUID) (*model.Upload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.uploads[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *memUploadRepository) FindByUser(_ context.Context, userID uuid.UUID) ([]model.Upload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	uploads := []model.Upload{}
	for _, u := range r.uploads {
		if u.UserID == userID {
			uploads = append(uploads, u)
		}
	}
	sort.Slice(uploads, func(i, j int) bool { return uploads[i].UploadedAt.After(uploads[j].UploadedAt) })
	return uploads, nil
}

func (r *memUploadRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	uploads, _ := r.FindByUser(ctx, userID)
	return int64(len(uploads)), nil
}

func (r *memUploadRepository) FindLatestByUser(ctx context.Context, userID uuid.UUID) (*model.Upload, error) {
	uploads, _ := r.FindByUser(ctx, userID)
	if len(uploads) == 0 {
		return nil, nil
	}
	return &uploads[0], nil
}

func (r *memUploadRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.uploads[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.uploads, id)
	return nil
}

func (r *memUploadRepository) FindAll(_ context.Context, _ model.AdminUploadFilters) ([]model.Upload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	uploads := []model.Upload{}
	for _, u := range r.uploads {
		u.Data = nil
		uploads = append(uploads, u)
	}
	return uploads, nil
}

func (r *memUploadRepository) GetStats(_ context.Context, _ model.AdminUploadFilters) (*model.UploadStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &model.UploadStats{ByFileType: map[model.FileType]int64{}, ByUser: map[uuid.UUID]model.UserUploadStat{}}
	for _, u := range r.uploads {
		stats.TotalUploads++
		stats.TotalRows += int64(u.RowCount)
		stats.TotalBytes += u.FileSize
		stats.ByFileType[u.FileType]++
	}
	return stats, nil
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: htmlBody})
	return nil
}

// fileHeader builds a multipart file header the way net/http would after parsing a form.
func fileHeader(t *testing.T, field, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File[field][0]
}
