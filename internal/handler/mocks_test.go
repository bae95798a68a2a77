package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"excel_analytics/internal/chart"
	"excel_analytics/internal/middleware"
	"excel_analytics/internal/model"
	"excel_analytics/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
}

// withAuth stands in for the JWT middleware
func withAuth(userID uuid.UUID, role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.AuthUserKey, userID)
		c.Set(middleware.AuthRoleKey, role)
		c.Set(middleware.AuthClaimsKey, &utils.JWTClaims{})
		c.Next()
	}
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, path, field, name string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) session(args mock.Arguments) (*model.User, string, error) {
	u, _ := args.Get(0).(*model.User)
	return u, args.String(1), args.Error(2)
}

func (m *MockAuthService) Signup(ctx context.Context, req model.SignupRequest) (*model.User, string, error) {
	return m.session(m.Called(ctx, req))
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	return m.session(m.Called(ctx, email, password))
}

func (m *MockAuthService) GoogleLogin(ctx context.Context, req model.GoogleLoginRequest) (*model.User, string, error) {
	return m.session(m.Called(ctx, req))
}

func (m *MockAuthService) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockAuthService) ResetPassword(ctx context.Context, req model.ResetPasswordRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockAuthService) Logout(ctx context.Context, claims *utils.JWTClaims) error {
	return m.Called(ctx, claims).Error(0)
}

func (m *MockAuthService) Me(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockAuthService) UpdateProfile(ctx context.Context, callerID uuid.UUID, callerRole model.Role, targetID uuid.UUID, req model.UpdateProfileRequest) (*model.User, string, error) {
	return m.session(m.Called(ctx, callerID, callerRole, targetID, req))
}

func (m *MockAuthService) PurgeExpiredOTPs(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockUploadService struct {
	mock.Mock
}

func (m *MockUploadService) upload(args mock.Arguments) (*model.Upload, error) {
	u, _ := args.Get(0).(*model.Upload)
	return u, args.Error(1)
}

func (m *MockUploadService) Upload(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (*model.Upload, error) {
	return m.upload(m.Called(ctx, userID, file))
}

func (m *MockUploadService) GetUserUploads(ctx context.Context, userID uuid.UUID) ([]model.Upload, error) {
	args := m.Called(ctx, userID)
	uploads, _ := args.Get(0).([]model.Upload)
	return uploads, args.Error(1)
}

func (m *MockUploadService) CountUserUploads(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUploadService) GetLastUpload(ctx context.Context, userID uuid.UUID) (*model.Upload, error) {
	return m.upload(m.Called(ctx, userID))
}

func (m *MockUploadService) GetUploadByID(ctx context.Context, uploadID, userID uuid.UUID, userRole model.Role) (*model.Upload, error) {
	return m.upload(m.Called(ctx, uploadID, userID, userRole))
}

func (m *MockUploadService) DeleteUpload(ctx context.Context, uploadID, userID uuid.UUID, userRole model.Role) error {
	return m.Called(ctx, uploadID, userID, userRole).Error(0)
}

func (m *MockUploadService) BuildChart(ctx context.Context, uploadID, userID uuid.UUID, userRole model.Role, req model.ChartRequest) (*chart.Spec, error) {
	args := m.Called(ctx, uploadID, userID, userRole, req)
	spec, _ := args.Get(0).(*chart.Spec)
	return spec, args.Error(1)
}

func (m *MockUploadService) ExportCSV(ctx context.Context, uploadID, userID uuid.UUID, userRole model.Role) (*bytes.Buffer, string, error) {
	args := m.Called(ctx, uploadID, userID, userRole)
	buf, _ := args.Get(0).(*bytes.Buffer)
	return buf, args.String(1), args.Error(2)
}

func (m *MockUploadService) UploadProfilePicture(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (string, error) {
	args := m.Called(ctx, userID, file)
	return args.String(0), args.Error(1)
}

type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) ListUsers(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]model.User)
	return users, args.Error(1)
}

func (m *MockAdminService) UpdateUser(ctx context.Context, userID uuid.UUID, req model.AdminUpdateUserRequest) (*model.User, error) {
	args := m.Called(ctx, userID, req)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockAdminService) DeleteUser(ctx context.Context, callerID, userID uuid.UUID) error {
	return m.Called(ctx, callerID, userID).Error(0)
}

func (m *MockAdminService) LoginsToday(ctx context.Context) ([24]int, error) {
	args := m.Called(ctx)
	return args.Get(0).([24]int), args.Error(1)
}

func (m *MockAdminService) ListUploads(ctx context.Context, filters model.AdminUploadFilters) ([]model.Upload, error) {
	args := m.Called(ctx, filters)
	uploads, _ := args.Get(0).([]model.Upload)
	return uploads, args.Error(1)
}

func (m *MockAdminService) GetStatistics(ctx context.Context, filters model.AdminUploadFilters) (*model.UploadStats, error) {
	args := m.Called(ctx, filters)
	stats, _ := args.Get(0).(*model.UploadStats)
	return stats, args.Error(1)
}
