package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"excel_analytics/internal/model"
	"excel_analytics/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(svc *MockAuthService, authMW gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	NewAuthHandler(svc).RegisterAuthRoutes(r.Group(""), authMW, nil)
	return r
}

func decodeBody(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestAuthHandler_Signup_ExistingUser(t *testing.T) {
	svc := &MockAuthService{}
	req := model.SignupRequest{Name: "Alice", Email: "alice@example.com", Password: "secret1"}
	svc.On("Signup", mock.Anything, req).Return(nil, "", service.ErrUserAlreadyExists)

	w := serve(newAuthRouter(svc, nil), jsonRequest(http.MethodPost, "/auth/signup",
		`{"name":"Alice","email":"alice@example.com","password":"secret1"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w.Body.Bytes())
	assert.Equal(t, "User with that email or username already exists", body["warning"])
	assert.NotContains(t, body, "token")
}

func TestAuthHandler_Signup_ValidationErrors(t *testing.T) {
	svc := &MockAuthService{}

	w := serve(newAuthRouter(svc, nil), jsonRequest(http.MethodPost, "/auth/signup",
		`{"name":"Alice","email":"not-an-email","password":"123"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w.Body.Bytes())
	errs, ok := body["errors"].([]any)
	require.True(t, ok)
	assert.Len(t, errs, 2)
	svc.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything)
}

func TestAuthHandler_Signup(t *testing.T) {
	svc := &MockAuthService{}
	user := &model.User{ID: uuid.New(), Name: "Alice", Email: "alice@example.com", Role: model.RoleUser}
	svc.On("Signup", mock.Anything, mock.Anything).Return(user, "jwt-token", nil)

	w := serve(newAuthRouter(svc, nil), jsonRequest(http.MethodPost, "/auth/signup",
		`{"name":"Alice","email":"alice@example.com","password":"secret1"}`))

	assert.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w.Body.Bytes())
	assert.Equal(t, "jwt-token", body["token"])
	assert.Equal(t, "/dashboard", body["redirect"])
	assert.NotContains(t, w.Body.String(), "password")
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	svc := &MockAuthService{}
	svc.On("Login", mock.Anything, "alice@example.com", "wrong").Return(nil, "", service.ErrInvalidCredentials)

	w := serve(newAuthRouter(svc, nil), jsonRequest(http.MethodPost, "/auth/login",
		`{"email":"alice@example.com","password":"wrong"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid Credentials", decodeBody(t, w.Body.Bytes())["msg"])
}

func TestAuthHandler_Login_AdminRedirect(t *testing.T) {
	svc := &MockAuthService{}
	admin := &model.User{ID: uuid.New(), Name: "Boss", Email: "boss@example.com", Role: model.RoleAdmin}
	svc.On("Login", mock.Anything, "boss@example.com", "secret1").Return(admin, "jwt-token", nil)

	w := serve(newAuthRouter(svc, nil), jsonRequest(http.MethodPost, "/auth/login",
		`{"email":"boss@example.com","password":"secret1"}`))

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w.Body.Bytes())
	assert.Equal(t, "/admin", body["redirect"])
	assert.Equal(t, "jwt-token", body["token"])
}

func TestAuthHandler_GoogleLogin_Rejected(t *testing.T) {
	svc := &MockAuthService{}
	svc.On("GoogleLogin", mock.Anything, mock.Anything).Return(nil, "", service.ErrGoogleVerification)

	w := serve(newAuthRouter(svc, nil), jsonRequest(http.MethodPost, "/auth/google-login", `{"code":"bad"}`))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_ForgotPassword(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantOK     bool
		wantMsg    string
	}{
		{"sent", nil, http.StatusOK, true, "OTP sent to your email."},
		{"unknown email", service.ErrUserNotFound, http.StatusNotFound, false, "User not found."},
		{"mail failure", errors.Join(service.ErrEmailDelivery, errors.New("smtp down")), http.StatusInternalServerError, false, "Failed to send email."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockAuthService{}
			svc.On("ForgotPassword", mock.Anything, "alice@example.com").Return(tt.err)

			w := serve(newAuthRouter(svc, nil), jsonRequest(http.MethodPost, "/auth/forgot-password", `{"email":"alice@example.com"}`))

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeBody(t, w.Body.Bytes())
			assert.Equal(t, tt.wantOK, body["success"])
			assert.Equal(t, tt.wantMsg, body["message"])
		})
	}
}

func TestAuthHandler_ResetPassword(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"reset", nil, http.StatusOK, "Password has been reset successfully."},
		{"expired", service.ErrOTPExpired, http.StatusBadRequest, "OTP has expired."},
		{"invalid", service.ErrOTPInvalid, http.StatusBadRequest, "Invalid OTP or email."},
		{"unknown user", service.ErrUserNotFound, http.StatusNotFound, "User not found."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockAuthService{}
			svc.On("ResetPassword", mock.Anything, model.ResetPasswordRequest{Email: "alice@example.com", OTP: "123456", NewPassword: "newpass1"}).Return(tt.err)

			w := serve(newAuthRouter(svc, nil), jsonRequest(http.MethodPost, "/auth/reset-password",
				`{"email":"alice@example.com","otp":"123456","newPassword":"newpass1"}`))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantMsg, decodeBody(t, w.Body.Bytes())["message"])
		})
	}
}

func TestAuthHandler_ResetPassword_BadOTPFormat(t *testing.T) {
	svc := &MockAuthService{}

	w := serve(newAuthRouter(svc, nil), jsonRequest(http.MethodPost, "/auth/reset-password",
		`{"email":"alice@example.com","otp":"12ab56","newPassword":"newpass1"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, decodeBody(t, w.Body.Bytes())["success"])
	svc.AssertNotCalled(t, "ResetPassword", mock.Anything, mock.Anything)
}

func TestAuthHandler_Logout(t *testing.T) {
	svc := &MockAuthService{}
	svc.On("Logout", mock.Anything, mock.Anything).Return(nil)

	w := serve(newAuthRouter(svc, withAuth(uuid.New(), model.RoleUser)), jsonRequest(http.MethodPost, "/auth/logout", ""))

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestAuthHandler_Me(t *testing.T) {
	svc := &MockAuthService{}
	userID := uuid.New()
	svc.On("Me", mock.Anything, userID).Return(&model.User{ID: userID, Name: "Alice", Role: model.RoleUser}, nil)

	w := serve(newAuthRouter(svc, withAuth(userID, model.RoleUser)), jsonRequest(http.MethodGet, "/auth/me", ""))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String(), decodeBody(t, w.Body.Bytes())["id"])
}

func TestAuthHandler_UpdateProfile_Forbidden(t *testing.T) {
	svc := &MockAuthService{}
	callerID, targetID := uuid.New(), uuid.New()
	svc.On("UpdateProfile", mock.Anything, callerID, model.RoleUser, targetID, mock.Anything).Return(nil, "", service.ErrForbidden)

	w := serve(newAuthRouter(svc, withAuth(callerID, model.RoleUser)),
		jsonRequest(http.MethodPut, "/auth/profile/"+targetID.String(), `{"name":"Mallory"}`))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthHandler_UpdateProfile_AdminEditsOther(t *testing.T) {
	svc := &MockAuthService{}
	adminID, targetID := uuid.New(), uuid.New()
	svc.On("UpdateProfile", mock.Anything, adminID, model.RoleAdmin, targetID, mock.Anything).
		Return(&model.User{ID: targetID, Name: "Bob", Role: model.RoleUser}, "", nil)

	w := serve(newAuthRouter(svc, withAuth(adminID, model.RoleAdmin)),
		jsonRequest(http.MethodPut, "/auth/profile/"+targetID.String(), `{"name":"Bob"}`))

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w.Body.Bytes())
	assert.NotContains(t, body, "token")
	assert.Equal(t, "Bob", body["user"].(map[string]any)["name"])
}

func TestAuthHandler_UpdateProfile_Self(t *testing.T) {
	svc := &MockAuthService{}
	userID := uuid.New()
	svc.On("UpdateProfile", mock.Anything, userID, model.RoleUser, userID, mock.Anything).
		Return(&model.User{ID: userID, Name: "Alice", Role: model.RoleUser}, "fresh-token", nil)

	w := serve(newAuthRouter(svc, withAuth(userID, model.RoleUser)),
		jsonRequest(http.MethodPut, "/auth/profile/"+userID.String(), `{"name":"Alice"}`))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fresh-token", decodeBody(t, w.Body.Bytes())["token"])
}

func TestAuthHandler_UpdateProfile_BlankName(t *testing.T) {
	userID := uuid.New()

	t.Run("empty rejected by binding", func(t *testing.T) {
		svc := &MockAuthService{}
		w := serve(newAuthRouter(svc, withAuth(userID, model.RoleUser)),
			jsonRequest(http.MethodPut, "/auth/profile/"+userID.String(), `{"name":""}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("whitespace rejected by service", func(t *testing.T) {
		svc := &MockAuthService{}
		svc.On("UpdateProfile", mock.Anything, userID, model.RoleUser, userID, mock.Anything).Return(nil, "", service.ErrNameRequired)
		w := serve(newAuthRouter(svc, withAuth(userID, model.RoleUser)),
			jsonRequest(http.MethodPut, "/auth/profile/"+userID.String(), `{"name":"   "}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Name cannot be blank", decodeBody(t, w.Body.Bytes())["msg"])
	})
}
