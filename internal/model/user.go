package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// HomePath returns the client route subtree a role lands on after login.
func (r Role) HomePath() string {
	if r == RoleAdmin {
		return "/admin"
	}
	return "/dashboard"
}

// ParseRole converts s into a Role, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// User represents an account in the system
type User struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"` // Do not expose password hash in JSON responses
	Role           Role       `json:"role"`
	ProfilePicture string     `json:"profilePicture"`
	IsActive       bool       `json:"isActive"`
	LastLogin      *time.Time `json:"lastLogin"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type SignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// GoogleLoginRequest carries the profile the browser obtained from Google.
// Code or AccessToken are verified server side when OAuth is configured.
type GoogleLoginRequest struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	AccessToken string `json:"access_token"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

// UpdateProfileRequest uses pointers to allow partial updates
type UpdateProfileRequest struct {
	Name           *string `json:"name,omitempty" binding:"omitempty,min=1"`
	Email          *string `json:"email,omitempty" binding:"omitempty,email"`
	Password       *string `json:"password,omitempty" binding:"omitempty,min=6"`
	ProfilePicture *string `json:"profilePicture,omitempty"`
}

type AdminUpdateUserRequest struct {
	Name  *string `json:"name,omitempty" binding:"omitempty,min=1"`
	Email *string `json:"email,omitempty" binding:"omitempty,email"`
	Role  *Role   `json:"role,omitempty" binding:"omitempty,role"`
}
