package service

import "errors"

var (
	ErrUserAlreadyExists  = errors.New("user with that email or username already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden: user does not have permission for this action")
	ErrCannotDeleteSelf   = errors.New("admins cannot delete their own account")
	ErrNameRequired       = errors.New("name cannot be blank")
	ErrInvalidRole        = errors.New("role must be one of user, admin")

	ErrGoogleEmailRequired = errors.New("google email is required")
	ErrGoogleVerification  = errors.New("google account could not be verified")

	ErrOTPInvalid     = errors.New("invalid OTP")
	ErrOTPExpired     = errors.New("OTP has expired")
	ErrEmailDelivery  = errors.New("failed to send email")
	ErrTokenNotActive = errors.New("token has no id or expiry")

	ErrUploadNotFound    = errors.New("upload not found")
	ErrEmptySpreadsheet  = errors.New("spreadsheet contains no data rows")
	ErrFileSizeExceeded  = errors.New("file size exceeds limit")
	ErrInvalidFileFormat = errors.New("invalid file format. only .jpg, .jpeg, .png, .gif, .webp are allowed")

	ErrAttendanceFieldsRequired = errors.New("name, time, and date are required")
)
