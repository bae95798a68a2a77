package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"excel_analytics/internal/mailer"
	"excel_analytics/internal/metrics"
	"excel_analytics/internal/model"
	"excel_analytics/internal/repository"
	"excel_analytics/internal/session"
	"excel_analytics/internal/utils"

	"github.com/google/uuid"
)

// AuthService provides authentication related services
type AuthService interface {
	Signup(ctx context.Context, req model.SignupRequest) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	GoogleLogin(ctx context.Context, req model.GoogleLoginRequest) (*model.User, string, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req model.ResetPasswordRequest) error
	Logout(ctx context.Context, claims *utils.JWTClaims) error
	Me(ctx context.Context, userID uuid.UUID) (*model.User, error)
	UpdateProfile(ctx context.Context, callerID uuid.UUID, callerRole model.Role, targetID uuid.UUID, req model.UpdateProfileRequest) (*model.User, string, error)
	PurgeExpiredOTPs(ctx context.Context) (int64, error)
}

// AuthOptions carries the tunables of the auth service
type AuthOptions struct {
	OTPTTL            time.Duration
	InitialAdminEmail string
	// Google is nil when OAuth credentials are not configured; the
	// client-supplied profile is then trusted as-is unless
	// RequireGoogleVerification is set.
	Google                    GoogleVerifier
	RequireGoogleVerification bool
}

type authService struct {
	userRepo repository.UserRepository
	otpRepo  repository.OTPRepository
	jwtUtil  *utils.JWTUtil
	sessions session.Store
	mailer   mailer.Mailer
	opts     AuthOptions
	now      func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo repository.UserRepository,
	otpRepo repository.OTPRepository,
	jwtUtil *utils.JWTUtil,
	sessions session.Store,
	m mailer.Mailer,
	opts AuthOptions,
) AuthService {
	return &authService{
		userRepo: userRepo,
		otpRepo:  otpRepo,
		jwtUtil:  jwtUtil,
		sessions: sessions,
		mailer:   m,
		opts:     opts,
		now:      time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) initialRole(email string) model.Role {
	if s.opts.InitialAdminEmail != "" && email == normalizeEmail(s.opts.InitialAdminEmail) {
		slog.Info("User is being registered as ADMIN via INITIAL_ADMIN_EMAIL", "email", email)
		return model.RoleAdmin
	}
	return model.RoleUser
}

func (s *authService) createUser(ctx context.Context, name, email, password string) (*model.User, error) {
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &model.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         s.initialRole(email),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user in repository: %w", err)
	}
	return user, nil
}

// issue records the login and signs a token for user
func (s *authService) issue(ctx context.Context, user *model.User) (string, error) {
	at := s.now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, at); err != nil {
		return "", fmt.Errorf("failed to record login: %w", err)
	}
	user.LastLogin = &at

	token, err := s.jwtUtil.GenerateToken(user)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

// Signup creates a new user account
func (s *authService) Signup(ctx context.Context, req model.SignupRequest) (*model.User, string, error) {
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, "", ErrNameRequired
	}

	existingUser, err := s.userRepo.FindByEmailOrName(ctx, email, name)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, "", ErrUserAlreadyExists
	}

	user, err := s.createUser(ctx, name, email, req.Password)
	if err != nil {
		return nil, "", err
	}

	token, err := s.issue(ctx, user)
	if err != nil {
		slog.Error("User created, but failed to issue token", "email", user.Email, "user_id", user.ID, "error", err)
		return user, "", fmt.Errorf("user created, but %w", err)
	}
	metrics.ObserveLogin("signup", true)
	return user, token, nil
}

// Login authenticates a user and returns a JWT token
func (s *authService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, "", fmt.Errorf("error finding user by email: %w", err)
	}
	if user == nil || !utils.CheckPasswordHash(password, user.PasswordHash) {
		metrics.ObserveLogin("password", false)
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issue(ctx, user)
	if err != nil {
		return nil, "", err
	}
	metrics.ObserveLogin("password", true)
	return user, token, nil
}

// GoogleLogin signs in the owner of a Google account, creating the user on first sight
func (s *authService) GoogleLogin(ctx context.Context, req model.GoogleLoginRequest) (*model.User, string, error) {
	email, name := normalizeEmail(req.Email), strings.TrimSpace(req.Name)

	if s.opts.Google == nil && s.opts.RequireGoogleVerification {
		metrics.ObserveLogin("google", false)
		return nil, "", fmt.Errorf("%w: google oauth is not configured", ErrGoogleVerification)
	}
	if s.opts.Google != nil {
		identity, err := s.opts.Google.Verify(ctx, req.Code, req.AccessToken)
		if err != nil {
			metrics.ObserveLogin("google", false)
			return nil, "", err
		}
		email = identity.Email
		if identity.Name != "" {
			name = identity.Name
		}
	}
	if email == "" {
		return nil, "", ErrGoogleEmailRequired
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("error finding user by email: %w", err)
	}
	if user == nil {
		name, err = s.availableName(ctx, name, email)
		if err != nil {
			return nil, "", err
		}
		// The account can only be reached through Google until a reset sets a password.
		user, err = s.createUser(ctx, name, email, uuid.NewString())
		if err != nil {
			return nil, "", err
		}
		slog.Info("Created user from Google login", "email", email, "user_id", user.ID)
	}

	token, err := s.issue(ctx, user)
	if err != nil {
		return nil, "", err
	}
	metrics.ObserveLogin("google", true)
	return user, token, nil
}

// availableName picks a unique display name, falling back to the email's local part
func (s *authService) availableName(ctx context.Context, name, email string) (string, error) {
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	existing, err := s.userRepo.FindByName(ctx, name)
	if err != nil {
		return "", fmt.Errorf("error finding user by name: %w", err)
	}
	if existing == nil {
		return name, nil
	}
	return name + "-" + uuid.NewString()[:6], nil
}

// ForgotPassword stores a fresh OTP for email and mails it to the user
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("error finding user by email: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	code, err := utils.GenerateOTP()
	if err != nil {
		return err
	}
	otp := &model.OTP{Email: email, Code: code, CreatedAt: s.now()}
	if err := s.otpRepo.Create(ctx, otp); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}

	body := fmt.Sprintf(`<p>Hello %s,</p><p>Your OTP for password reset is <b>%s</b>.</p><p>It will expire in %d minutes.</p>`,
		user.Name, code, int(s.opts.OTPTTL.Minutes()))
	if err := s.mailer.Send(ctx, email, "Password Reset OTP", body); err != nil {
		metrics.ObserveOTPEmail(false)
		return fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}
	metrics.ObserveOTPEmail(true)
	return nil
}

// ResetPassword checks the OTP and replaces the password
func (s *authService) ResetPassword(ctx context.Context, req model.ResetPasswordRequest) error {
	email := normalizeEmail(req.Email)

	otp, err := s.otpRepo.FindLatest(ctx, email, req.OTP)
	if err != nil {
		return fmt.Errorf("failed to find otp: %w", err)
	}
	if otp == nil {
		return ErrOTPInvalid
	}
	if otp.Expired(s.opts.OTPTTL, s.now()) {
		return ErrOTPExpired
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("error finding user by email: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hashedPassword); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.otpRepo.DeleteByEmail(ctx, email); err != nil {
		// Password is already changed; leftover codes expire on their own.
		slog.Warn("Failed to delete used OTPs", "email", email, "error", err)
	}
	return nil
}

// Logout revokes the presented token until it would have expired
func (s *authService) Logout(ctx context.Context, claims *utils.JWTClaims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return ErrTokenNotActive
	}
	if err := s.sessions.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile edits a profile; only the owner or an admin may do so.
// A fresh token is returned to the owner only; an admin editing someone else
// gets an empty token.
func (s *authService) UpdateProfile(ctx context.Context, callerID uuid.UUID, callerRole model.Role, targetID uuid.UUID, req model.UpdateProfileRequest) (*model.User, string, error) {
	if callerID != targetID && callerRole != model.RoleAdmin {
		return nil, "", ErrForbidden
	}

	user, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to find user for update: %w", err)
	}
	if user == nil {
		return nil, "", ErrUserNotFound
	}

	// Apply updates
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, "", ErrNameRequired
		}
		user.Name = name
	}
	if req.Email != nil {
		user.Email = normalizeEmail(*req.Email)
	}
	if req.ProfilePicture != nil {
		user.ProfilePicture = *req.ProfilePicture
	}
	if req.Password != nil && *req.Password != "" {
		hashedPassword, err := utils.HashPassword(*req.Password)
		if err != nil {
			return nil, "", fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hashedPassword
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, "", ErrUserAlreadyExists
		case errors.Is(err, repository.ErrNotFound):
			return nil, "", ErrUserNotFound
		}
		return nil, "", fmt.Errorf("failed to update user in repo: %w", err)
	}

	if callerID != targetID {
		return user, "", nil
	}
	token, err := s.jwtUtil.GenerateToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return user, token, nil
}

// PurgeExpiredOTPs deletes codes that can no longer be redeemed
func (s *authService) PurgeExpiredOTPs(ctx context.Context) (int64, error) {
	n, err := s.otpRepo.DeleteOlderThan(ctx, s.now().Add(-s.opts.OTPTTL))
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired otps: %w", err)
	}
	return n, nil
}
