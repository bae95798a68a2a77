package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"excel_analytics/internal/model"

	"github.com/jackc/pgx/v5"
)

// OTPRepository defines operations for password-reset codes
type OTPRepository interface {
	Create(ctx context.Context, otp *model.OTP) error
	FindLatest(ctx context.Context, email, code string) (*model.OTP, error)
	DeleteByEmail(ctx context.Context, email string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type otpRepository struct {
	db DBTX
}

func NewOTPRepository(db DBTX) OTPRepository {
	return &otpRepository{db: db}
}

func (r *otpRepository) Create(ctx context.Context, otp *model.OTP) error {
	sql := `INSERT INTO otps (email, otp, created_at) VALUES ($1, $2, $3) RETURNING id`
	if err := r.db.QueryRow(ctx, sql, otp.Email, otp.Code, otp.CreatedAt).Scan(&otp.ID); err != nil {
		return fmt.Errorf("failed to create otp: %w", err)
	}
	return nil
}

// FindLatest returns the newest code matching email and code, or nil
func (r *otpRepository) FindLatest(ctx context.Context, email, code string) (*model.OTP, error) {
	otp := &model.OTP{}
	sql := `SELECT id, email, otp, created_at FROM otps WHERE email = $1 AND otp = $2 ORDER BY created_at DESC LIMIT 1`
	err := r.db.QueryRow(ctx, sql, email, code).Scan(&otp.ID, &otp.Email, &otp.Code, &otp.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find otp: %w", err)
	}
	return otp, nil
}

func (r *otpRepository) DeleteByEmail(ctx context.Context, email string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM otps WHERE email = $1`, email); err != nil {
		return fmt.Errorf("failed to delete otps: %w", err)
	}
	return nil
}

// DeleteOlderThan purges codes created before cutoff and reports how many went
func (r *otpRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM otps WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired otps: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}
