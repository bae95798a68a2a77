package model

import "time"

// OTP is a one-time password-reset code sent by email
type OTP struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Code      string    `json:"otp"`
	CreatedAt time.Time `json:"createdAt"`
}

// Expired reports whether the code is older than ttl at now.
func (o *OTP) Expired(ttl time.Duration, now time.Time) bool {
	return o.CreatedAt.Add(ttl).Before(now)
}
