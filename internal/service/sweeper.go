package service

import (
	"context"
	"log/slog"
	"time"
)

// RunOTPSweeper purges expired OTPs every interval until ctx is cancelled.
func RunOTPSweeper(ctx context.Context, auth AuthService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("OTP sweeper stopped")
			return
		case <-ticker.C:
			n, err := auth.PurgeExpiredOTPs(ctx)
			if err != nil {
				slog.Error("OTP sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("Purged expired OTPs", "count", n)
			}
		}
	}
}
