package registration

import (
	"context"
	"log/slog"
	"time"
)

// SweepExpiredHolds periodically voids PREBOOK registrations whose payment
// window has lapsed, so abandoned checkouts stop consuming capacity. Runs
// until the context is cancelled.
func SweepExpiredHolds(ctx context.Context, repo Repository, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			released, err := repo.VoidExpiredPrebooks(ctx, time.Now())
			if err != nil {
				logger.Error("Failed to void expired payment holds", slog.String("error", err.Error()))
				continue
			}
			if released > 0 {
				logger.Info("Released expired payment holds", slog.Int("count", released))
			}
		}
	}
}
