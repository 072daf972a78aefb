package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/arklim/reviewapp-auth/internal/core/port"
)

// PurgeResult counts tokens removed by one reaper pass.
type PurgeResult struct {
	Verification int64
	Reset        int64
}

// TokenReaper deletes expired verification and reset tokens. It never reads
// token material.
type TokenReaper struct {
	verifications *VerificationTokenStore
	resets        *ResetTokenStore
	metrics       port.IdentityMetrics
	logger        *zap.Logger
	now           func() time.Time
}

// NewTokenReaper builds a reaper over the service's token stores.
func NewTokenReaper(svc *IdentityService, logger *zap.Logger) *TokenReaper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenReaper{
		verifications: svc.verifications,
		resets:        svc.resets,
		metrics:       svc.metrics,
		logger:        logger,
		now:           svc.now,
	}
}

// PurgeOnce runs a single pass. Both kinds are attempted even if one fails.
func (r *TokenReaper) PurgeOnce(ctx context.Context) (PurgeResult, error) {
	cutoff := r.now().UTC()
	var result PurgeResult

	verification, verr := r.verifications.Purge(ctx, cutoff)
	result.Verification = verification
	reset, rerr := r.resets.Purge(ctx, cutoff)
	result.Reset = reset

	if r.metrics != nil {
		r.metrics.ObserveTokensPurged("verification", verification)
		r.metrics.ObserveTokensPurged("reset", reset)
	}
	if verr != nil {
		return result, verr
	}
	return result, rerr
}

// Run purges every interval until ctx is cancelled.
func (r *TokenReaper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := r.PurgeOnce(ctx)
			if err != nil {
				r.logger.Error("failed to purge expired tokens", zap.Error(err))
				continue
			}
			if result.Verification > 0 || result.Reset > 0 {
				r.logger.Info("purged expired tokens",
					zap.Int64("verification", result.Verification),
					zap.Int64("reset", result.Reset),
				)
			}
		}
	}
}
