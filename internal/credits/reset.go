package credits

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/capsule-closet/capsule-be/internal/metrics"
	"github.com/capsule-closet/capsule-be/internal/models"
	"github.com/capsule-closet/capsule-be/internal/storage"
)

// ResetJob renews paid accounts at the start of each billing month. It runs
// outside any interactive session and is safe to re-run: a renewed account
// carries the run time as its reset date and is not due again until the
// next calendar month.
type ResetJob struct {
	store   storage.AccountStore
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewResetJob builds a ResetJob. m may be nil.
func NewResetJob(store storage.AccountStore, logger *zap.Logger, m *metrics.Metrics) *ResetJob {
	return &ResetJob{store: store, logger: logger.Named("credit_reset"), metrics: m}
}

// Run resets every due account as of now and returns how many were reset.
func (j *ResetJob) Run(ctx context.Context, now time.Time) (int, error) {
	now = now.UTC()
	candidates, err := j.store.ListPaidAccountsResetBefore(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list accounts: %w", err)
	}

	resets := make([]models.CreditReset, 0, len(candidates))
	for _, acct := range candidates {
		if !ResetDue(acct, now) {
			continue
		}
		resets = append(resets, models.CreditReset{
			UserID:           acct.UserID,
			CreditsRemaining: acct.Tier.Allotment(),
			CreditsResetDate: now,
		})
	}
	if len(resets) == 0 {
		j.logger.Debug("no accounts due for reset")
		return 0, nil
	}
	if err := j.store.ApplyResets(ctx, resets); err != nil {
		return 0, fmt.Errorf("apply resets: %w", err)
	}
	j.metrics.CreditsReset(len(resets))
	j.logger.Info("monthly credits reset", zap.Int("accounts", len(resets)))
	return len(resets), nil
}

// RunEvery runs the job on a fixed interval until ctx is cancelled.
func (j *ResetJob) RunEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := j.Run(ctx, time.Now()); err != nil {
			j.logger.Error("monthly reset failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
