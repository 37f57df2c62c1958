package credits

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/capsule-closet/capsule-be/internal/metrics"
	"github.com/capsule-closet/capsule-be/internal/models"
	"github.com/capsule-closet/capsule-be/internal/storage"
)

// Entitlement identifiers configured on the billing platform.
const (
	EntitlementPro   = "pro"
	EntitlementBasic = "basic"
)

// BoosterCredits is what one consumable booster pack adds.
const BoosterCredits = 10

// EntitlementSource returns the active entitlement identifiers of a user.
type EntitlementSource interface {
	ActiveEntitlements(ctx context.Context, userID int64) ([]string, error)
}

// TierFromEntitlements derives the tier, pro winning over basic.
func TierFromEntitlements(active []string) models.Tier {
	var basic bool
	for _, e := range active {
		switch e {
		case EntitlementPro:
			return models.TierPro
		case EntitlementBasic:
			basic = true
		}
	}
	if basic {
		return models.TierBasic
	}
	return models.TierFree
}

// IsBooster reports whether a product id names a consumable credit pack.
func IsBooster(productID string) bool {
	return strings.Contains(strings.ToLower(productID), "booster")
}

// MonthsBetween counts calendar months from one date to another by year and
// month alone, ignoring the day.
func MonthsBetween(from, to time.Time) int {
	from, to = from.UTC(), to.UTC()
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

// ResetDue reports whether a paid account has crossed into a new calendar
// month since its last reset. Free accounts are never due.
func ResetDue(acct models.CreditAccount, now time.Time) bool {
	return acct.Tier.IsPaid() && MonthsBetween(acct.CreditsResetDate, now) >= 1
}

// Synchronizer reconciles entitlement snapshots and monthly renewals with
// the account store.
type Synchronizer struct {
	store   storage.AccountStore
	source  EntitlementSource
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewSynchronizer builds a Synchronizer. m may be nil.
func NewSynchronizer(store storage.AccountStore, source EntitlementSource, logger *zap.Logger, m *metrics.Metrics) *Synchronizer {
	return &Synchronizer{store: store, source: source, logger: logger.Named("credit_sync"), metrics: m, now: time.Now}
}

// Sync applies an entitlement snapshot. A tier change to a paid tier resets
// the balance to the tier allotment; a downgrade to free keeps the balance.
// It reports the resulting tier and whether it changed.
func (y *Synchronizer) Sync(ctx context.Context, s *Session, active []string) (models.Tier, bool, error) {
	acct, err := y.store.GetAccount(ctx, s.UserID)
	if err != nil {
		return "", false, fmt.Errorf("read account: %w", err)
	}
	target := TierFromEntitlements(active)
	if acct.Tier == target {
		s.load(acct)
		return target, false, nil
	}

	var credits *int
	resetDate := time.Time{}
	if target.IsPaid() {
		allotment := target.Allotment()
		credits = &allotment
		resetDate = y.now().UTC()
	}
	if err := y.store.UpdateTier(ctx, s.UserID, target, credits, resetDate); err != nil {
		return "", false, fmt.Errorf("update tier: %w", err)
	}
	y.metrics.TierChanged(string(acct.Tier), string(target))
	y.logger.Info("tier synced",
		zap.Int64("user_id", s.UserID),
		zap.String("from", string(acct.Tier)),
		zap.String("to", string(target)))

	if _, err := s.Refresh(ctx, y.store); err != nil {
		return target, true, err
	}
	return target, true, nil
}

// SyncFromSource pulls the current snapshot from the entitlement source and
// applies it.
func (y *Synchronizer) SyncFromSource(ctx context.Context, s *Session) (models.Tier, bool, error) {
	active, err := y.source.ActiveEntitlements(ctx, s.UserID)
	if err != nil {
		return "", false, fmt.Errorf("fetch entitlements: %w", err)
	}
	return y.Sync(ctx, s, active)
}

// CheckMonthlyReset renews a paid account whose reset date lies in an
// earlier calendar month.
func (y *Synchronizer) CheckMonthlyReset(ctx context.Context, s *Session) (bool, error) {
	acct, err := y.store.GetAccount(ctx, s.UserID)
	if err != nil {
		return false, fmt.Errorf("read account: %w", err)
	}
	now := y.now().UTC()
	if !ResetDue(acct, now) {
		s.load(acct)
		return false, nil
	}
	allotment := acct.Tier.Allotment()
	if err := y.store.UpdateTier(ctx, s.UserID, acct.Tier, &allotment, now); err != nil {
		return false, fmt.Errorf("reset credits: %w", err)
	}
	y.metrics.CreditsReset(1)
	if _, err := s.Refresh(ctx, y.store); err != nil {
		return true, err
	}
	return true, nil
}

// Purchase handles a completed store purchase. Booster packs add credits
// directly; any other product is a subscription and triggers a sync.
func (y *Synchronizer) Purchase(ctx context.Context, s *Session, productID string) error {
	if !IsBooster(productID) {
		_, _, err := y.SyncFromSource(ctx, s)
		return err
	}
	remaining, err := y.store.AdjustCredits(ctx, s.UserID, BoosterCredits)
	if err != nil {
		return fmt.Errorf("add booster credits: %w", err)
	}
	s.setCredits(remaining)
	y.logger.Info("booster applied", zap.Int64("user_id", s.UserID), zap.String("product_id", productID))
	return nil
}
