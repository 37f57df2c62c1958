package credits

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/capsule-closet/capsule-be/internal/models"
)

func TestTierFromEntitlements(t *testing.T) {
	tests := []struct {
		name   string
		active []string
		want   models.Tier
	}{
		{"none", nil, models.TierFree},
		{"basic", []string{"basic"}, models.TierBasic},
		{"pro", []string{"pro"}, models.TierPro},
		{"pro wins", []string{"basic", "pro"}, models.TierPro},
		{"unknown ignored", []string{"lifetime_stickers"}, models.TierFree},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TierFromEntitlements(tt.active))
		})
	}
}

func TestMonthsBetween(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 12, 0, 0, 0, time.UTC) }

	assert.Equal(t, 0, MonthsBetween(day(2026, 3, 1), day(2026, 3, 31)))
	assert.Equal(t, 1, MonthsBetween(day(2026, 3, 31), day(2026, 4, 1)), "day of month is ignored")
	assert.Equal(t, 1, MonthsBetween(day(2025, 12, 15), day(2026, 1, 2)))
	assert.Equal(t, 14, MonthsBetween(day(2025, 1, 20), day(2026, 3, 5)))
}

func TestResetDue(t *testing.T) {
	now := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)

	assert.True(t, ResetDue(models.CreditAccount{Tier: models.TierBasic, CreditsResetDate: lastMonth}, now))
	assert.False(t, ResetDue(models.CreditAccount{Tier: models.TierBasic, CreditsResetDate: now.Add(-time.Hour)}, now))
	assert.False(t, ResetDue(models.CreditAccount{Tier: models.TierFree, CreditsResetDate: lastMonth}, now))
}

func newSync(store *memStore, source EntitlementSource, now time.Time) *Synchronizer {
	y := NewSynchronizer(store, source, zap.NewNop(), nil)
	y.now = func() time.Time { return now }
	return y
}

func TestSyncUpgradeResetsToAllotment(t *testing.T) {
	now := time.Date(2026, 6, 10, 9, 0, 0, 0, time.UTC)
	acct := models.CreditAccount{UserID: userID, Tier: models.TierFree, CreditsRemaining: 2}
	store := newMemStore(acct)
	s := NewSession(acct)

	tier, changed, err := newSync(store, nil, now).Sync(context.Background(), s, []string{"pro"})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.TierPro, tier)
	assert.Equal(t, 50, s.Credits())
	assert.Equal(t, models.TierPro, s.Tier())
	assert.Equal(t, now, store.accounts[userID].CreditsResetDate)
}

func TestSyncDowngradeKeepsBalance(t *testing.T) {
	reset := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	acct := models.CreditAccount{UserID: userID, Tier: models.TierBasic, CreditsRemaining: 12, CreditsResetDate: reset}
	store := newMemStore(acct)
	s := NewSession(acct)

	tier, changed, err := newSync(store, nil, reset.AddDate(0, 0, 5)).Sync(context.Background(), s, nil)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.TierFree, tier)
	assert.Equal(t, 12, s.Credits())
	assert.Equal(t, reset, store.accounts[userID].CreditsResetDate)
}

func TestSyncUnchangedTierIsNoop(t *testing.T) {
	acct := models.CreditAccount{UserID: userID, Tier: models.TierBasic, CreditsRemaining: 4}
	store := newMemStore(acct)
	s := NewSession(models.CreditAccount{UserID: userID, Tier: models.TierBasic, CreditsRemaining: 9})

	_, changed, err := newSync(store, nil, time.Now()).Sync(context.Background(), s, []string{"basic"})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 4, s.Credits(), "session picks up the server balance")
}

func TestSyncFromSourceError(t *testing.T) {
	acct := models.CreditAccount{UserID: userID, Tier: models.TierFree}
	store := newMemStore(acct)
	source := staticEntitlements{err: errors.New("billing unavailable")}

	_, _, err := newSync(store, source, time.Now()).SyncFromSource(context.Background(), NewSession(acct))
	assert.Error(t, err)
	assert.Equal(t, models.TierFree, store.accounts[userID].Tier)
}

func TestCheckMonthlyReset(t *testing.T) {
	now := time.Date(2026, 7, 3, 8, 0, 0, 0, time.UTC)
	acct := models.CreditAccount{
		UserID:           userID,
		Tier:             models.TierBasic,
		CreditsRemaining: 1,
		CreditsResetDate: time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC),
	}
	store := newMemStore(acct)
	s := NewSession(acct)
	y := newSync(store, nil, now)

	reset, err := y.CheckMonthlyReset(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, reset)
	assert.Equal(t, 20, s.Credits())
	assert.Equal(t, now, store.accounts[userID].CreditsResetDate)

	reset, err = y.CheckMonthlyReset(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, reset, "same month does not reset twice")
}

func TestCheckMonthlyResetSkipsFree(t *testing.T) {
	acct := models.CreditAccount{
		UserID:           userID,
		Tier:             models.TierFree,
		CreditsRemaining: 0,
		CreditsResetDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	store := newMemStore(acct)
	s := NewSession(acct)

	reset, err := newSync(store, nil, time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC)).CheckMonthlyReset(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, reset)
	assert.Equal(t, 0, s.Credits())
}

func TestPurchaseBoosterAddsCredits(t *testing.T) {
	acct := models.CreditAccount{UserID: userID, Tier: models.TierFree, CreditsRemaining: 1}
	store := newMemStore(acct)
	s := NewSession(acct)

	require.NoError(t, newSync(store, nil, time.Now()).Purchase(context.Background(), s, "capsule_booster_10"))
	assert.Equal(t, 11, s.Credits())
	assert.Equal(t, 11, store.balance(userID))
	assert.Equal(t, models.TierFree, s.Tier())
}

func TestPurchaseSubscriptionSyncs(t *testing.T) {
	acct := models.CreditAccount{UserID: userID, Tier: models.TierFree, CreditsRemaining: 1}
	store := newMemStore(acct)
	s := NewSession(acct)
	source := staticEntitlements{active: []string{"basic"}}

	require.NoError(t, newSync(store, source, time.Now()).Purchase(context.Background(), s, "capsule_basic_monthly"))
	assert.Equal(t, models.TierBasic, s.Tier())
	assert.Equal(t, 20, s.Credits())
}
