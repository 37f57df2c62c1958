package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capsule-closet/capsule-be/internal/models"
	"github.com/capsule-closet/capsule-be/internal/storage"
)

func newIntegrationStore(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("RUN_STORE_INTEGRATION") != "true" {
		t.Skip("set RUN_STORE_INTEGRATION=true to run this integration test")
	}
	dbURL := os.Getenv("DATABASE_URL")
	require.NotEmpty(t, dbURL, "DATABASE_URL is required")

	s, err := NewStore(context.Background(), dbURL)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func createTestUser(t *testing.T, s *Store) models.User {
	t.Helper()
	name := fmt.Sprintf("store_%d", time.Now().UnixNano())
	u, err := s.CreateUser(context.Background(), models.User{
		Username:     name,
		Email:        name + "@example.com",
		Phone:        "+15550000",
		PasswordHash: "x",
	})
	require.NoError(t, err)
	return u
}

func TestAccountLifecycle(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()
	u := createTestUser(t, s)

	acct, err := s.EnsureAccount(ctx, u.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.TierFree, acct.Tier)
	assert.Equal(t, 1, acct.CreditsRemaining)

	again, err := s.EnsureAccount(ctx, u.ID, 99)
	require.NoError(t, err)
	assert.Equal(t, 1, again.CreditsRemaining, "existing account is not overwritten")

	remaining, err := s.DeductCredit(ctx, u.ID, 1)
	require.NoError(t, err)
	assert.Zero(t, remaining)

	_, err = s.DeductCredit(ctx, u.ID, 1)
	assert.ErrorIs(t, err, storage.ErrInsufficientCredits)

	require.NoError(t, s.AppendLog(ctx, models.GenerationLog{
		ID: uuid.NewString(), UserID: u.ID, Type: models.GenerationTryOn, Cost: 1, CreatedAt: time.Now(),
	}))

	remaining, err = s.RefundCredit(ctx, u.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)
	acct, err = s.GetAccount(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, acct.TotalGenerations, "refunded generation is uncounted")

	remaining, err = s.AdjustCredits(ctx, u.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)

	_, err = s.DeductCredit(ctx, -1, 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTierAndResets(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()
	u := createTestUser(t, s)
	_, err := s.EnsureAccount(ctx, u.ID, 3)
	require.NoError(t, err)

	old := time.Now().UTC().AddDate(0, -2, 0).Truncate(time.Second)
	allotment := models.TierBasic.Allotment()
	require.NoError(t, s.UpdateTier(ctx, u.ID, models.TierBasic, &allotment, old))

	due, err := s.ListPaidAccountsResetBefore(ctx, time.Now())
	require.NoError(t, err)
	var found bool
	for _, a := range due {
		found = found || a.UserID == u.ID
	}
	assert.True(t, found)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.ApplyResets(ctx, []models.CreditReset{{UserID: u.ID, CreditsRemaining: 20, CreditsResetDate: now}}))

	acct, err := s.GetAccount(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, acct.CreditsRemaining)
	assert.WithinDuration(t, now, acct.CreditsResetDate, time.Second)

	require.NoError(t, s.UpdateTier(ctx, u.ID, models.TierFree, nil, time.Time{}))
	acct, err = s.GetAccount(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TierFree, acct.Tier)
	assert.Equal(t, 20, acct.CreditsRemaining)
}
