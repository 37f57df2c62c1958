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

const userID = int64(7)

func setup(t *testing.T, credits int) (*Manager, *memStore, *Session) {
	t.Helper()
	acct := models.CreditAccount{UserID: userID, Tier: models.TierFree, CreditsRemaining: credits}
	store := newMemStore(acct)
	return NewManager(store, zap.NewNop(), nil), store, NewSession(acct)
}

func TestUseSuccess(t *testing.T) {
	m, store, s := setup(t, 5)
	ran := false

	res := m.Use(context.Background(), s, models.GenerationTryOn, func(context.Context) error {
		ran = true
		assert.Equal(t, 4, s.Credits(), "local balance is decremented before the task runs")
		return nil
	})

	assert.True(t, res.OK())
	assert.NoError(t, res.Cause)
	assert.True(t, ran)
	assert.Equal(t, 4, s.Credits())
	assert.Equal(t, 4, store.balance(userID))
	assert.Equal(t, 1, store.accounts[userID].TotalGenerations)
	require.Len(t, store.logs, 1)
	assert.Equal(t, models.GenerationTryOn, store.logs[0].Type)
	assert.Equal(t, 1, store.logs[0].Cost)
	assert.Empty(t, store.refunds)
	assert.False(t, s.Busy())
}

func TestUseTaskFailureRefunds(t *testing.T) {
	m, store, s := setup(t, 5)

	res := m.Use(context.Background(), s, models.GenerationTryOn, func(context.Context) error {
		return errors.New("model overloaded")
	})

	assert.Equal(t, OutcomeRefunded, res.Outcome)
	assert.ErrorIs(t, res.Cause, ErrTransient)
	assert.Equal(t, 5, s.Credits())
	assert.Equal(t, 5, store.balance(userID))
	assert.Equal(t, []int{1}, store.refunds, "exactly one compensating increment")
	assert.Zero(t, store.accounts[userID].TotalGenerations, "refunded generation is uncounted")
	assert.False(t, s.Busy())
}

func TestUseLocalGateSkipsServer(t *testing.T) {
	m, store, s := setup(t, 0)
	store.accounts[userID] = models.CreditAccount{UserID: userID, CreditsRemaining: 9}

	res := m.Use(context.Background(), s, models.GenerationTryOn, func(context.Context) error {
		t.Fatal("task must not run")
		return nil
	})

	assert.Equal(t, OutcomeInsufficientCredits, res.Outcome)
	assert.ErrorIs(t, res.Cause, ErrInsufficientCredits)
	assert.Equal(t, 9, store.balance(userID), "no server round trip")
	assert.Empty(t, store.logs)
	assert.False(t, s.Busy())
}

func TestUseServerRejectsStaleCache(t *testing.T) {
	m, store, s := setup(t, 2)
	store.accounts[userID] = models.CreditAccount{UserID: userID, CreditsRemaining: 0}

	res := m.Use(context.Background(), s, models.GenerationTryOn, func(context.Context) error {
		t.Fatal("task must not run")
		return nil
	})

	assert.Equal(t, OutcomeInsufficientCredits, res.Outcome)
	assert.ErrorIs(t, res.Cause, ErrInsufficientCredits)
	assert.Equal(t, 2, s.Credits(), "local deduction rolled back")
	assert.Empty(t, store.refunds, "nothing to refund on the server")
}

func TestUseDeductFailureRollsBackLocally(t *testing.T) {
	m, store, s := setup(t, 3)
	store.deductErr = errors.New("connection reset")

	res := m.Use(context.Background(), s, models.GenerationOutfit, func(context.Context) error { return nil })

	assert.Equal(t, OutcomeRefunded, res.Outcome)
	assert.ErrorIs(t, res.Cause, ErrTransient)
	assert.Equal(t, 3, s.Credits())
	assert.Empty(t, store.refunds)
}

func TestUseLogFailureRefundsServer(t *testing.T) {
	m, store, s := setup(t, 3)
	store.appendErr = errors.New("insert failed")

	res := m.Use(context.Background(), s, models.GenerationTryOn, func(context.Context) error {
		t.Fatal("task must not run")
		return nil
	})

	assert.Equal(t, OutcomeRefunded, res.Outcome)
	assert.Equal(t, 3, s.Credits())
	assert.Equal(t, 3, store.balance(userID))
	assert.Equal(t, []int{1}, store.refunds)
}

func TestUseRefundFailureStillRestoresLocal(t *testing.T) {
	m, store, s := setup(t, 3)
	store.refundErr = errors.New("timeout")

	res := m.Use(context.Background(), s, models.GenerationTryOn, func(context.Context) error {
		return errors.New("boom")
	})

	assert.Equal(t, OutcomeRefunded, res.Outcome)
	assert.Equal(t, 3, s.Credits())
	assert.Equal(t, 2, store.balance(userID))
}

func TestUseRejectsConcurrentInvocation(t *testing.T) {
	m, store, s := setup(t, 5)
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan Result)

	go func() {
		done <- m.Use(context.Background(), s, models.GenerationTryOn, func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	second := m.Use(context.Background(), s, models.GenerationTryOn, func(context.Context) error {
		t.Error("second task must not run")
		return nil
	})
	assert.Equal(t, OutcomeBusy, second.Outcome)
	assert.ErrorIs(t, second.Cause, ErrBusy)
	assert.Equal(t, 4, s.Credits(), "second call leaves the balance alone")

	close(release)
	first := <-done
	assert.True(t, first.OK())
	assert.Equal(t, 4, s.Credits())
	assert.Equal(t, 4, store.balance(userID))
	assert.Len(t, store.logs, 1)
	assert.False(t, s.Busy())
}

func TestUseTaskIgnoresCallerCancellation(t *testing.T) {
	m, _, s := setup(t, 1)
	ctx, cancel := context.WithCancel(context.Background())

	res := m.Use(ctx, s, models.GenerationTryOn, func(taskCtx context.Context) error {
		cancel()
		select {
		case <-taskCtx.Done():
			return taskCtx.Err()
		case <-time.After(10 * time.Millisecond):
			return nil
		}
	})

	assert.True(t, res.OK())
}

func TestSessionsCreateAccountOnFirstUse(t *testing.T) {
	store := newMemStore()
	reg := NewSessions(store, models.StartingCredits)

	s, err := reg.Get(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Credits())
	assert.Equal(t, models.TierFree, s.Tier())

	again, err := reg.Get(context.Background(), 11)
	require.NoError(t, err)
	assert.Same(t, s, again)
}
