package credits

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/capsule-closet/capsule-be/internal/models"
	"github.com/capsule-closet/capsule-be/internal/storage"
)

// memStore is an in-memory storage.AccountStore with failure injection.
type memStore struct {
	mu       sync.Mutex
	accounts map[int64]models.CreditAccount
	logs     []models.GenerationLog
	refunds  []int

	deductErr error
	appendErr error
	refundErr error
	resetErr  error
}

var _ storage.AccountStore = (*memStore)(nil)

func newMemStore(accts ...models.CreditAccount) *memStore {
	s := &memStore{accounts: make(map[int64]models.CreditAccount)}
	for _, a := range accts {
		s.accounts[a.UserID] = a
	}
	return s
}

func (s *memStore) EnsureAccount(_ context.Context, userID int64, starting int) (models.CreditAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[userID]; ok {
		return a, nil
	}
	a := models.CreditAccount{UserID: userID, Tier: models.TierFree, CreditsRemaining: starting, CreditsResetDate: time.Now().UTC()}
	s.accounts[userID] = a
	return a, nil
}

func (s *memStore) GetAccount(_ context.Context, userID int64) (models.CreditAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[userID]
	if !ok {
		return models.CreditAccount{}, storage.ErrNotFound
	}
	return a, nil
}

func (s *memStore) DeductCredit(_ context.Context, userID int64, cost int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deductErr != nil {
		return 0, s.deductErr
	}
	a, ok := s.accounts[userID]
	if !ok {
		return 0, storage.ErrNotFound
	}
	if a.CreditsRemaining < cost {
		return 0, storage.ErrInsufficientCredits
	}
	a.CreditsRemaining -= cost
	a.TotalGenerations++
	s.accounts[userID] = a
	return a.CreditsRemaining, nil
}

func (s *memStore) AdjustCredits(_ context.Context, userID int64, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[userID]
	if !ok {
		return 0, storage.ErrNotFound
	}
	a.CreditsRemaining = max(a.CreditsRemaining+delta, 0)
	s.accounts[userID] = a
	return a.CreditsRemaining, nil
}

func (s *memStore) RefundCredit(_ context.Context, userID int64, cost int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refunds = append(s.refunds, cost)
	if s.refundErr != nil {
		return 0, s.refundErr
	}
	a, ok := s.accounts[userID]
	if !ok {
		return 0, storage.ErrNotFound
	}
	a.CreditsRemaining += cost
	a.TotalGenerations = max(a.TotalGenerations-1, 0)
	s.accounts[userID] = a
	return a.CreditsRemaining, nil
}

func (s *memStore) AppendLog(_ context.Context, entry models.GenerationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.logs = append(s.logs, entry)
	return nil
}

func (s *memStore) UpdateTier(_ context.Context, userID int64, tier models.Tier, credits *int, resetDate time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[userID]
	if !ok {
		return storage.ErrNotFound
	}
	a.Tier = tier
	if credits != nil {
		a.CreditsRemaining = *credits
		a.CreditsResetDate = resetDate
	}
	s.accounts[userID] = a
	return nil
}

func (s *memStore) ListPaidAccountsResetBefore(_ context.Context, cutoff time.Time) ([]models.CreditAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.CreditAccount
	for _, a := range s.accounts {
		if a.Tier.IsPaid() && a.CreditsResetDate.Before(cutoff) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *memStore) ApplyResets(_ context.Context, resets []models.CreditReset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resetErr != nil {
		return s.resetErr
	}
	for _, r := range resets {
		a := s.accounts[r.UserID]
		a.CreditsRemaining = r.CreditsRemaining
		a.CreditsResetDate = r.CreditsResetDate
		s.accounts[r.UserID] = a
	}
	return nil
}

func (s *memStore) balance(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[userID].CreditsRemaining
}

type staticEntitlements struct {
	active []string
	err    error
}

func (e staticEntitlements) ActiveEntitlements(context.Context, int64) ([]string, error) {
	return e.active, e.err
}
