package credits

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/capsule-closet/capsule-be/internal/models"
	"github.com/capsule-closet/capsule-be/internal/storage"
)

// Session is the session-scoped cache of a user's balance and tier. Only the
// Manager, the Synchronizer and Refresh change it.
type Session struct {
	UserID int64

	mu      sync.Mutex
	credits int
	tier    models.Tier
	busy    atomic.Bool
}

// NewSession seeds a session from a server account snapshot.
func NewSession(acct models.CreditAccount) *Session {
	s := &Session{UserID: acct.UserID}
	s.load(acct)
	return s
}

// Credits returns the cached balance.
func (s *Session) Credits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credits
}

// Tier returns the cached tier.
func (s *Session) Tier() models.Tier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tier
}

// Busy reports whether a credit transaction is in flight.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

func (s *Session) load(acct models.CreditAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credits = acct.CreditsRemaining
	s.tier = acct.Tier
}

func (s *Session) setCredits(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credits = n
}

func (s *Session) adjust(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credits += delta
}

// Refresh reloads the cache from the server of record.
func (s *Session) Refresh(ctx context.Context, store storage.AccountStore) (models.CreditAccount, error) {
	acct, err := store.GetAccount(ctx, s.UserID)
	if err != nil {
		return models.CreditAccount{}, fmt.Errorf("refresh credits: %w", err)
	}
	s.load(acct)
	return acct, nil
}

// Sessions hands out one Session per user for the lifetime of the process.
type Sessions struct {
	store           storage.AccountStore
	startingCredits int

	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewSessions creates an empty registry. Accounts created on first use get
// startingCredits.
func NewSessions(store storage.AccountStore, startingCredits int) *Sessions {
	return &Sessions{store: store, startingCredits: startingCredits, sessions: make(map[int64]*Session)}
}

// Get returns the user's session, creating the account on first sign-in.
func (r *Sessions) Get(ctx context.Context, userID int64) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[userID]
	r.mu.Unlock()
	if ok {
		return s, nil
	}

	acct, err := r.store.EnsureAccount(ctx, userID, r.startingCredits)
	if err != nil {
		return nil, fmt.Errorf("load credit account: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.sessions[userID]; ok {
		return existing, nil
	}
	s = NewSession(acct)
	r.sessions[userID] = s
	return s, nil
}
