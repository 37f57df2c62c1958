package handlers

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/capsule-closet/capsule-be/internal/models"
	"github.com/capsule-closet/capsule-be/internal/storage"
	"github.com/capsule-closet/capsule-be/internal/tryon"
)

type memUsers struct {
	mu    sync.Mutex
	next  int64
	users []models.User
}

func (m *memUsers) CreateUser(_ context.Context, u models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Username, u.Username) || strings.EqualFold(existing.Email, u.Email) {
			return models.User{}, storage.ErrAlreadyExists
		}
	}
	m.next++
	u.ID = m.next
	u.CreatedAt = time.Now()
	m.users = append(m.users, u)
	return u, nil
}

func (m *memUsers) FindByUsernameOrEmail(_ context.Context, identifier string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Username, identifier) || strings.EqualFold(u.Email, identifier) {
			return u, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

type memAccounts struct {
	mu       sync.Mutex
	accounts map[int64]models.CreditAccount
	logs     int
}

func newMemAccounts() *memAccounts {
	return &memAccounts{accounts: map[int64]models.CreditAccount{}}
}

func (m *memAccounts) EnsureAccount(_ context.Context, userID int64, starting int) (models.CreditAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[userID]; ok {
		return a, nil
	}
	a := models.CreditAccount{UserID: userID, Tier: models.TierFree, CreditsRemaining: starting, CreditsResetDate: time.Now().UTC()}
	m.accounts[userID] = a
	return a, nil
}

func (m *memAccounts) GetAccount(_ context.Context, userID int64) (models.CreditAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[userID]
	if !ok {
		return models.CreditAccount{}, storage.ErrNotFound
	}
	return a, nil
}

func (m *memAccounts) DeductCredit(_ context.Context, userID int64, cost int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.accounts[userID]
	if a.CreditsRemaining < cost {
		return 0, storage.ErrInsufficientCredits
	}
	a.CreditsRemaining -= cost
	m.accounts[userID] = a
	return a.CreditsRemaining, nil
}

func (m *memAccounts) AdjustCredits(_ context.Context, userID int64, delta int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.accounts[userID]
	a.CreditsRemaining = max(a.CreditsRemaining+delta, 0)
	m.accounts[userID] = a
	return a.CreditsRemaining, nil
}

func (m *memAccounts) RefundCredit(_ context.Context, userID int64, cost int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.accounts[userID]
	a.CreditsRemaining += cost
	a.TotalGenerations = max(a.TotalGenerations-1, 0)
	m.accounts[userID] = a
	return a.CreditsRemaining, nil
}

func (m *memAccounts) AppendLog(context.Context, models.GenerationLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs++
	return nil
}

func (m *memAccounts) UpdateTier(_ context.Context, userID int64, tier models.Tier, credits *int, resetDate time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.accounts[userID]
	a.Tier = tier
	if credits != nil {
		a.CreditsRemaining = *credits
		a.CreditsResetDate = resetDate
	}
	m.accounts[userID] = a
	return nil
}

func (m *memAccounts) ListPaidAccountsResetBefore(context.Context, time.Time) ([]models.CreditAccount, error) {
	return nil, nil
}

func (m *memAccounts) ApplyResets(context.Context, []models.CreditReset) error {
	return nil
}

func (m *memAccounts) balance(userID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[userID].CreditsRemaining
}

type memInventory struct {
	mu    sync.Mutex
	items []models.ClothingItem
}

func (m *memInventory) ListItems(_ context.Context, userID int64) ([]models.ClothingItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ClothingItem
	for _, it := range m.items {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memInventory) GetItem(_ context.Context, userID int64, itemID string) (models.ClothingItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.ID == itemID && it.UserID == userID {
			return it, nil
		}
	}
	return models.ClothingItem{}, storage.ErrNotFound
}

func (m *memInventory) CountItems(ctx context.Context, userID int64) (int, error) {
	items, err := m.ListItems(ctx, userID)
	return len(items), err
}

func (m *memInventory) CreateItem(_ context.Context, item models.ClothingItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, item)
	return nil
}

func (m *memInventory) UpdateWear(_ context.Context, userID int64, itemID string, u models.WearUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, it := range m.items {
		if it.ID == itemID && it.UserID == userID {
			worn := u.LastWorn
			m.items[i].LastWorn = &worn
			m.items[i].Tags = u.Tags
			m.items[i].CostPerWear = u.CostPerWear
			return nil
		}
	}
	return storage.ErrNotFound
}

type memOutfits struct {
	mu    sync.Mutex
	saved []models.SavedOutfit
}

func (m *memOutfits) SaveOutfit(_ context.Context, o models.SavedOutfit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, o)
	return nil
}

func (m *memOutfits) ListOutfits(_ context.Context, userID int64) ([]models.SavedOutfit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SavedOutfit
	for _, o := range m.saved {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOutfits) CountOutfits(ctx context.Context, userID int64) (int, error) {
	out, err := m.ListOutfits(ctx, userID)
	return len(out), err
}

type stubRenderer struct {
	err   error
	calls int
}

func (r *stubRenderer) Render(_ context.Context, userID int64, item models.ClothingItem, person tryon.Image) (string, error) {
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	if len(person.Data) == 0 {
		return "", errors.New("no photo")
	}
	return "https://blobs.test/tryon/" + item.ID, nil
}

type stubEntitlements []string

func (s stubEntitlements) ActiveEntitlements(context.Context, int64) ([]string, error) {
	return s, nil
}
