package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/capsule-closet/capsule-be/internal/models"
	"github.com/capsule-closet/capsule-be/internal/storage"
)

var _ storage.AccountStore = (*Store)(nil)

const accountColumns = `user_id, tier, credits_remaining, credits_reset_date, total_generations, updated_at`

// EnsureAccount creates a free account with startingCredits on first use.
func (s *Store) EnsureAccount(ctx context.Context, userID int64, startingCredits int) (models.CreditAccount, error) {
	const insert = `
		INSERT INTO credit_accounts (user_id, tier, credits_remaining, credits_reset_date, total_generations)
		VALUES ($1, 'free', $2, NOW(), 0)
		ON CONFLICT (user_id) DO NOTHING;
	`
	if _, err := s.pool.Exec(ctx, insert, userID, startingCredits); err != nil {
		return models.CreditAccount{}, fmt.Errorf("ensure account: %w", err)
	}
	return s.GetAccount(ctx, userID)
}

// GetAccount reads the current credit state.
func (s *Store) GetAccount(ctx context.Context, userID int64) (models.CreditAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM credit_accounts WHERE user_id = $1;`
	return scanAccount(s.pool.QueryRow(ctx, query, userID))
}

// DeductCredit performs a conditional decrement so concurrent sessions
// cannot drive the balance negative.
func (s *Store) DeductCredit(ctx context.Context, userID int64, cost int) (int, error) {
	const query = `
		UPDATE credit_accounts
		SET credits_remaining = credits_remaining - $2,
			total_generations = total_generations + 1,
			updated_at = NOW()
		WHERE user_id = $1 AND credits_remaining >= $2
		RETURNING credits_remaining;
	`
	var remaining int
	err := s.pool.QueryRow(ctx, query, userID, cost).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := s.GetAccount(ctx, userID); getErr != nil {
			return 0, getErr
		}
		return 0, storage.ErrInsufficientCredits
	}
	if err != nil {
		return 0, fmt.Errorf("deduct credit: %w", err)
	}
	return remaining, nil
}

// AdjustCredits adds delta in a single statement.
func (s *Store) AdjustCredits(ctx context.Context, userID int64, delta int) (int, error) {
	const query = `
		UPDATE credit_accounts
		SET credits_remaining = GREATEST(credits_remaining + $2, 0),
			updated_at = NOW()
		WHERE user_id = $1
		RETURNING credits_remaining;
	`
	var remaining int
	if err := s.pool.QueryRow(ctx, query, userID, delta).Scan(&remaining); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, storage.ErrNotFound
		}
		return 0, fmt.Errorf("adjust credits: %w", err)
	}
	return remaining, nil
}

// RefundCredit returns cost to the balance and uncounts the generation.
func (s *Store) RefundCredit(ctx context.Context, userID int64, cost int) (int, error) {
	const query = `
		UPDATE credit_accounts
		SET credits_remaining = credits_remaining + $2,
			total_generations = GREATEST(total_generations - 1, 0),
			updated_at = NOW()
		WHERE user_id = $1
		RETURNING credits_remaining;
	`
	var remaining int
	if err := s.pool.QueryRow(ctx, query, userID, cost).Scan(&remaining); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, storage.ErrNotFound
		}
		return 0, fmt.Errorf("refund credit: %w", err)
	}
	return remaining, nil
}

// AppendLog records a spent credit.
func (s *Store) AppendLog(ctx context.Context, entry models.GenerationLog) error {
	const query = `
		INSERT INTO generation_logs (id, user_id, type, cost_to_user, created_at)
		VALUES ($1, $2, $3, $4, $5);
	`
	if _, err := s.pool.Exec(ctx, query, entry.ID, entry.UserID, string(entry.Type), entry.Cost, entry.CreatedAt); err != nil {
		return fmt.Errorf("append generation log: %w", err)
	}
	return nil
}

// UpdateTier writes the tier and optionally resets the balance.
func (s *Store) UpdateTier(ctx context.Context, userID int64, tier models.Tier, credits *int, resetDate time.Time) error {
	var (
		tag pgconn.CommandTag
		err error
	)
	if credits == nil {
		const query = `UPDATE credit_accounts SET tier = $2, updated_at = NOW() WHERE user_id = $1;`
		tag, err = s.pool.Exec(ctx, query, userID, string(tier))
	} else {
		const query = `
			UPDATE credit_accounts
			SET tier = $2, credits_remaining = $3, credits_reset_date = $4, updated_at = NOW()
			WHERE user_id = $1;
		`
		tag, err = s.pool.Exec(ctx, query, userID, string(tier), *credits, resetDate)
	}
	if err != nil {
		return fmt.Errorf("update tier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListPaidAccountsResetBefore selects paid accounts whose last reset is older
// than cutoff.
func (s *Store) ListPaidAccountsResetBefore(ctx context.Context, cutoff time.Time) ([]models.CreditAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM credit_accounts
		WHERE tier <> 'free' AND credits_reset_date < $1
		ORDER BY user_id;`
	rows, err := s.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list accounts for reset: %w", err)
	}
	defer rows.Close()

	var out []models.CreditAccount
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acct)
	}
	return out, rows.Err()
}

// ApplyResets writes a batch of monthly resets in one transaction.
func (s *Store) ApplyResets(ctx context.Context, resets []models.CreditReset) error {
	if len(resets) == 0 {
		return nil
	}
	const query = `
		UPDATE credit_accounts
		SET credits_remaining = $2, credits_reset_date = $3, updated_at = NOW()
		WHERE user_id = $1;
	`
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, r := range resets {
			batch.Queue(query, r.UserID, r.CreditsRemaining, r.CreditsResetDate)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("apply resets: %w", err)
		}
		return nil
	})
}

func scanAccount(row pgx.Row) (models.CreditAccount, error) {
	var (
		acct models.CreditAccount
		tier string
	)
	if err := row.Scan(&acct.UserID, &tier, &acct.CreditsRemaining, &acct.CreditsResetDate, &acct.TotalGenerations, &acct.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.CreditAccount{}, storage.ErrNotFound
		}
		return models.CreditAccount{}, err
	}
	parsed, err := models.ParseTier(tier)
	if err != nil {
		return models.CreditAccount{}, err
	}
	acct.Tier = parsed
	return acct, nil
}
