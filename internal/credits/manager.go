// Package credits spends, refunds and renews the generation credits of a
// user, keeping the session cache, the account store and the billing
// platform's entitlements in step.
package credits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capsule-closet/capsule-be/internal/metrics"
	"github.com/capsule-closet/capsule-be/internal/models"
	"github.com/capsule-closet/capsule-be/internal/storage"
)

// GenerationCost is the price of one paid generation.
const GenerationCost = 1

// Outcome is the user-visible result of a credit transaction.
type Outcome string

const (
	OutcomeCompleted           Outcome = "completed"
	OutcomeBusy                Outcome = "busy"
	OutcomeInsufficientCredits Outcome = "insufficient_credits"
	OutcomeRefunded            Outcome = "refunded"
)

// Result reports how a transaction ended. Cause is nil only for
// OutcomeCompleted.
type Result struct {
	Outcome Outcome
	Cause   error
}

// OK reports whether the task ran and the credit stayed spent.
func (r Result) OK() bool { return r.Outcome == OutcomeCompleted }

// Task is the paid unit of work. It runs to completion even if the caller's
// context is cancelled.
type Task func(ctx context.Context) error

// Manager runs paid tasks behind an optimistic credit deduction.
type Manager struct {
	store   storage.AccountStore
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewManager builds a Manager. m may be nil.
func NewManager(store storage.AccountStore, logger *zap.Logger, m *metrics.Metrics) *Manager {
	return &Manager{store: store, logger: logger.Named("credits"), metrics: m, now: time.Now}
}

// Use spends one credit on task. The local balance is decremented before the
// server confirms; any failure after that point is compensated. At most one
// transaction per session is in flight; a second call returns OutcomeBusy
// without touching any balance.
func (m *Manager) Use(ctx context.Context, s *Session, genType models.GenerationType, task Task) Result {
	res := m.use(ctx, s, genType, task)
	m.metrics.CreditTransaction(string(genType), string(res.Outcome))
	return res
}

func (m *Manager) use(ctx context.Context, s *Session, genType models.GenerationType, task Task) Result {
	if !s.busy.CompareAndSwap(false, true) {
		return Result{Outcome: OutcomeBusy, Cause: ErrBusy}
	}
	defer s.busy.Store(false)

	if s.Credits() <= 0 {
		return Result{Outcome: OutcomeInsufficientCredits, Cause: ErrInsufficientCredits}
	}

	s.adjust(-GenerationCost)
	log := m.logger.With(zap.Int64("user_id", s.UserID), zap.String("type", string(genType)))

	deducted, err := m.confirm(ctx, s.UserID, genType)
	if err == nil {
		if taskErr := task(context.WithoutCancel(ctx)); taskErr != nil {
			err = fmt.Errorf("%w: task: %w", ErrTransient, taskErr)
		}
	}
	if err == nil {
		log.Info("generation completed")
		return Result{Outcome: OutcomeCompleted}
	}

	m.rollback(ctx, s, deducted, log)
	if errors.Is(err, ErrInsufficientCredits) {
		log.Info("server rejected deduction", zap.Error(err))
		return Result{Outcome: OutcomeInsufficientCredits, Cause: err}
	}
	log.Warn("generation failed, credit refunded", zap.Error(err))
	return Result{Outcome: OutcomeRefunded, Cause: err}
}

// confirm deducts on the server and appends the audit log. deducted reports
// whether the server balance was decremented.
func (m *Manager) confirm(ctx context.Context, userID int64, genType models.GenerationType) (deducted bool, err error) {
	if _, err := m.store.DeductCredit(ctx, userID, GenerationCost); err != nil {
		if errors.Is(err, storage.ErrInsufficientCredits) {
			return false, fmt.Errorf("%w: server balance exhausted", ErrInsufficientCredits)
		}
		return false, fmt.Errorf("%w: deduct: %w", ErrTransient, err)
	}
	entry := models.GenerationLog{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      genType,
		Cost:      GenerationCost,
		CreatedAt: m.now().UTC(),
	}
	if err := m.store.AppendLog(ctx, entry); err != nil {
		return true, fmt.Errorf("%w: append log: %w", ErrTransient, err)
	}
	return true, nil
}

func (m *Manager) rollback(ctx context.Context, s *Session, deducted bool, log *zap.Logger) {
	s.adjust(GenerationCost)
	if !deducted {
		return
	}
	if _, err := m.store.RefundCredit(context.WithoutCancel(ctx), s.UserID, GenerationCost); err != nil {
		m.metrics.RefundFailed()
		log.Error("refund failed, server balance is short by one credit", zap.Error(err))
	}
}
