package subscription

import (
	"context"
	"fmt"
	"sync"

	"github.com/puzpuzpuz/xsync/v2"
	"go.uber.org/zap"

	"github.com/cyphera/cyphera-mpc-billing/internal/near"
)

// Ledger applies the subscription lifecycle to a Store. Mutations for one
// account are serialized; different accounts proceed independently.
type Ledger struct {
	store  Store
	period uint64
	price  near.Balance
	now    Clock
	locks  *xsync.MapOf[string, *accountLock]
	logger *zap.Logger
}

// accountLock serializes mutations of one account. refs counts holders and
// waiters; the entry leaves the table when it drops to zero.
type accountLock struct {
	mu   sync.Mutex
	refs int
}

// LedgerConfig configures a Ledger.
type LedgerConfig struct {
	// PeriodLength is the billing period in nanoseconds.
	PeriodLength uint64
	// Price is the exact deposit required by Pay.
	Price  near.Balance
	Clock  Clock
	Logger *zap.Logger
}

// NewLedger creates a Ledger backed by store.
func NewLedger(store Store, cfg LedgerConfig) *Ledger {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Ledger{
		store:  store,
		period: cfg.PeriodLength,
		price:  cfg.Price,
		now:    cfg.Clock,
		locks:  xsync.NewMapOf[*accountLock](),
		logger: cfg.Logger,
	}
}

// Price returns the subscription price.
func (l *Ledger) Price() near.Balance { return l.price }

// PeriodLength returns the billing period in nanoseconds.
func (l *Ledger) PeriodLength() uint64 { return l.period }

func (l *Ledger) lock(accountID string) func() {
	entry, _ := l.locks.Compute(accountID, func(old *accountLock, loaded bool) (*accountLock, bool) {
		if !loaded {
			old = &accountLock{}
		}
		old.refs++
		return old, false
	})
	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		l.locks.Compute(accountID, func(old *accountLock, _ bool) (*accountLock, bool) {
			old.refs--
			return old, old.refs == 0
		})
	}
}

func (l *Ledger) load(ctx context.Context, accountID string) (Info, error) {
	info, ok, err := l.store.Get(ctx, accountID)
	if err != nil {
		return Info{}, fmt.Errorf("failed to load subscription: %w", err)
	}
	if !ok {
		return Info{}, ErrNotEnrolled
	}
	return info, nil
}

// Enroll starts a subscription whose first payment falls due one period from now.
func (l *Ledger) Enroll(ctx context.Context, accountID string) (Info, error) {
	defer l.lock(accountID)()

	info := Info{NextPaymentDue: l.now() + l.period}
	inserted, err := l.store.Insert(ctx, accountID, info)
	if err != nil {
		return Info{}, fmt.Errorf("failed to enroll: %w", err)
	}
	if !inserted {
		return Info{}, ErrAlreadyEnrolled
	}

	l.logger.Info("Subscription started",
		zap.String("account_id", accountID),
		zap.Uint64("next_payment_due", info.NextPaymentDue))
	return info, nil
}

// Pay records a payment for the current period. The deposit must equal the
// price exactly and the payment must be due. A pending unsubscribe becomes
// immediate once its final period is paid.
func (l *Ledger) Pay(ctx context.Context, accountID string, attached near.Balance) (Info, error) {
	if !attached.Equal(l.price) {
		return Info{}, ErrWrongDeposit
	}

	defer l.lock(accountID)()

	info, err := l.load(ctx, accountID)
	if err != nil {
		return Info{}, err
	}
	if l.now() < info.NextPaymentDue {
		return Info{}, ErrNotDue
	}

	info.NextPaymentDue += l.period
	if info.UnsubscribeState == UnsubscribePendingNextPeriod {
		info.UnsubscribeState = UnsubscribeImmediate
	}

	if err := l.store.Update(ctx, accountID, info); err != nil {
		return Info{}, fmt.Errorf("failed to record payment: %w", err)
	}

	l.logger.Info("Subscription paid",
		zap.String("account_id", accountID),
		zap.Uint64("next_payment_due", info.NextPaymentDue),
		zap.String("unsubscribe_state", string(info.UnsubscribeState)))
	return info, nil
}

// RequestUnsubscribe marks the account for exit. An account whose due date has
// not passed is billed once more before leaving; otherwise it leaves at once.
func (l *Ledger) RequestUnsubscribe(ctx context.Context, accountID string) (Info, error) {
	defer l.lock(accountID)()
	return l.unsubscribe(ctx, accountID)
}

func (l *Ledger) unsubscribe(ctx context.Context, accountID string) (Info, error) {
	info, err := l.load(ctx, accountID)
	if err != nil {
		return Info{}, err
	}
	if info.UnsubscribeState != UnsubscribeNone {
		return Info{}, ErrAlreadyUnsubscribing
	}

	if info.NextPaymentDue >= l.now() {
		info.UnsubscribeState = UnsubscribePendingNextPeriod
	} else {
		info.UnsubscribeState = UnsubscribeImmediate
	}

	if err := l.store.Update(ctx, accountID, info); err != nil {
		return Info{}, fmt.Errorf("failed to unsubscribe: %w", err)
	}

	l.logger.Info("Unsubscribe requested",
		zap.String("account_id", accountID),
		zap.String("unsubscribe_state", string(info.UnsubscribeState)))
	return info, nil
}

// Cancel removes an account that is ready to leave, or otherwise starts the
// unsubscribe flow for it. removed reports whether the entry was deleted.
func (l *Ledger) Cancel(ctx context.Context, accountID string) (removed bool, err error) {
	defer l.lock(accountID)()

	info, err := l.load(ctx, accountID)
	if err != nil {
		return false, err
	}

	if info.UnsubscribeState == UnsubscribeImmediate {
		if _, err := l.store.Delete(ctx, accountID); err != nil {
			return false, fmt.Errorf("failed to remove subscription: %w", err)
		}
		l.logger.Info("Subscription removed", zap.String("account_id", accountID))
		return true, nil
	}

	if _, err := l.unsubscribe(ctx, accountID); err != nil {
		return false, err
	}
	return false, nil
}

// ChargeEligibility decides whether the account should be charged now. It does
// not mutate state. Accounts that have exited are reported as
// EligibilitySkipAndRemove regardless of their due date.
func (l *Ledger) ChargeEligibility(ctx context.Context, accountID string) (Eligibility, error) {
	info, err := l.load(ctx, accountID)
	if err != nil {
		return 0, err
	}
	if info.UnsubscribeState == UnsubscribeImmediate {
		return EligibilitySkipAndRemove, nil
	}
	if l.now() <= info.NextPaymentDue {
		return 0, ErrNotDue
	}
	return EligibilityCharge, nil
}

// RemoveIfImmediate deletes the account when its unsubscribe state is
// Immediate. Removing an account that is already gone is not an error.
func (l *Ledger) RemoveIfImmediate(ctx context.Context, accountID string) (bool, error) {
	defer l.lock(accountID)()

	info, ok, err := l.store.Get(ctx, accountID)
	if err != nil {
		return false, fmt.Errorf("failed to load subscription: %w", err)
	}
	if !ok || info.UnsubscribeState != UnsubscribeImmediate {
		return false, nil
	}
	if _, err := l.store.Delete(ctx, accountID); err != nil {
		return false, fmt.Errorf("failed to remove subscription: %w", err)
	}

	l.logger.Info("Subscription removed", zap.String("account_id", accountID))
	return true, nil
}

// Get returns the subscription of one account.
func (l *Ledger) Get(ctx context.Context, accountID string) (Entry, error) {
	info, err := l.load(ctx, accountID)
	if err != nil {
		return Entry{}, err
	}
	return Entry{AccountID: accountID, Info: info}, nil
}

// List returns subscriptions in enrollment order. A nil limit returns every
// entry from offset on.
func (l *Ledger) List(ctx context.Context, offset int, limit *int) ([]Entry, error) {
	if offset < 0 || (limit != nil && *limit < 0) {
		return nil, fmt.Errorf("offset and limit must not be negative")
	}
	entries, err := l.store.List(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return entries, nil
}
