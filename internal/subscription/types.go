package subscription

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotEnrolled          = errors.New("account is not subscribed")
	ErrAlreadyEnrolled      = errors.New("account is already subscribed")
	ErrAlreadyUnsubscribing = errors.New("account has already unsubscribed")
	ErrNotDue               = errors.New("payment is not due yet")
	ErrWrongDeposit         = errors.New("attached deposit does not match the subscription price")
)

// UnsubscribeState tracks a pending exit from the subscription.
type UnsubscribeState string

const (
	UnsubscribeNone              UnsubscribeState = ""
	UnsubscribePendingNextPeriod UnsubscribeState = "PendingNextPeriod"
	UnsubscribeImmediate         UnsubscribeState = "Immediate"
)

// Valid reports whether s is a known state.
func (s UnsubscribeState) Valid() bool {
	switch s {
	case UnsubscribeNone, UnsubscribePendingNextPeriod, UnsubscribeImmediate:
		return true
	}
	return false
}

// Info is the billing state of one enrolled account. NextPaymentDue is a
// nanosecond timestamp.
type Info struct {
	NextPaymentDue   uint64           `json:"next_payment_due,string"`
	UnsubscribeState UnsubscribeState `json:"unsubscribe_state,omitempty"`
}

// Entry is an account paired with its billing state.
type Entry struct {
	AccountID string `json:"account_id"`
	Info
}

// Eligibility is the outcome of a charge eligibility check.
type Eligibility int

const (
	// EligibilityCharge means a signed charge should be produced.
	EligibilityCharge Eligibility = iota
	// EligibilitySkipAndRemove means the account has exited and must be removed
	// without charging.
	EligibilitySkipAndRemove
)

// Store persists Info by account id. List returns entries in insertion order;
// a nil limit means no limit.
type Store interface {
	Get(ctx context.Context, accountID string) (Info, bool, error)
	Insert(ctx context.Context, accountID string, info Info) (bool, error)
	Update(ctx context.Context, accountID string, info Info) error
	Delete(ctx context.Context, accountID string) (bool, error)
	List(ctx context.Context, offset int, limit *int) ([]Entry, error)
}

// Clock returns the current time in nanoseconds.
type Clock func() uint64

// SystemClock reads the wall clock.
func SystemClock() uint64 {
	return uint64(time.Now().UnixNano())
}
