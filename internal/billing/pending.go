package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v2"
)

// Pending is the handle returned by Phase 1. It resolves when the signer's
// outcome has been applied, or immediately for skipped charges.
type Pending struct {
	RequestID uuid.UUID
	AccountID string
	Flow      Flow

	skipped  bool
	done     chan struct{}
	signedTx []byte
	err      error
}

func newPending(requestID uuid.UUID, accountID string, flow Flow) *Pending {
	return &Pending{
		RequestID: requestID,
		AccountID: accountID,
		Flow:      flow,
		done:      make(chan struct{}),
	}
}

// skippedCharge is the no-op result for an account that left the subscription.
func skippedCharge(accountID string) *Pending {
	p := newPending(uuid.Nil, accountID, FlowFeeCollection)
	p.skipped = true
	close(p.done)
	return p
}

// Skipped reports whether no sign request was issued.
func (p *Pending) Skipped() bool { return p.skipped }

// Done is closed once the outcome is known.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the outcome is known or ctx ends. A skipped charge
// returns (nil, nil).
func (p *Pending) Wait(ctx context.Context) ([]byte, error) {
	select {
	case <-p.done:
		return p.signedTx, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pending) resolve(signedTx []byte, err error) {
	p.signedTx = signedTx
	p.err = err
	close(p.done)
}

// pendingRegistry tracks in-flight requests of this process by request id.
type pendingRegistry struct {
	m *xsync.MapOf[string, *Pending]
}

func newPendingRegistry() *pendingRegistry {
	return &pendingRegistry{m: xsync.NewMapOf[*Pending]()}
}

func (r *pendingRegistry) add(p *Pending) {
	r.m.Store(p.RequestID.String(), p)
}

// resolve delivers the outcome to the waiting handle, if this process has one.
func (r *pendingRegistry) resolve(requestID uuid.UUID, signedTx []byte, err error) bool {
	p, ok := r.m.LoadAndDelete(requestID.String())
	if ok {
		p.resolve(signedTx, err)
	}
	return ok
}

// evict drops the handle without resolving it. Waiters still holding it see
// their own context end.
func (r *pendingRegistry) evict(requestID uuid.UUID) bool {
	_, ok := r.m.LoadAndDelete(requestID.String())
	return ok
}

func (r *pendingRegistry) size() int {
	return r.m.Size()
}
