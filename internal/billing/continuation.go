package billing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/cyphera/cyphera-mpc-billing/internal/constants"
	"github.com/cyphera/cyphera-mpc-billing/internal/db"
)

// Continuation is the state a sign request carries across the signer call.
type Continuation struct {
	RequestID     uuid.UUID `json:"request_id"`
	AccountID     string    `json:"account_id"`
	Flow          Flow      `json:"flow"`
	SerializedTx  string    `json:"-"`
	Status        string    `json:"status"`
	SignedTx      []byte    `json:"signed_transaction,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ContinuationStore persists continuations by request id. Complete and Fail
// only apply to pending continuations and return ErrSignRequestResolved
// otherwise.
type ContinuationStore interface {
	Save(ctx context.Context, c Continuation) error
	Get(ctx context.Context, requestID uuid.UUID) (Continuation, error)
	Complete(ctx context.Context, requestID uuid.UUID, signedTx []byte) error
	Fail(ctx context.Context, requestID uuid.UUID, reason string) error
}

// MemoryContinuationStore keeps continuations in process memory.
type MemoryContinuationStore struct {
	mu    sync.Mutex
	items map[uuid.UUID]Continuation
	now   func() time.Time
}

func NewMemoryContinuationStore() *MemoryContinuationStore {
	return &MemoryContinuationStore{items: make(map[uuid.UUID]Continuation), now: time.Now}
}

func (s *MemoryContinuationStore) Save(_ context.Context, c Continuation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	c.Status = constants.SignStatusPending
	c.CreatedAt, c.UpdatedAt = now, now
	s.items[c.RequestID] = c
	return nil
}

func (s *MemoryContinuationStore) Get(_ context.Context, requestID uuid.UUID) (Continuation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[requestID]
	if !ok {
		return Continuation{}, ErrUnknownSignRequest
	}
	return c, nil
}

func (s *MemoryContinuationStore) Complete(_ context.Context, requestID uuid.UUID, signedTx []byte) error {
	return s.transition(requestID, func(c *Continuation) {
		c.Status = constants.SignStatusSigned
		c.SignedTx = signedTx
	})
}

func (s *MemoryContinuationStore) Fail(_ context.Context, requestID uuid.UUID, reason string) error {
	return s.transition(requestID, func(c *Continuation) {
		c.Status = constants.SignStatusFailed
		c.FailureReason = reason
	})
}

func (s *MemoryContinuationStore) transition(requestID uuid.UUID, apply func(*Continuation)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.items[requestID]
	if !ok {
		return ErrUnknownSignRequest
	}
	if c.Status != constants.SignStatusPending {
		return ErrSignRequestResolved
	}
	apply(&c)
	c.UpdatedAt = s.now()
	s.items[requestID] = c
	return nil
}

// PostgresContinuationStore is a ContinuationStore over the
// sign_continuations table.
type PostgresContinuationStore struct {
	queries db.Querier
}

func NewPostgresContinuationStore(queries db.Querier) *PostgresContinuationStore {
	return &PostgresContinuationStore{queries: queries}
}

func (s *PostgresContinuationStore) Save(ctx context.Context, c Continuation) error {
	_, err := s.queries.CreateSignContinuation(ctx, db.CreateSignContinuationParams{
		RequestID:    c.RequestID,
		AccountID:    c.AccountID,
		Flow:         string(c.Flow),
		SerializedTx: c.SerializedTx,
	})
	return err
}

func (s *PostgresContinuationStore) Get(ctx context.Context, requestID uuid.UUID) (Continuation, error) {
	row, err := s.queries.GetSignContinuation(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Continuation{}, ErrUnknownSignRequest
		}
		return Continuation{}, err
	}
	return continuationFromRow(row), nil
}

func (s *PostgresContinuationStore) Complete(ctx context.Context, requestID uuid.UUID, signedTx []byte) error {
	_, err := s.queries.CompleteSignContinuation(ctx, db.CompleteSignContinuationParams{
		RequestID: requestID,
		SignedTx:  signedTx,
	})
	return s.transitionError(ctx, requestID, err)
}

func (s *PostgresContinuationStore) Fail(ctx context.Context, requestID uuid.UUID, reason string) error {
	_, err := s.queries.FailSignContinuation(ctx, db.FailSignContinuationParams{
		RequestID:     requestID,
		FailureReason: pgtype.Text{String: reason, Valid: true},
	})
	return s.transitionError(ctx, requestID, err)
}

// transitionError tells a missing row apart from one that is no longer pending.
func (s *PostgresContinuationStore) transitionError(ctx context.Context, requestID uuid.UUID, err error) error {
	if err == nil || !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if _, getErr := s.Get(ctx, requestID); getErr != nil {
		return getErr
	}
	return ErrSignRequestResolved
}

func continuationFromRow(row db.SignContinuation) Continuation {
	return Continuation{
		RequestID:     row.RequestID,
		AccountID:     row.AccountID,
		Flow:          Flow(row.Flow),
		SerializedTx:  row.SerializedTx,
		Status:        row.Status,
		SignedTx:      row.SignedTx,
		FailureReason: row.FailureReason.String,
		CreatedAt:     row.CreatedAt.Time,
		UpdatedAt:     row.UpdatedAt.Time,
	}
}
