package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cyphera/cyphera-mpc-billing/internal/client/mpc"
	"github.com/cyphera/cyphera-mpc-billing/internal/constants"
	"github.com/cyphera/cyphera-mpc-billing/internal/near"
	"github.com/cyphera/cyphera-mpc-billing/internal/signature"
	"github.com/cyphera/cyphera-mpc-billing/internal/subscription"
)

//go:generate mockgen -destination=../mocks/mock_signer.go -package=mocks github.com/cyphera/cyphera-mpc-billing/internal/billing Signer

// Signer submits a sign call to the remote threshold signer. A nil result
// with a nil error means the outcome will arrive later through Resume.
type Signer interface {
	Sign(ctx context.Context, call mpc.SignCall) (*mpc.SignResult, error)
}

// keyVersion selects the signer's key family. Only one is used.
const keyVersion = 0

// Config holds the static parameters of the orchestrator.
type Config struct {
	// OperatorAccountID is the only caller allowed to charge, cancel or transfer.
	OperatorAccountID string
	// ContractAccountID receives fee-collection calls.
	ContractAccountID string
	// TokenContractID receives delegated transfer calls.
	TokenContractID string
	// TransferReceiverID is the receiver_id of delegated transfers.
	TransferReceiverID string
	// SignTimeout bounds one submission to the signer.
	SignTimeout time.Duration
}

// Orchestrator runs the two-phase delegated signing protocol. Phase 1 checks
// the ledger, builds and hashes the transaction, stores its transport form and
// dispatches a sign call. Phase 2 (Resume) applies the signer's outcome.
//
// The two phases are not atomic: ledger cleanup done in Phase 1 is kept even
// when Phase 2 fails.
type Orchestrator struct {
	ledger        *subscription.Ledger
	signer        Signer
	continuations ContinuationStore
	pending       *pendingRegistry
	cfg           Config
	logger        *zap.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(ledger *subscription.Ledger, signer Signer, continuations ContinuationStore, cfg Config, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SignTimeout == 0 {
		cfg.SignTimeout = time.Minute
	}
	return &Orchestrator{
		ledger:        ledger,
		signer:        signer,
		continuations: continuations,
		pending:       newPendingRegistry(),
		cfg:           cfg,
		logger:        logger,
	}
}

func (o *Orchestrator) authorize(caller string) error {
	if caller == "" || caller != o.cfg.OperatorAccountID {
		return ErrUnauthorized
	}
	return nil
}

// ChargeSubscription starts the fee-collection flow for accountID. Accounts
// that have unsubscribed are removed and a skipped handle is returned without
// contacting the signer.
func (o *Orchestrator) ChargeSubscription(ctx context.Context, caller, accountID string, in ChargeInput) (*Pending, error) {
	if err := o.authorize(caller); err != nil {
		return nil, err
	}

	eligibility, err := o.ledger.ChargeEligibility(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if eligibility == subscription.EligibilitySkipAndRemove {
		if _, err := o.ledger.RemoveIfImmediate(ctx, accountID); err != nil {
			return nil, err
		}
		skippedChargesCounter.Inc()
		o.logger.Info("Skipped charge for unsubscribed account", zap.String("account_id", accountID))
		return skippedCharge(accountID), nil
	}

	action := feeCollectionAction(o.ledger.Price())
	return o.dispatch(ctx, accountID, FlowFeeCollection, in.TransactionInput, o.cfg.ContractAccountID, action, in.SignerDeposit)
}

// DelegateTransfer starts the delegated-transfer flow for an enrolled account.
// It does not depend on the account's due date.
func (o *Orchestrator) DelegateTransfer(ctx context.Context, caller, accountID string, in TransactionInput, transfer TransferInput) (*Pending, error) {
	if err := o.authorize(caller); err != nil {
		return nil, err
	}
	if _, err := o.ledger.Get(ctx, accountID); err != nil {
		return nil, err
	}
	if err := transfer.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTransfer, err)
	}
	if o.cfg.TokenContractID == "" || o.cfg.TransferReceiverID == "" {
		return nil, fmt.Errorf("%w: token contract and transfer receiver are not configured", ErrInvalidTransfer)
	}

	action, err := delegateTransferAction(o.cfg.TransferReceiverID, transfer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailure, err)
	}
	return o.dispatch(ctx, accountID, FlowDelegateTransfer, in, o.cfg.TokenContractID, action, signerTransferFee)
}

// CancelSubscription removes an account that is ready to leave, or starts
// its unsubscribe otherwise.
func (o *Orchestrator) CancelSubscription(ctx context.Context, caller, accountID string) (bool, error) {
	if err := o.authorize(caller); err != nil {
		return false, err
	}
	return o.ledger.Cancel(ctx, accountID)
}

func (o *Orchestrator) dispatch(ctx context.Context, accountID string, flow Flow, in TransactionInput, receiverID string, action near.Action, deposit near.Balance) (*Pending, error) {
	tx, err := near.BuildTransaction(accountID, in.PublicKey, in.Nonce, receiverID, in.BlockHash, []near.Action{action})
	if err != nil {
		return nil, err
	}
	digest, err := tx.Digest()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailure, err)
	}
	serialized, err := near.MarshalTransport(tx)
	if err != nil {
		return nil, err
	}

	requestID := uuid.New()
	log := o.logger.With(
		zap.String("request_id", requestID.String()),
		zap.String("account_id", accountID),
		zap.String("flow", string(flow)),
	)

	if err := o.continuations.Save(ctx, Continuation{
		RequestID:    requestID,
		AccountID:    accountID,
		Flow:         flow,
		SerializedTx: serialized,
	}); err != nil {
		return nil, fmt.Errorf("failed to save sign continuation: %w", err)
	}

	pending := newPending(requestID, accountID, flow)
	o.pending.add(pending)
	inFlightGauge.Inc()
	signRequestsCounter.WithLabelValues(string(flow)).Inc()

	call := mpc.SignCall{
		RequestID: requestID,
		Request: mpc.SignRequest{
			Payload:    digest,
			Path:       accountID,
			KeyVersion: keyVersion,
		},
		Deposit: deposit,
	}
	go o.requestSignature(call, log)

	log.Info("Sign request dispatched", zap.Uint64("nonce", in.Nonce))
	return pending, nil
}

// requestSignature runs outside the caller's request so the sign call is not
// cut short when the caller stops waiting.
func (o *Orchestrator) requestSignature(call mpc.SignCall, log *zap.Logger) {
	signCtx, cancel := context.WithTimeout(context.Background(), o.cfg.SignTimeout)
	result, err := o.signer.Sign(signCtx, call)
	cancel()

	if err == nil && result == nil {
		log.Debug("Signer will deliver the outcome asynchronously")
		return
	}
	if _, err := o.Resume(context.Background(), call.RequestID, result, err); err != nil {
		log.Warn("Sign request failed", zap.Error(err))
	}
}

// Resume is Phase 2. It applies the signer's outcome to the stored
// continuation and returns the signed transaction bytes. Every error is
// terminal for the request.
func (o *Orchestrator) Resume(ctx context.Context, requestID uuid.UUID, result *mpc.SignResult, signErr error) ([]byte, error) {
	cont, err := o.continuations.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if cont.Status != constants.SignStatusPending {
		// resolved by another replica
		o.Release(requestID)
		return nil, ErrSignRequestResolved
	}

	log := o.logger.With(
		zap.String("request_id", requestID.String()),
		zap.String("account_id", cont.AccountID),
		zap.String("flow", string(cont.Flow)),
	)

	signedTx, err := assemble(cont.SerializedTx, result, signErr)
	if err != nil {
		if failErr := o.continuations.Fail(ctx, requestID, err.Error()); failErr != nil {
			if errors.Is(failErr, ErrSignRequestResolved) {
				o.Release(requestID)
				return nil, failErr
			}
			log.Error("Failed to record sign failure", zap.Error(failErr))
		}
		o.finish(cont, nil, err)
		log.Warn("Sign request failed", zap.Error(err))
		return nil, err
	}

	if err := o.continuations.Complete(ctx, requestID, signedTx); err != nil {
		if errors.Is(err, ErrSignRequestResolved) {
			o.Release(requestID)
			return nil, err
		}
		return nil, fmt.Errorf("failed to record signed transaction: %w", err)
	}
	o.finish(cont, signedTx, nil)

	log.Info("Sign request completed", zap.Int("signed_tx_bytes", len(signedTx)))
	return signedTx, nil
}

func (o *Orchestrator) finish(cont Continuation, signedTx []byte, err error) {
	outcome := constants.SignStatusSigned
	if err != nil {
		outcome = constants.SignStatusFailed
	}
	signOutcomesCounter.WithLabelValues(string(cont.Flow), outcome).Inc()
	if o.pending.resolve(cont.RequestID, signedTx, err) {
		inFlightGauge.Dec()
	}
}

// Release stops tracking a request in this process without resolving it. It
// is called once nobody here waits on the outcome any more; the stored
// continuation remains the source of truth.
func (o *Orchestrator) Release(requestID uuid.UUID) {
	if o.pending.evict(requestID) {
		inFlightGauge.Dec()
	}
}

// assemble turns a signer outcome and a transport-form transaction into
// signed transaction bytes.
func assemble(serializedTx string, result *mpc.SignResult, signErr error) ([]byte, error) {
	if signErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteSignerFailure, signErr)
	}
	if result == nil {
		return nil, fmt.Errorf("%w: empty result", ErrRemoteSignerFailure)
	}

	sig, err := signature.Encode(result.BigR.AffinePoint, result.S.Scalar)
	if err != nil {
		return nil, err
	}

	tx, err := near.UnmarshalTransport(serializedTx)
	if err != nil {
		return nil, err
	}
	signedTx, err := tx.AttachSignature(sig).Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailure, err)
	}
	return signedTx, nil
}

// SignRequestStatus returns the stored state of a sign request.
func (o *Orchestrator) SignRequestStatus(ctx context.Context, caller string, requestID uuid.UUID) (Continuation, error) {
	if err := o.authorize(caller); err != nil {
		return Continuation{}, err
	}
	return o.continuations.Get(ctx, requestID)
}

// InFlight returns the number of requests this process is waiting on.
func (o *Orchestrator) InFlight() int {
	return o.pending.size()
}
