package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cyphera/cyphera-mpc-billing/internal/auth"
	"github.com/cyphera/cyphera-mpc-billing/internal/billing"
	"github.com/cyphera/cyphera-mpc-billing/internal/constants"
	"github.com/cyphera/cyphera-mpc-billing/internal/near"
)

// OperatorHandler serves the privileged operator endpoints.
type OperatorHandler struct {
	orchestrator *billing.Orchestrator
	waitTimeout  time.Duration
}

// NewOperatorHandler creates an operator handler. Charge and transfer calls
// wait up to waitTimeout for the signed transaction before answering 202.
func NewOperatorHandler(orchestrator *billing.Orchestrator, waitTimeout time.Duration) *OperatorHandler {
	return &OperatorHandler{
		orchestrator: orchestrator,
		waitTimeout:  waitTimeout,
	}
}

// SignResponse is the result of a charge or transfer. SignedTransaction is
// base64 encoded.
type SignResponse struct {
	Status            string `json:"status"`
	AccountID         string `json:"account_id"`
	RequestID         string `json:"request_id,omitempty"`
	SignedTransaction []byte `json:"signed_transaction,omitempty"`
}

// TransferRequest is the body of a delegated transfer.
type TransferRequest struct {
	billing.TransactionInput
	billing.TransferInput
}

// CancelResponse reports whether the account was removed or only marked to
// leave.
type CancelResponse struct {
	AccountID string `json:"account_id"`
	Removed   bool   `json:"removed"`
}

func accountParam(c *gin.Context) (string, bool) {
	accountID := c.Param("account_id")
	if err := near.ValidateAccountID(accountID); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid account ID format", err)
		return "", false
	}
	return accountID, true
}

// ChargeSubscription godoc
// @Summary Charge a subscription
// @Description Builds the fee-collection transaction for the account and has it signed by the remote signer.
// @Tags operator
// @Accept json
// @Produce json
// @Param account_id path string true "Account ID"
// @Param body body billing.ChargeInput true "Transaction input"
// @Success 200 {object} SignResponse "Signed or skipped"
// @Success 202 {object} SignResponse "Still pending"
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /operator/subscriptions/{account_id}/charge [post]
func (h *OperatorHandler) ChargeSubscription(c *gin.Context) {
	accountID, ok := accountParam(c)
	if !ok {
		return
	}

	var req billing.ChargeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	pending, err := h.orchestrator.ChargeSubscription(c.Request.Context(), auth.CallerID(c), accountID, req)
	if err != nil {
		handleDomainError(c, err)
		return
	}
	h.respond(c, pending)
}

// DelegateTransfer godoc
// @Summary Sign a delegated token transfer
// @Description Builds an ft_transfer_call placing a bet on behalf of the account and has it signed.
// @Tags operator
// @Accept json
// @Produce json
// @Param account_id path string true "Account ID"
// @Param body body TransferRequest true "Transaction and transfer input"
// @Success 200 {object} SignResponse
// @Success 202 {object} SignResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /operator/subscriptions/{account_id}/transfer [post]
func (h *OperatorHandler) DelegateTransfer(c *gin.Context) {
	accountID, ok := accountParam(c)
	if !ok {
		return
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	pending, err := h.orchestrator.DelegateTransfer(c.Request.Context(), auth.CallerID(c), accountID, req.TransactionInput, req.TransferInput)
	if err != nil {
		handleDomainError(c, err)
		return
	}
	h.respond(c, pending)
}

// respond waits for the signed transaction within the handler's wait window.
func (h *OperatorHandler) respond(c *gin.Context, pending *billing.Pending) {
	if pending.Skipped() {
		sendSuccess(c, http.StatusOK, SignResponse{
			Status:    constants.SignStatusSkipped,
			AccountID: pending.AccountID,
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.waitTimeout)
	defer cancel()

	signedTx, err := pending.Wait(ctx)
	switch {
	case err == nil:
		sendSuccess(c, http.StatusOK, SignResponse{
			Status:            constants.SignStatusSigned,
			AccountID:         pending.AccountID,
			RequestID:         pending.RequestID.String(),
			SignedTransaction: signedTx,
		})
	case ctx.Err() != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)):
		// the outcome is read back through GET /sign-requests/:id from here on
		h.orchestrator.Release(pending.RequestID)
		sendSuccess(c, http.StatusAccepted, SignResponse{
			Status:    constants.SignStatusPending,
			AccountID: pending.AccountID,
			RequestID: pending.RequestID.String(),
		})
	default:
		handleDomainError(c, err)
	}
}

// CancelSubscription godoc
// @Summary Cancel a subscription
// @Description Removes an account that is ready to leave, otherwise marks it to leave.
// @Tags operator
// @Produce json
// @Param account_id path string true "Account ID"
// @Success 200 {object} CancelResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /operator/subscriptions/{account_id}/cancel [post]
func (h *OperatorHandler) CancelSubscription(c *gin.Context) {
	accountID, ok := accountParam(c)
	if !ok {
		return
	}

	removed, err := h.orchestrator.CancelSubscription(c.Request.Context(), auth.CallerID(c), accountID)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	sendSuccess(c, http.StatusOK, CancelResponse{AccountID: accountID, Removed: removed})
}

// GetSignRequest godoc
// @Summary Get a sign request
// @Description Returns the state of a sign request and, once signed, the signed transaction.
// @Tags operator
// @Produce json
// @Param request_id path string true "Sign request ID"
// @Success 200 {object} billing.Continuation
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security ApiKeyAuth
// @Router /operator/sign-requests/{request_id} [get]
func (h *OperatorHandler) GetSignRequest(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("request_id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request ID format", err)
		return
	}

	cont, err := h.orchestrator.SignRequestStatus(c.Request.Context(), auth.CallerID(c), requestID)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	sendSuccess(c, http.StatusOK, cont)
}
