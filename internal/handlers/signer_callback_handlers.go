package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cyphera/cyphera-mpc-billing/internal/billing"
	"github.com/cyphera/cyphera-mpc-billing/internal/client/mpc"
	"github.com/cyphera/cyphera-mpc-billing/internal/constants"
)

// SignerCallbackHandler receives outcomes the signer delivers after
// accepting a request.
type SignerCallbackHandler struct {
	orchestrator *billing.Orchestrator
}

// NewSignerCallbackHandler creates a signer callback handler
func NewSignerCallbackHandler(orchestrator *billing.Orchestrator) *SignerCallbackHandler {
	return &SignerCallbackHandler{orchestrator: orchestrator}
}

// CallbackResponse acknowledges a signer callback.
type CallbackResponse struct {
	RequestID uuid.UUID `json:"request_id"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
}

// HandleSignOutcome godoc
// @Summary Deliver a sign outcome
// @Description Applies the signer's result or error to a pending sign request.
// @Tags signer
// @Accept json
// @Produce json
// @Param request_id path string true "Sign request ID"
// @Param body body mpc.SignOutcome true "Outcome"
// @Success 200 {object} CallbackResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /signer/callbacks/{request_id} [post]
func (h *SignerCallbackHandler) HandleSignOutcome(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("request_id"))
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request ID format", err)
		return
	}

	var outcome mpc.SignOutcome
	if err := c.ShouldBindJSON(&outcome); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if outcome.RequestID != uuid.Nil && outcome.RequestID != requestID {
		sendError(c, http.StatusBadRequest, "Request ID does not match the callback URL", nil)
		return
	}

	result, signErr := outcome.Unwrap()
	_, err = h.orchestrator.Resume(c.Request.Context(), requestID, result, signErr)
	switch {
	case err == nil:
		sendSuccess(c, http.StatusOK, CallbackResponse{RequestID: requestID, Status: constants.SignStatusSigned})
	case errors.Is(err, billing.ErrUnknownSignRequest), errors.Is(err, billing.ErrSignRequestResolved):
		handleDomainError(c, err)
	case billing.IsTerminal(err):
		// The outcome was recorded as a failure.
		sendSuccess(c, http.StatusOK, CallbackResponse{
			RequestID: requestID,
			Status:    constants.SignStatusFailed,
			Error:     err.Error(),
		})
	default:
		handleDomainError(c, err)
	}
}
