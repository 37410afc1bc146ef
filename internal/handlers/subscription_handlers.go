package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cyphera/cyphera-mpc-billing/internal/auth"
	"github.com/cyphera/cyphera-mpc-billing/internal/helpers"
	"github.com/cyphera/cyphera-mpc-billing/internal/near"
	"github.com/cyphera/cyphera-mpc-billing/internal/subscription"
)

// SubscriptionHandler serves the self-service and read-only subscription
// endpoints.
type SubscriptionHandler struct {
	ledger *subscription.Ledger
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(ledger *subscription.Ledger) *SubscriptionHandler {
	return &SubscriptionHandler{ledger: ledger}
}

// PayRequest is the body of a subscription payment. AttachedAmount is in
// yoctoNEAR.
type PayRequest struct {
	AttachedAmount near.Balance `json:"attached_amount"`
}

// Enroll godoc
// @Summary Start a subscription
// @Description Enrolls the calling account. The first payment is due one period from now.
// @Tags subscriptions
// @Produce json
// @Param X-Account-ID header string true "Subscriber account"
// @Success 201 {object} subscription.Entry
// @Failure 409 {object} ErrorResponse
// @Router /subscriptions/me [post]
func (h *SubscriptionHandler) Enroll(c *gin.Context) {
	accountID := auth.CallerID(c)

	info, err := h.ledger.Enroll(c.Request.Context(), accountID)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	sendSuccess(c, http.StatusCreated, subscription.Entry{AccountID: accountID, Info: info})
}

// Pay godoc
// @Summary Pay for the current period
// @Description Records a payment of exactly the subscription price once it is due.
// @Tags subscriptions
// @Accept json
// @Produce json
// @Param X-Account-ID header string true "Subscriber account"
// @Param body body PayRequest true "Attached amount"
// @Success 200 {object} subscription.Entry
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /subscriptions/me/pay [post]
func (h *SubscriptionHandler) Pay(c *gin.Context) {
	accountID := auth.CallerID(c)

	var req PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	info, err := h.ledger.Pay(c.Request.Context(), accountID, req.AttachedAmount)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	sendSuccess(c, http.StatusOK, subscription.Entry{AccountID: accountID, Info: info})
}

// Unsubscribe godoc
// @Summary Leave the subscription
// @Description Marks the calling account to leave after its next payment, or immediately when it is past due.
// @Tags subscriptions
// @Produce json
// @Param X-Account-ID header string true "Subscriber account"
// @Success 200 {object} subscription.Entry
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /subscriptions/me/unsubscribe [post]
func (h *SubscriptionHandler) Unsubscribe(c *gin.Context) {
	accountID := auth.CallerID(c)

	info, err := h.ledger.RequestUnsubscribe(c.Request.Context(), accountID)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	sendSuccess(c, http.StatusOK, subscription.Entry{AccountID: accountID, Info: info})
}

// GetSubscription godoc
// @Summary Get a subscription
// @Tags subscriptions
// @Produce json
// @Param account_id path string true "Account ID"
// @Success 200 {object} subscription.Entry
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /subscriptions/{account_id} [get]
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	accountID := c.Param("account_id")
	if err := near.ValidateAccountID(accountID); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid account ID format", err)
		return
	}

	entry, err := h.ledger.Get(c.Request.Context(), accountID)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	sendSuccess(c, http.StatusOK, entry)
}

// ListSubscriptions godoc
// @Summary List subscriptions
// @Description Lists subscriptions in enrollment order
// @Tags subscriptions
// @Produce json
// @Param offset query int false "Entries to skip"
// @Param limit query int false "Page size, at most 100"
// @Success 200 {object} ListResponse
// @Failure 400 {object} ErrorResponse
// @Router /subscriptions [get]
func (h *SubscriptionHandler) ListSubscriptions(c *gin.Context) {
	params, err := helpers.ParsePaginationParams(c)
	if err != nil {
		sendError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	entries, err := h.ledger.List(c.Request.Context(), params.Offset, params.Limit)
	if err != nil {
		handleDomainError(c, err)
		return
	}

	sendList(c, entries, params.Offset, params.Limit)
}
