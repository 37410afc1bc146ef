package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cyphera/cyphera-mpc-billing/internal/billing"
	"github.com/cyphera/cyphera-mpc-billing/internal/logger"
	"github.com/cyphera/cyphera-mpc-billing/internal/middleware"
	"github.com/cyphera/cyphera-mpc-billing/internal/near"
	"github.com/cyphera/cyphera-mpc-billing/internal/signature"
	"github.com/cyphera/cyphera-mpc-billing/internal/subscription"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// ListResponse is a page of list results.
type ListResponse struct {
	Object string      `json:"object"`
	Data   interface{} `json:"data"`
	Offset int         `json:"offset"`
	Limit  *int        `json:"limit,omitempty"`
}

// sendError logs the error with the request's correlation id and sends a
// JSON error response.
func sendError(c *gin.Context, statusCode int, message string, err error) {
	log := middleware.LogWithCorrelationID(c.Request.Context(), logger.Log)
	fields := []zap.Field{
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.Int("status", statusCode),
	}
	if statusCode >= http.StatusInternalServerError {
		log.Error(message, fields...)
	} else {
		log.Debug(message, fields...)
	}
	c.JSON(statusCode, ErrorResponse{Error: message})
}

// errorStatus maps a domain error to its HTTP status code.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, billing.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, subscription.ErrNotEnrolled),
		errors.Is(err, billing.ErrUnknownSignRequest):
		return http.StatusNotFound
	case errors.Is(err, subscription.ErrAlreadyEnrolled),
		errors.Is(err, subscription.ErrAlreadyUnsubscribing),
		errors.Is(err, billing.ErrSignRequestResolved):
		return http.StatusConflict
	case errors.Is(err, subscription.ErrNotDue),
		errors.Is(err, subscription.ErrWrongDeposit),
		errors.Is(err, near.ErrInvalidPublicKey),
		errors.Is(err, near.ErrInvalidBlockAnchor),
		errors.Is(err, billing.ErrInvalidTransfer):
		return http.StatusUnprocessableEntity
	case errors.Is(err, near.ErrInvalidAccountID):
		return http.StatusBadRequest
	case errors.Is(err, billing.ErrRemoteSignerFailure),
		errors.Is(err, signature.ErrMalformedSignatureComponent):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// handleDomainError sends the status code matching err. Internal errors are
// not echoed to the client.
func handleDomainError(c *gin.Context, err error) {
	status := errorStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	sendError(c, status, message, err)
}

// sendSuccess is a helper function that sends a success response
func sendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// sendList sends a page of list results
func sendList(c *gin.Context, items interface{}, offset int, limit *int) {
	c.JSON(http.StatusOK, ListResponse{
		Object: "list",
		Data:   items,
		Offset: offset,
		Limit:  limit,
	})
}
