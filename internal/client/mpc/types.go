package mpc

import (
	"github.com/google/uuid"

	"github.com/cyphera/cyphera-mpc-billing/internal/near"
	"github.com/cyphera/cyphera-mpc-billing/internal/signature"
)

// SignRequest is the argument of the signer contract's sign method. Payload
// is encoded as a JSON array of 32 numbers.
type SignRequest struct {
	Payload    signature.Digest `json:"payload"`
	Path       string           `json:"path"`
	KeyVersion uint32           `json:"key_version"`
}

// AffinePoint is the big-R component: a one-byte prefix followed by the
// 32-byte X coordinate, hex encoded.
type AffinePoint struct {
	AffinePoint string `json:"affine_point"`
}

// Scalar is the S component, hex encoded.
type Scalar struct {
	Scalar string `json:"scalar"`
}

// SignResult is a successful signer response.
type SignResult struct {
	BigR       AffinePoint `json:"big_r"`
	S          Scalar      `json:"s"`
	RecoveryID uint8       `json:"recovery_id"`
}

// SignCall is submitted to the signer gateway. Deposit is the signer's fee.
type SignCall struct {
	RequestID   uuid.UUID    `json:"request_id"`
	ContractID  string       `json:"contract_id"`
	Request     SignRequest  `json:"request"`
	Deposit     near.Balance `json:"deposit"`
	CallbackURL string       `json:"callback_url,omitempty"`
}

// SignOutcome carries either a result or a signer error. It is the body of
// inline gateway responses, signer callbacks and result queue messages.
type SignOutcome struct {
	RequestID uuid.UUID   `json:"request_id"`
	Result    *SignResult `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
}
