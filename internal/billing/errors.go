package billing

import (
	"errors"

	"github.com/cyphera/cyphera-mpc-billing/internal/near"
	"github.com/cyphera/cyphera-mpc-billing/internal/signature"
)

var (
	ErrUnauthorized        = errors.New("caller is not the subscription operator")
	ErrRemoteSignerFailure = errors.New("remote signer failed")
	ErrUnknownSignRequest  = errors.New("unknown sign request")
	ErrSignRequestResolved = errors.New("sign request already resolved")
	ErrInvalidTransfer     = errors.New("invalid transfer")

	// ErrSerializationFailure means a transaction could not be moved to or
	// from its transport form.
	ErrSerializationFailure = near.ErrSerialization
)

// IsTerminal reports whether a Resume error is final for its sign request.
// Redelivering the same outcome cannot succeed after a terminal error.
func IsTerminal(err error) bool {
	for _, target := range []error{
		ErrRemoteSignerFailure,
		ErrSerializationFailure,
		signature.ErrMalformedSignatureComponent,
		ErrUnknownSignRequest,
		ErrSignRequestResolved,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
