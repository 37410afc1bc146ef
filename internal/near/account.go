package near

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidAccountID is returned for strings that are not ledger account ids.
var ErrInvalidAccountID = errors.New("invalid account id")

const (
	minAccountIDLen = 2
	maxAccountIDLen = 64
)

var accountIDPattern = regexp.MustCompile(`^(([a-z\d]+[\-_])*[a-z\d]+\.)*([a-z\d]+[\-_])*[a-z\d]+$`)

// ValidateAccountID checks id against the ledger's account naming rules.
func ValidateAccountID(id string) error {
	if len(id) < minAccountIDLen || len(id) > maxAccountIDLen {
		return fmt.Errorf("%w: %q must be %d-%d characters", ErrInvalidAccountID, id, minAccountIDLen, maxAccountIDLen)
	}
	if !accountIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidAccountID, id)
	}
	return nil
}
