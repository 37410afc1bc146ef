package near

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrSerialization is returned when a transaction cannot be moved to or from
// its transport form.
var ErrSerialization = errors.New("transaction serialization failed")

// MarshalTransport encodes tx as JSON for storage across the signing
// suspension. u64 and u128 values are written as strings.
func MarshalTransport(tx *Transaction) (string, error) {
	if err := tx.validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	b, err := json.Marshal(tx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return string(b), nil
}

// UnmarshalTransport decodes a transaction written by MarshalTransport.
func UnmarshalTransport(s string) (*Transaction, error) {
	var tx Transaction
	if err := json.Unmarshal([]byte(s), &tx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	if err := tx.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return &tx, nil
}
