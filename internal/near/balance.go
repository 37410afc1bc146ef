package near

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// YoctoPerNear is the exponent between NEAR and yoctoNEAR.
const YoctoPerNear = 24

// Balance is an amount of yoctoNEAR. It is a u128 on the ledger and is carried
// as a decimal string in JSON so large values survive any JSON number parser.
type Balance struct {
	v uint256.Int
}

// NewBalance returns a Balance of n yoctoNEAR.
func NewBalance(n uint64) Balance {
	var b Balance
	b.v.SetUint64(n)
	return b
}

// ParseBalance parses a yoctoNEAR amount written as a base-10 integer.
func ParseBalance(s string) (Balance, error) {
	var b Balance
	v, err := uint256.FromDecimal(strings.TrimSpace(s))
	if err != nil {
		return b, fmt.Errorf("invalid balance %q: %w", s, err)
	}
	if v.BitLen() > 128 {
		return b, fmt.Errorf("invalid balance %q: exceeds u128", s)
	}
	b.v = *v
	return b, nil
}

// ParseNearAmount converts a decimal NEAR amount (e.g. "10" or "0.5") to yoctoNEAR.
func ParseNearAmount(s string) (Balance, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Balance{}, fmt.Errorf("invalid NEAR amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return Balance{}, fmt.Errorf("invalid NEAR amount %q: negative", s)
	}
	yocto := d.Shift(YoctoPerNear)
	if !yocto.Equal(yocto.Truncate(0)) {
		return Balance{}, fmt.Errorf("invalid NEAR amount %q: more than %d decimals", s, YoctoPerNear)
	}
	return ParseBalance(yocto.BigInt().String())
}

// Equal reports whether b and o hold the same amount.
func (b Balance) Equal(o Balance) bool {
	return b.v.Eq(&o.v)
}

// IsZero reports whether the amount is zero.
func (b Balance) IsZero() bool {
	return b.v.IsZero()
}

func (b Balance) String() string {
	return b.v.Dec()
}

func (b Balance) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b *Balance) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("balance must be a JSON string: %w", err)
	}
	parsed, err := ParseBalance(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
