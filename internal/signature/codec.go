package signature

import (
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	// Size is the length of an encoded secp256k1 ledger signature.
	Size = 65

	componentSize = 32
	prefixHexLen  = 2
)

// ErrMalformedSignatureComponent is returned when a signer component is not
// valid hex or does not decode to the expected length.
var ErrMalformedSignatureComponent = errors.New("malformed signature component")

// Secp256k1 is a ledger secp256k1 signature laid out as R | S | prefix.
type Secp256k1 [Size]byte

// R returns the 32-byte R component.
func (s Secp256k1) R() []byte { return s[:componentSize] }

// S returns the 32-byte S component.
func (s Secp256k1) S() []byte { return s[componentSize : 2*componentSize] }

// V returns the trailing prefix byte.
func (s Secp256k1) V() byte { return s[Size-1] }

// Encode assembles the ledger signature from the signer's big-R affine point
// and scalar S. The first byte of bigR is moved to the end of the output:
//
//	bigR = PP || RRRR...(64 hex)   s = SSSS...(64 hex)
//	out  = R(32) || S(32) || PP(1)
func Encode(bigR, s string) (Secp256k1, error) {
	var out Secp256k1

	if len(bigR) < prefixHexLen {
		return out, fmt.Errorf("%w: big_r too short (%d hex chars)", ErrMalformedSignatureComponent, len(bigR))
	}

	prefix, err := decodeExact(bigR[:prefixHexLen], 1, "big_r prefix")
	if err != nil {
		return out, err
	}
	r, err := decodeExact(bigR[prefixHexLen:], componentSize, "big_r coordinate")
	if err != nil {
		return out, err
	}
	sBytes, err := decodeExact(s, componentSize, "s")
	if err != nil {
		return out, err
	}

	copy(out[:componentSize], r)
	copy(out[componentSize:2*componentSize], sBytes)
	out[Size-1] = prefix[0]
	return out, nil
}

func decodeExact(h string, size int, name string) ([]byte, error) {
	b, err := hex.DecodeString(h)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not valid hex: %v", ErrMalformedSignatureComponent, name, err)
	}
	if len(b) != size {
		return nil, fmt.Errorf("%w: %s decodes to %d bytes, want %d", ErrMalformedSignatureComponent, name, len(b), size)
	}
	return b, nil
}
