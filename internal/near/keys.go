package near

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/base58"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

var (
	// ErrInvalidPublicKey is returned when a public key string cannot be parsed.
	ErrInvalidPublicKey = errors.New("invalid public key")
	// ErrInvalidBlockAnchor is returned when a block hash string cannot be parsed.
	ErrInvalidBlockAnchor = errors.New("invalid block anchor")
)

// KeyType is the Borsh discriminant of a ledger key or signature.
type KeyType uint8

const (
	KeyTypeED25519   KeyType = 0
	KeyTypeSECP256K1 KeyType = 1
)

const (
	ed25519KeyLen   = 32
	secp256k1KeyLen = 64
	blockHashLen    = 32
)

func (k KeyType) String() string {
	switch k {
	case KeyTypeED25519:
		return "ed25519"
	case KeyTypeSECP256K1:
		return "secp256k1"
	default:
		return fmt.Sprintf("keytype(%d)", uint8(k))
	}
}

// PublicKey is a ledger access key. Secp256k1 keys are stored as the 64-byte
// uncompressed point without the 0x04 marker.
type PublicKey struct {
	Type KeyType
	Data []byte
}

// ParsePublicKey parses "ed25519:<base58>" or "secp256k1:<base58>". A string
// without a curve prefix is treated as ed25519.
func ParsePublicKey(s string) (PublicKey, error) {
	curve, encoded := "ed25519", s
	if i := strings.IndexByte(s, ':'); i >= 0 {
		curve, encoded = s[:i], s[i+1:]
	}

	data := base58.Decode(encoded)
	if len(data) == 0 {
		return PublicKey{}, fmt.Errorf("%w: %q is not base58", ErrInvalidPublicKey, s)
	}

	switch curve {
	case "ed25519":
		if len(data) != ed25519KeyLen {
			return PublicKey{}, fmt.Errorf("%w: ed25519 key has %d bytes", ErrInvalidPublicKey, len(data))
		}
		return PublicKey{Type: KeyTypeED25519, Data: data}, nil
	case "secp256k1":
		if len(data) != secp256k1KeyLen {
			return PublicKey{}, fmt.Errorf("%w: secp256k1 key has %d bytes", ErrInvalidPublicKey, len(data))
		}
		if _, err := secp256k1.ParsePubKey(append([]byte{0x04}, data...)); err != nil {
			return PublicKey{}, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
		}
		return PublicKey{Type: KeyTypeSECP256K1, Data: data}, nil
	default:
		return PublicKey{}, fmt.Errorf("%w: unknown curve %q", ErrInvalidPublicKey, curve)
	}
}

func (k PublicKey) String() string {
	return k.Type.String() + ":" + base58.Encode(k.Data)
}

func (k PublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *PublicKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePublicKey(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// BlockHash anchors a transaction to a recent block.
type BlockHash [blockHashLen]byte

// ParseBlockHash parses a base58 block hash.
func ParseBlockHash(s string) (BlockHash, error) {
	var h BlockHash
	data := base58.Decode(s)
	if len(data) != blockHashLen {
		return h, fmt.Errorf("%w: %q does not decode to %d bytes", ErrInvalidBlockAnchor, s, blockHashLen)
	}
	copy(h[:], data)
	return h, nil
}

func (h BlockHash) String() string {
	return base58.Encode(h[:])
}

func (h BlockHash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *BlockHash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseBlockHash(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
