package signature

import "crypto/sha256"

// DigestSize is the length of a signing digest in bytes.
const DigestSize = sha256.Size

// Digest is the 32-byte message digest handed to the remote signer.
type Digest [DigestSize]byte

// HashPayload returns the SHA-256 digest of payload. The remote signer signs
// exactly this value, so both sides must agree on the hash.
func HashPayload(payload []byte) Digest {
	return sha256.Sum256(payload)
}
