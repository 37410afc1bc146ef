package near

import (
	"errors"
	"fmt"

	"github.com/near/borsh-go"

	"github.com/cyphera/cyphera-mpc-billing/internal/signature"
)

var errNoActions = errors.New("transaction has no actions")

// Transaction is an unsigned ledger transaction. Its JSON form is the
// transport representation carried across the signing suspension point;
// SigningPayload is the canonical Borsh form that gets hashed.
type Transaction struct {
	SignerID        string    `json:"signer_id"`
	SignerPublicKey PublicKey `json:"signer_public_key"`
	Nonce           uint64    `json:"nonce,string"`
	ReceiverID      string    `json:"receiver_id"`
	BlockHash       BlockHash `json:"block_hash"`
	Actions         []Action  `json:"actions"`
}

// BuildTransaction parses the string inputs and assembles an unsigned transaction.
func BuildTransaction(signerID, signerPublicKey string, nonce uint64, receiverID, blockHash string, actions []Action) (*Transaction, error) {
	pk, err := ParsePublicKey(signerPublicKey)
	if err != nil {
		return nil, err
	}
	bh, err := ParseBlockHash(blockHash)
	if err != nil {
		return nil, err
	}

	tx := &Transaction{
		SignerID:        signerID,
		SignerPublicKey: pk,
		Nonce:           nonce,
		ReceiverID:      receiverID,
		BlockHash:       bh,
		Actions:         actions,
	}
	if err := tx.validate(); err != nil {
		return nil, err
	}
	return tx, nil
}

func (tx *Transaction) validate() error {
	if len(tx.Actions) == 0 {
		return errNoActions
	}
	for i, a := range tx.Actions {
		if a.FunctionCall == nil {
			return fmt.Errorf("action %d: %w", i, errEmptyAction)
		}
	}
	return nil
}

// SigningPayload returns the Borsh encoding of the unsigned fields. It never
// includes a signature and is deterministic for an unmodified transaction.
func (tx *Transaction) SigningPayload() ([]byte, error) {
	wire, err := tx.toBorsh()
	if err != nil {
		return nil, err
	}
	return borsh.Serialize(wire)
}

// Digest hashes the signing payload.
func (tx *Transaction) Digest() (signature.Digest, error) {
	payload, err := tx.SigningPayload()
	if err != nil {
		return signature.Digest{}, err
	}
	return signature.HashPayload(payload), nil
}

// SignedTransaction is a transaction with its secp256k1 signature attached.
type SignedTransaction struct {
	Transaction Transaction
	Signature   signature.Secp256k1
}

// AttachSignature pairs tx with sig.
func (tx *Transaction) AttachSignature(sig signature.Secp256k1) *SignedTransaction {
	return &SignedTransaction{Transaction: *tx, Signature: sig}
}

// Bytes returns the Borsh encoding ready for broadcast:
// transaction || key type (1 byte) || signature (65 bytes).
func (st *SignedTransaction) Bytes() ([]byte, error) {
	wire, err := st.Transaction.toBorsh()
	if err != nil {
		return nil, err
	}
	return borsh.Serialize(borshSignedTransaction{
		Transaction: wire,
		Signature: borshSignature{
			Enum:      borsh.Enum(KeyTypeSECP256K1),
			SECP256K1: borshSecp256k1Signature{Data: st.Signature},
		},
	})
}
