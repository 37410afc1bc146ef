package near

import (
	"fmt"
	"math/big"

	"github.com/near/borsh-go"

	"github.com/cyphera/cyphera-mpc-billing/internal/signature"
)

// Borsh wire forms of the ledger types. Tagged unions are borsh-go complex
// enums: the field at position N+1 carries the payload of discriminant N.

type borshED25519Key struct {
	Data [ed25519KeyLen]byte
}

type borshSecp256k1Key struct {
	Data [secp256k1KeyLen]byte
}

type borshPublicKey struct {
	Enum      borsh.Enum `borsh_enum:"true"`
	ED25519   borshED25519Key
	SECP256K1 borshSecp256k1Key
}

type borshFunctionCall struct {
	MethodName string
	Args       []byte
	Gas        uint64
	Deposit    big.Int
}

type borshAction struct {
	Enum           borsh.Enum `borsh_enum:"true"`
	CreateAccount  struct{}
	DeployContract struct{ Code []byte }
	FunctionCall   borshFunctionCall
}

type borshTransaction struct {
	SignerID        string
	SignerPublicKey borshPublicKey
	Nonce           uint64
	ReceiverID      string
	BlockHash       [blockHashLen]byte
	Actions         []borshAction
}

type borshED25519Signature struct {
	Data [64]byte
}

type borshSecp256k1Signature struct {
	Data [signature.Size]byte
}

type borshSignature struct {
	Enum      borsh.Enum `borsh_enum:"true"`
	ED25519   borshED25519Signature
	SECP256K1 borshSecp256k1Signature
}

type borshSignedTransaction struct {
	Transaction borshTransaction
	Signature   borshSignature
}

func (k PublicKey) toBorsh() (borshPublicKey, error) {
	out := borshPublicKey{Enum: borsh.Enum(k.Type)}
	switch k.Type {
	case KeyTypeED25519:
		if len(k.Data) != ed25519KeyLen {
			return out, fmt.Errorf("%w: ed25519 key has %d bytes", ErrInvalidPublicKey, len(k.Data))
		}
		copy(out.ED25519.Data[:], k.Data)
	case KeyTypeSECP256K1:
		if len(k.Data) != secp256k1KeyLen {
			return out, fmt.Errorf("%w: secp256k1 key has %d bytes", ErrInvalidPublicKey, len(k.Data))
		}
		copy(out.SECP256K1.Data[:], k.Data)
	default:
		return out, fmt.Errorf("%w: unknown key type %s", ErrInvalidPublicKey, k.Type)
	}
	return out, nil
}

func (a Action) toBorsh() (borshAction, error) {
	if a.FunctionCall == nil {
		return borshAction{}, errEmptyAction
	}
	fc := a.FunctionCall
	return borshAction{
		Enum: actionFunctionCall,
		FunctionCall: borshFunctionCall{
			MethodName: fc.MethodName,
			Args:       fc.Args,
			Gas:        uint64(fc.Gas),
			Deposit:    *fc.Deposit.v.ToBig(),
		},
	}, nil
}

func (tx *Transaction) toBorsh() (borshTransaction, error) {
	if err := tx.validate(); err != nil {
		return borshTransaction{}, err
	}
	pk, err := tx.SignerPublicKey.toBorsh()
	if err != nil {
		return borshTransaction{}, err
	}
	actions := make([]borshAction, 0, len(tx.Actions))
	for i, a := range tx.Actions {
		ba, err := a.toBorsh()
		if err != nil {
			return borshTransaction{}, fmt.Errorf("action %d: %w", i, err)
		}
		actions = append(actions, ba)
	}
	return borshTransaction{
		SignerID:        tx.SignerID,
		SignerPublicKey: pk,
		Nonce:           tx.Nonce,
		ReceiverID:      tx.ReceiverID,
		BlockHash:       tx.BlockHash,
		Actions:         actions,
	}, nil
}
