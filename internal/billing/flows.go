package billing

import (
	"encoding/json"
	"fmt"

	"github.com/cyphera/cyphera-mpc-billing/internal/constants"
	"github.com/cyphera/cyphera-mpc-billing/internal/near"
)

// Flow names the kind of transaction a sign request produces.
type Flow string

const (
	FlowFeeCollection    Flow = constants.FlowFeeCollection
	FlowDelegateTransfer Flow = constants.FlowDelegateTransfer
)

const (
	PaySubscriptionMethod = "pay_subscription"
	TransferCallMethod    = "ft_transfer_call"

	FeeCollectionGas    = 30 * near.TGas
	DelegateTransferGas = 100 * near.TGas
)

// TransactionInput holds the caller-supplied values of the subscriber's
// next transaction. They are passed through unchanged.
type TransactionInput struct {
	PublicKey string `json:"public_key" binding:"required"`
	Nonce     uint64 `json:"nonce,string" binding:"required"`
	BlockHash string `json:"block_hash" binding:"required"`
}

// ChargeInput is the input of the fee-collection flow. SignerDeposit is
// forwarded to the signer as its fee.
type ChargeInput struct {
	TransactionInput
	SignerDeposit near.Balance `json:"signer_deposit"`
}

// Team is a side in a bet.
type Team string

const (
	Team1 Team = "Team1"
	Team2 Team = "Team2"
)

// TransferInput describes a token transfer that places a bet.
type TransferInput struct {
	MatchID string       `json:"match_id" binding:"required"`
	Team    Team         `json:"team" binding:"required"`
	Amount  near.Balance `json:"amount"`
}

func (t TransferInput) validate() error {
	if t.MatchID == "" {
		return fmt.Errorf("match_id is required")
	}
	if t.Team != Team1 && t.Team != Team2 {
		return fmt.Errorf("unknown team %q", t.Team)
	}
	if t.Amount.IsZero() {
		return fmt.Errorf("amount must be positive")
	}
	return nil
}

// signerTransferFee is attached to sign calls of the transfer flow.
var signerTransferFee = near.NewBalance(1)

func feeCollectionAction(price near.Balance) near.Action {
	return near.NewFunctionCall(PaySubscriptionMethod, nil, FeeCollectionGas, price)
}

type betMessage struct {
	Bet struct {
		MatchID string `json:"match_id"`
		Team    Team   `json:"team"`
	} `json:"Bet"`
}

type transferCallArgs struct {
	Amount     near.Balance `json:"amount"`
	Msg        string       `json:"msg"`
	ReceiverID string       `json:"receiver_id"`
}

func delegateTransferAction(receiverID string, in TransferInput) (near.Action, error) {
	var msg betMessage
	msg.Bet.MatchID = in.MatchID
	msg.Bet.Team = in.Team
	msgJSON, err := json.Marshal(msg)
	if err != nil {
		return near.Action{}, err
	}

	args, err := json.Marshal(transferCallArgs{
		Amount:     in.Amount,
		Msg:        string(msgJSON),
		ReceiverID: receiverID,
	})
	if err != nil {
		return near.Action{}, err
	}
	return near.NewFunctionCall(TransferCallMethod, args, DelegateTransferGas, near.NewBalance(1)), nil
}
