package near

import (
	"errors"

	"github.com/near/borsh-go"
)

// Action discriminants in the ledger's Borsh encoding.
const (
	actionFunctionCall borsh.Enum = 2
)

var errEmptyAction = errors.New("action has no variant set")

// Gas is a prepaid gas amount.
type Gas uint64

// TGas is one teragas.
const TGas Gas = 1_000_000_000_000

// FunctionCallAction invokes a contract method on the receiver.
type FunctionCallAction struct {
	MethodName string  `json:"method_name"`
	Args       []byte  `json:"args"`
	Gas        Gas     `json:"gas,string"`
	Deposit    Balance `json:"deposit"`
}

// Action is a tagged union with exactly one variant set. Only function calls
// are produced by this service.
type Action struct {
	FunctionCall *FunctionCallAction `json:"FunctionCall,omitempty"`
}

// NewFunctionCall builds a function-call action.
func NewFunctionCall(method string, args []byte, gas Gas, deposit Balance) Action {
	if args == nil {
		args = []byte{}
	}
	return Action{FunctionCall: &FunctionCallAction{
		MethodName: method,
		Args:       args,
		Gas:        gas,
		Deposit:    deposit,
	}}
}
