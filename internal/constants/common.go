package constants

// Common string constants used throughout the codebase
const (
	ServiceName = "cyphera-mpc-billing"

	// Log levels
	ErrorLevel = "error"

	// Environments
	ProdEnvironment = "prod"
)

// Sign request statuses
const (
	SignStatusPending = "pending"
	SignStatusSigned  = "signed"
	SignStatusFailed  = "failed"
	SignStatusSkipped = "skipped"
)

// Flows that produce a delegated signature
const (
	FlowFeeCollection    = "fee_collection"
	FlowDelegateTransfer = "delegate_transfer"
)
