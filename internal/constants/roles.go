package constants

// Caller roles
const (
	RoleOperator   = "operator"
	RoleSubscriber = "subscriber"
)

// Request headers carrying caller identity
const (
	HeaderAPIKey      = "X-API-Key"
	HeaderAccountID   = "X-Account-ID"
	HeaderSignerToken = "X-Signer-Token"
)

// Gin context keys
const (
	ContextKeyCallerID   = "callerID"
	ContextKeyCallerRole = "callerRole"
)
