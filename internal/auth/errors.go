package auth

import "errors"

var (
	ErrMissingAPIKey    = errors.New("no API key provided")
	ErrInvalidAPIKey    = errors.New("invalid API key")
	ErrMissingAccountID = errors.New("account ID not specified")
	ErrInvalidSignerKey = errors.New("invalid signer callback token")
)
