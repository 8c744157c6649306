package auth

import "errors"

var (
	// ErrMissingToken is a validation failure raised before any network call.
	ErrMissingToken = errors.New("missing idToken")
	// ErrInvalidToken means the identity provider rejected the token.
	ErrInvalidToken = errors.New("invalid ID token")
	// ErrAudienceMismatch means the token was minted for another client.
	ErrAudienceMismatch = errors.New("ID token audience mismatch")
	// ErrSessionInvalid covers missing, malformed or expired session tokens.
	ErrSessionInvalid = errors.New("session token is not valid")
)
