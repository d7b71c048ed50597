// Package auth verifies bearer tokens issued by an external identity
// provider and turns them into a principal id.
package auth

import "errors"

// Authorization failures. Every one of them is reported to the caller as the
// same denial; the specific kind is only logged.
var (
	ErrMalformedHeader  = errors.New("malformed authorization header")
	ErrMalformedToken   = errors.New("malformed token")
	ErrUnknownKey       = errors.New("unknown signing key")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpired          = errors.New("token expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
)

// ErrKeySetUnavailable means the key set endpoint could not be read. It is an
// upstream failure, not a verdict on the token.
var ErrKeySetUnavailable = errors.New("signing key set unavailable")

var denials = []error{
	ErrMalformedHeader,
	ErrMalformedToken,
	ErrUnknownKey,
	ErrInvalidSignature,
	ErrExpired,
	ErrInvalidClaims,
}

// IsAuthError reports whether err is one of the authorization failures.
func IsAuthError(err error) bool {
	for _, target := range denials {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
