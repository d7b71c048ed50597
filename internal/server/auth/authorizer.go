package auth

import (
	"context"
	"strings"
)

const bearerScheme = "bearer"

// Principal is the authenticated caller id taken from the token subject.
type Principal string

// TokenVerifier validates a raw token.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// Authorizer turns an Authorization header value into a Principal.
type Authorizer struct {
	verifier TokenVerifier
}

func NewAuthorizer(v TokenVerifier) *Authorizer {
	return &Authorizer{verifier: v}
}

// Authorize validates header and returns the token subject.
//
// A valid token without a subject yields an empty Principal and no error;
// callers must treat an empty Principal as unauthenticated.
func (a *Authorizer) Authorize(ctx context.Context, header string) (Principal, error) {
	token, err := ExtractToken(header)
	if err != nil {
		return "", err
	}

	claims, err := a.verifier.Verify(ctx, token)
	if err != nil {
		return "", err
	}

	return Principal(claims.Subject), nil
}

// ExtractToken strips the case-insensitive "Bearer" scheme from header.
func ExtractToken(header string) (string, error) {
	n := len(bearerScheme)
	if len(header) <= n || !strings.EqualFold(header[:n], bearerScheme) {
		return "", ErrMalformedHeader
	}
	if header[n] != ' ' && header[n] != '\t' {
		return "", ErrMalformedHeader
	}

	token := strings.TrimSpace(header[n+1:])
	if token == "" {
		return "", ErrMalformedToken
	}
	return token, nil
}
