package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the validated claim set of a token.
type Claims struct {
	jwt.RegisteredClaims
}

// Verifier checks token signatures against keys from a KeyResolver using a
// single expected algorithm.
type Verifier struct {
	keys      KeyResolver
	algorithm string
	issuer    string
	audience  string
	leeway    time.Duration
	parser    *jwt.Parser
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithAlgorithm sets the only accepted signing algorithm (default RS256).
func WithAlgorithm(alg string) VerifierOption {
	return func(v *Verifier) { v.algorithm = alg }
}

// WithIssuer requires the iss claim to equal issuer.
func WithIssuer(issuer string) VerifierOption {
	return func(v *Verifier) { v.issuer = issuer }
}

// WithAudience requires the aud claim to contain audience.
func WithAudience(audience string) VerifierOption {
	return func(v *Verifier) { v.audience = audience }
}

// WithLeeway tolerates clock skew on exp and nbf.
func WithLeeway(d time.Duration) VerifierOption {
	return func(v *Verifier) { v.leeway = d }
}

func NewVerifier(keys KeyResolver, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		keys:      keys,
		algorithm: jwt.SigningMethodRS256.Alg(),
	}
	for _, opt := range opts {
		opt(v)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{v.algorithm}),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(v.audience))
	}
	v.parser = jwt.NewParser(parserOpts...)

	return v
}

var errMissingKeyID = errors.New("token header has no kid")

// Verify parses and validates token. exp and nbf are enforced when present.
// A token without a sub claim is accepted and yields an empty Subject.
func (v *Verifier) Verify(ctx context.Context, token string) (*Claims, error) {
	claims := &Claims{}

	_, err := v.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errMissingKeyID
		}
		return v.keys.Key(ctx, kid)
	})
	if err != nil {
		return nil, classify(err)
	}

	return claims, nil
}

// classify maps parser errors onto the package taxonomy, keeping the
// original error text for logs.
func classify(err error) error {
	var kind error
	switch {
	case errors.Is(err, ErrKeySetUnavailable):
		kind = ErrKeySetUnavailable
	case errors.Is(err, ErrUnknownKey):
		kind = ErrUnknownKey
	case errors.Is(err, errMissingKeyID), errors.Is(err, jwt.ErrTokenMalformed):
		kind = ErrMalformedToken
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		kind = ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
		kind = ErrExpired
	case errors.Is(err, jwt.ErrTokenInvalidClaims):
		kind = ErrInvalidClaims
	default:
		// unsupported alg or other unverifiable tokens
		kind = ErrInvalidSignature
	}
	return fmt.Errorf("%w: %v", kind, err)
}
