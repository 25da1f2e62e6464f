package authflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/eliomatters/matterhub/internal/app/system/creds"
)

// Verification outcomes callers branch on. Expiry has a bounded retry;
// everything else resolves straight to demo mode.
var (
	ErrTokenExpired = errors.New("session token expired")
	ErrTokenInvalid = errors.New("session token invalid")
)

// Verifier checks a captured session token and extracts the subject
// identity. Implementations must map expiry to ErrTokenExpired and every
// other verification failure to ErrTokenInvalid (wrapped).
type Verifier interface {
	Verify(ctx context.Context, token string) (subject string, err error)
}

// JWTVerifier verifies RS256 session tokens against the public half of
// the auth credential blob's private key.
type JWTVerifier struct {
	key any // *rsa.PublicKey
	log *zap.Logger
}

// NewJWTVerifier builds a verifier from the auth credential blob. A blob
// whose private_key does not parse is a configuration failure, reported
// up so the caller can fall back to demo mode.
func NewJWTVerifier(auth creds.Blob, log *zap.Logger) (*JWTVerifier, error) {
	pem := auth.PrivateKeyPEM()
	if pem == "" {
		return nil, fmt.Errorf("auth credentials carry no private_key")
	}
	priv, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(pem))
	if err != nil {
		return nil, fmt.Errorf("parse auth credential key: %w", err)
	}
	return &JWTVerifier{key: &priv.PublicKey, log: log}, nil
}

// Verify parses and validates the token. The subject is the "sub" claim,
// falling back to "uid"; an otherwise-valid token may yield an empty
// subject, which the session manager treats as a demo fallback rather
// than an error.
func (v *JWTVerifier) Verify(ctx context.Context, token string) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.key, nil
	})
	if err != nil {
		var vErr *jwt.ValidationError
		if errors.As(err, &vErr) && vErr.Errors&jwt.ValidationErrorExpired != 0 {
			return "", fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	subject, _ := claims["sub"].(string)
	if subject == "" {
		subject, _ = claims["uid"].(string)
	}
	return subject, nil
}
