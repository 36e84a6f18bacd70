package auth

import "errors"

// Token validation failures. Callers distinguish them with errors.Is.
var (
	ErrMalformedToken   = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpiredToken     = errors.New("token expired")
)

// Gate and login failures.
var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrInsufficientRole   = errors.New("insufficient role")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidClaims      = errors.New("invalid token claims")
)

// IsTokenError reports whether err means the presented credential is dead:
// malformed, forged or expired. Any other error is an internal failure.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrMalformedToken) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrExpiredToken)
}
