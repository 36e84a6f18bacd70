package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/quizgate/internal/domain"
)

// DefaultTokenLifetime is used when no lifetime is configured.
const DefaultTokenLifetime = 24 * time.Hour

const (
	algorithmHS256 = "HS256"
	tokenTypeJWT   = "JWT"
)

type header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// Claims are the caller-supplied parts of a token payload.
type Claims struct {
	SubjectID string
	Email     string
	Role      domain.Role
}

// Payload is the claim set carried inside every issued token.
type Payload struct {
	SubjectID string      `json:"sub"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	IssuedAt  int64       `json:"iat"`
	ExpiresAt int64       `json:"exp"`
}

// Identity returns the part of the payload used for authorization.
func (p *Payload) Identity() Identity {
	return Identity{SubjectID: p.SubjectID, Role: p.Role}
}

// ExpiresAtTime returns exp as a time.Time.
func (p *Payload) ExpiresAtTime() time.Time {
	return time.Unix(p.ExpiresAt, 0)
}

func (p *Payload) validate() error {
	switch {
	case p.SubjectID == "":
		return fmt.Errorf("%w: missing sub", ErrMalformedToken)
	case !p.Role.Valid():
		return fmt.Errorf("%w: unknown role %q", ErrMalformedToken, p.Role)
	case p.IssuedAt == 0:
		return fmt.Errorf("%w: missing iat", ErrMalformedToken)
	case p.ExpiresAt == 0:
		return fmt.Errorf("%w: missing exp", ErrMalformedToken)
	}
	return nil
}

// TokenManager handles issuing and validating signed tokens. It is the only
// component that mints or validates full tokens.
type TokenManager struct {
	signer   *Signer
	lifetime time.Duration
	now      func() time.Time
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		if now != nil {
			tm.now = now
		}
	}
}

// NewTokenManager builds a new manager. The secret is copied and never
// changes for the lifetime of the manager.
func NewTokenManager(secret string, lifetime time.Duration, opts ...TokenOption) (*TokenManager, error) {
	signer, err := NewSigner([]byte(secret))
	if err != nil {
		return nil, err
	}
	if lifetime <= 0 {
		lifetime = DefaultTokenLifetime
	}
	tm := &TokenManager{signer: signer, lifetime: lifetime, now: time.Now}
	for _, opt := range opts {
		opt(tm)
	}
	return tm, nil
}

// Lifetime returns the default token lifetime.
func (tm *TokenManager) Lifetime() time.Duration {
	return tm.lifetime
}

// Mint issues a token with the default lifetime.
func (tm *TokenManager) Mint(claims Claims) (string, *Payload, error) {
	return tm.MintWithLifetime(claims, tm.lifetime)
}

// MintWithLifetime issues a token valid for lifetime, truncated to whole
// seconds. Zero selects the default lifetime; a negative lifetime yields a
// token that is already expired.
func (tm *TokenManager) MintWithLifetime(claims Claims, lifetime time.Duration) (string, *Payload, error) {
	if claims.SubjectID == "" {
		return "", nil, fmt.Errorf("%w: empty subject", ErrInvalidClaims)
	}
	if !claims.Role.Valid() {
		return "", nil, fmt.Errorf("%w: unknown role %q", ErrInvalidClaims, claims.Role)
	}
	if lifetime == 0 {
		lifetime = tm.lifetime
	}

	issuedAt := tm.now().Unix()
	payload := &Payload{
		SubjectID: claims.SubjectID,
		Email:     claims.Email,
		Role:      claims.Role,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt + int64(lifetime/time.Second),
	}

	encodedHeader, err := encodeJSON(header{Alg: algorithmHS256, Typ: tokenTypeJWT})
	if err != nil {
		return "", nil, err
	}
	encodedPayload, err := encodeJSON(payload)
	if err != nil {
		return "", nil, err
	}

	signingInput := encodedHeader + "." + encodedPayload
	signature, err := tm.signer.Sign(signingInput)
	if err != nil {
		return "", nil, err
	}
	return signingInput + "." + signature, payload, nil
}

// Validate verifies the signature, then decodes the payload and checks
// expiry. Errors wrap ErrMalformedToken, ErrInvalidSignature or
// ErrExpiredToken.
func (tm *TokenManager) Validate(token string) (*Payload, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil, fmt.Errorf("%w: expected 3 segments", ErrMalformedToken)
	}

	// Nothing in the token is trusted before the signature checks out.
	if err := tm.signer.Verify(parts[0]+"."+parts[1], parts[2]); err != nil {
		return nil, err
	}

	var h header
	if err := decodeJSON(parts[0], &h); err != nil {
		return nil, err
	}
	if h.Alg != algorithmHS256 {
		return nil, fmt.Errorf("%w: unexpected alg %q", ErrMalformedToken, h.Alg)
	}
	if h.Typ != tokenTypeJWT {
		return nil, fmt.Errorf("%w: unexpected typ %q", ErrMalformedToken, h.Typ)
	}

	var payload Payload
	if err := decodeJSON(parts[1], &payload); err != nil {
		return nil, err
	}
	if err := payload.validate(); err != nil {
		return nil, err
	}

	if payload.ExpiresAt < tm.now().Unix() {
		return nil, ErrExpiredToken
	}
	return &payload, nil
}
