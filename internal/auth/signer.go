package auth

import (
	"crypto/subtle"
	"errors"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Signer computes and checks HMAC-SHA256 signatures over the signing input
// "encodedHeader.encodedPayload". Signatures are the raw MAC bytes encoded
// with EncodeSegment.
type Signer struct {
	key []byte
}

// NewSigner returns a signer bound to secret.
func NewSigner(secret []byte) (*Signer, error) {
	if len(secret) == 0 {
		return nil, errors.New("signing secret is empty")
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &Signer{key: key}, nil
}

// Sign returns the encoded signature for signingInput.
func (s *Signer) Sign(signingInput string) (string, error) {
	mac, err := jwt.SigningMethodHS256.Sign(signingInput, s.key)
	if err != nil {
		return "", err
	}
	return EncodeSegment(mac), nil
}

// Verify recomputes the signature and compares it in constant time.
func (s *Signer) Verify(signingInput, signature string) error {
	expected, err := s.Sign(signingInput)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return ErrInvalidSignature
	}
	return nil
}
