package auth

import "golang.org/x/crypto/bcrypt"

// DefaultBcryptCost is used when no cost is configured.
const DefaultBcryptCost = 12

// PasswordHasher derives salted bcrypt hashes. The plaintext is never kept
// or logged.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher clamps cost into bcrypt's accepted range.
func NewPasswordHasher(cost int) *PasswordHasher {
	switch {
	case cost <= 0:
		cost = DefaultBcryptCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns the stored form of plaintext. Every call uses a fresh salt.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	return HashPassword(plaintext, h.cost)
}

// Verify reports whether plaintext matches storedForm.
func (h *PasswordHasher) Verify(plaintext, storedForm string) bool {
	return VerifyPassword(plaintext, storedForm)
}

// HashPassword hashes a plaintext password with the given cost.
func HashPassword(plaintext string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword compares plaintext against a bcrypt hash. Salt and cost are
// read from storedForm.
func VerifyPassword(plaintext, storedForm string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedForm), []byte(plaintext)) == nil
}
