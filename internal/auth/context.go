package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/quizgate/internal/domain"
)

const identityKey = "auth_identity"

type identityContextKey struct{}

// Identity is the verified caller attached to a request after gating.
type Identity struct {
	SubjectID string      `json:"subject_id"`
	Role      domain.Role `json:"role"`
}

// WithIdentity returns ctx carrying identity.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext retrieves the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(Identity)
	return identity, ok
}

// IdentityFromCtx retrieves the identity attached by the gate middleware.
func IdentityFromCtx(c *fiber.Ctx) (Identity, bool) {
	identity, ok := c.Locals(identityKey).(Identity)
	return identity, ok
}

func attachIdentity(c *fiber.Ctx, identity Identity) {
	c.Locals(identityKey, identity)
	c.SetUserContext(WithIdentity(c.UserContext(), identity))
}
