package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/quizgate/pkg/errorutil"
)

// DecisionRecorder counts gate outcomes.
type DecisionRecorder interface {
	RecordDecision(outcome string)
}

// GateMiddleware runs the access gate on every request.
type GateMiddleware struct {
	gate    *Gate
	cookies CookieConfig
	logger  *zap.Logger
	metrics DecisionRecorder
}

// NewGateMiddleware constructs middleware. metrics may be nil.
func NewGateMiddleware(gate *Gate, cookies CookieConfig, logger *zap.Logger, metrics DecisionRecorder) *GateMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GateMiddleware{gate: gate, cookies: cookies, logger: logger, metrics: metrics}
}

// Handle evaluates the gate and applies its decision.
func (m *GateMiddleware) Handle(c *fiber.Ctx) error {
	decision, err := m.gate.Evaluate(Request{Path: c.Path(), Token: m.cookies.Read(c)})
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	if m.metrics != nil {
		m.metrics.RecordDecision(decision.Outcome.String())
	}
	if decision.ClearCredential {
		c.Cookie(m.cookies.Expired())
	}
	if decision.Reason != nil {
		m.logger.Debug("access gate",
			zap.String("path", c.Path()),
			zap.String("outcome", decision.Outcome.String()),
			zap.Error(decision.Reason))
	}

	switch decision.Outcome {
	case OutcomeAllow:
		return c.Next()
	case OutcomeAllowWithIdentity:
		attachIdentity(c, *decision.Identity)
		return c.Next()
	case OutcomeUnauthorized:
		return apperrors.NewUnauthorized("authentication required")
	case OutcomeForbidden:
		return apperrors.NewForbidden("insufficient permissions")
	case OutcomeRedirect:
		return c.Redirect(decision.Location, fiber.StatusFound)
	}
	return apperrors.NewInternalError(nil)
}
