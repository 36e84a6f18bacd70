package auth

import (
	"fmt"
	"net/http"

	"github.com/spec-kit/quizgate/internal/domain"
)

// Outcome is the terminal result of gating one request.
type Outcome int

const (
	OutcomeAllow Outcome = iota
	OutcomeAllowWithIdentity
	OutcomeUnauthorized
	OutcomeForbidden
	OutcomeRedirect
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAllow:
		return "allow"
	case OutcomeAllowWithIdentity:
		return "allow-with-identity"
	case OutcomeUnauthorized:
		return "deny-401"
	case OutcomeForbidden:
		return "deny-403"
	case OutcomeRedirect:
		return "redirect"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Decision is produced once per request and never stored.
type Decision struct {
	Outcome  Outcome
	Identity *Identity
	Location string
	// ClearCredential asks the transport to expire the stored credential.
	ClearCredential bool
	// Reason carries the error kind behind a denial or redirect for logging.
	// It must not be echoed to clients.
	Reason error
}

// Request is the transport-neutral view of an inbound request.
type Request struct {
	Path  string
	Token string
}

// TokenValidator validates credentials for the gate.
type TokenValidator interface {
	Validate(token string) (*Payload, error)
}

// GateConfig holds the redirect targets used by the gate.
type GateConfig struct {
	LoginPath string
	Landing   map[domain.Role]string
}

// DefaultGateConfig returns the service's login and landing routes.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		LoginPath: "/login",
		Landing: map[domain.Role]string{
			domain.RoleStudent:    "/student/dashboard",
			domain.RoleInstructor: "/instructor/dashboard",
		},
	}
}

// Gate decides whether a request may proceed. It holds no per-request state.
type Gate struct {
	tokens TokenValidator
	routes *RouteTable
	cfg    GateConfig
}

// NewGate constructs a gate.
func NewGate(tokens TokenValidator, routes *RouteTable, cfg GateConfig) *Gate {
	if routes == nil {
		routes = DefaultRoutes()
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = DefaultGateConfig().LoginPath
	}
	if cfg.Landing == nil {
		cfg.Landing = DefaultGateConfig().Landing
	}
	return &Gate{tokens: tokens, routes: routes, cfg: cfg}
}

// LandingPath returns the landing route for role.
func (g *Gate) LandingPath(role domain.Role) string {
	if path, ok := g.cfg.Landing[role]; ok {
		return path
	}
	return "/"
}

// Evaluate classifies the request and returns the access decision. Token
// failures become denials or redirects; any other error is returned as is
// and must be treated as an internal failure by the caller.
func (g *Gate) Evaluate(req Request) (Decision, error) {
	rule := g.routes.Classify(req.Path)

	if rule.Access == AccessPublic {
		if !rule.AuthPage || req.Token == "" {
			return Decision{Outcome: OutcomeAllow}, nil
		}
		payload, err := g.tokens.Validate(req.Token)
		if err != nil {
			if !IsTokenError(err) {
				return Decision{}, err
			}
			return Decision{Outcome: OutcomeAllow, ClearCredential: true, Reason: err}, nil
		}
		return g.redirect(g.LandingPath(payload.Role), false, nil), nil
	}

	if req.Token == "" {
		return g.deny(rule, ErrNotAuthenticated, false), nil
	}

	payload, err := g.tokens.Validate(req.Token)
	if err != nil {
		if !IsTokenError(err) {
			return Decision{}, err
		}
		return g.deny(rule, err, true), nil
	}

	identity := payload.Identity()
	if rule.Role != "" && payload.Role != rule.Role {
		reason := fmt.Errorf("%w: %s route requires %s", ErrInsufficientRole, payload.Role, rule.Role)
		if rule.Kind == KindAPI {
			return Decision{Outcome: OutcomeForbidden, Identity: &identity, Reason: reason}, nil
		}
		return g.redirect(g.LandingPath(payload.Role), false, reason), nil
	}

	return Decision{Outcome: OutcomeAllowWithIdentity, Identity: &identity}, nil
}

func (g *Gate) deny(rule RouteRule, reason error, clearCredential bool) Decision {
	if rule.Kind == KindAPI {
		return Decision{Outcome: OutcomeUnauthorized, ClearCredential: clearCredential, Reason: reason}
	}
	return g.redirect(g.cfg.LoginPath, clearCredential, reason)
}

func (g *Gate) redirect(location string, clearCredential bool, reason error) Decision {
	return Decision{Outcome: OutcomeRedirect, Location: location, ClearCredential: clearCredential, Reason: reason}
}

// Status returns the HTTP status implied by a denial, or 0.
func (d Decision) Status() int {
	switch d.Outcome {
	case OutcomeUnauthorized:
		return http.StatusUnauthorized
	case OutcomeForbidden:
		return http.StatusForbidden
	}
	return 0
}

// Denied reports whether the decision stops the request.
func (d Decision) Denied() bool {
	return d.Outcome != OutcomeAllow && d.Outcome != OutcomeAllowWithIdentity
}
