package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/quizgate/internal/api/dto"
	"github.com/spec-kit/quizgate/internal/auth"
	"github.com/spec-kit/quizgate/internal/domain"
	"github.com/spec-kit/quizgate/internal/repository"
	"github.com/spec-kit/quizgate/internal/service"
	apperrors "github.com/spec-kit/quizgate/pkg/errorutil"
)

// Authenticator is the subset of the auth service used by the handlers.
type Authenticator interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.Session, error)
	Login(ctx context.Context, email, password string) (*service.Session, error)
	Logout(ctx context.Context, identity *auth.Identity)
	CurrentUser(ctx context.Context, identity auth.Identity) (*domain.User, error)
}

// LandingResolver maps a role to its landing route.
type LandingResolver interface {
	LandingPath(role domain.Role) string
}

// AuthHandler exposes signup, login, logout and the current account.
type AuthHandler struct {
	auth    Authenticator
	tokens  auth.TokenValidator
	cookies auth.CookieConfig
	landing LandingResolver
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService Authenticator, tokens auth.TokenValidator, cookies auth.CookieConfig, landing LandingResolver) *AuthHandler {
	return &AuthHandler{auth: authService, tokens: tokens, cookies: cookies, landing: landing}
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	session, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return mapAuthError(err)
	}

	c.Cookie(h.cookies.Issue(session.Token))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": h.authResponse(session)})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	session, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return mapAuthError(err)
	}

	c.Cookie(h.cookies.Issue(session.Token))
	return c.JSON(fiber.Map{"data": h.authResponse(session)})
}

// Logout handles POST /api/auth/logout. The cookie is cleared whether or not
// the presented token is still valid.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var identity *auth.Identity
	if token := h.cookies.Read(c); token != "" && h.tokens != nil {
		if payload, err := h.tokens.Validate(token); err == nil {
			id := payload.Identity()
			identity = &id
		}
	}

	h.auth.Logout(c.UserContext(), identity)
	c.Cookie(h.cookies.Expired())
	return c.SendStatus(fiber.StatusNoContent)
}

// Me handles GET /api/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromCtx(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	user, err := h.auth.CurrentUser(c.UserContext(), identity)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			c.Cookie(h.cookies.Expired())
			return apperrors.NewUnauthorized("authentication required")
		}
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

func (h *AuthHandler) authResponse(session *service.Session) dto.AuthResponse {
	resp := dto.AuthResponse{
		User:      dto.NewUserResponse(session.User),
		ExpiresAt: session.Payload.ExpiresAtTime(),
	}
	if h.landing != nil {
		resp.Redirect = h.landing.LandingPath(session.User.Role)
	}
	return resp
}

func mapAuthError(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return apperrors.NewValidationError(err.Error(), nil)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return apperrors.NewUnauthorized(auth.ErrInvalidCredentials.Error())
	case errors.Is(err, service.ErrLoginThrottled):
		return apperrors.NewTooManyRequests("too many login attempts, try again later")
	case errors.Is(err, repository.ErrEmailTaken):
		return apperrors.NewConflict("email already registered", nil)
	default:
		return err
	}
}
