package handlers

import (
	"fmt"
	"html"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/quizgate/internal/auth"
	"github.com/spec-kit/quizgate/internal/domain"
	apperrors "github.com/spec-kit/quizgate/pkg/errorutil"
)

// PagesHandler serves placeholder pages and the role dashboards. Access
// control has already been applied by the gate middleware.
type PagesHandler struct {
	appName string
}

// NewPagesHandler constructs handler.
func NewPagesHandler(appName string) *PagesHandler {
	return &PagesHandler{appName: appName}
}

// Home GET /.
func (h *PagesHandler) Home(c *fiber.Ctx) error {
	return h.render(c, "Welcome", "Sign in or create an account to continue.")
}

// LoginPage GET /login.
func (h *PagesHandler) LoginPage(c *fiber.Ctx) error {
	return h.render(c, "Sign in", "POST your email and password to /api/auth/login.")
}

// SignupPage GET /signup.
func (h *PagesHandler) SignupPage(c *fiber.Ctx) error {
	return h.render(c, "Create account", "POST name, email, password and role to /api/auth/signup.")
}

// Dashboard returns a page handler for role's dashboard.
func (h *PagesHandler) Dashboard(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := auth.IdentityFromCtx(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return h.render(c, fmt.Sprintf("%s dashboard", role), fmt.Sprintf("Signed in as %s.", identity.SubjectID))
	}
}

// DashboardData returns the JSON counterpart of Dashboard.
func (h *PagesHandler) DashboardData(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := auth.IdentityFromCtx(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.JSON(fiber.Map{
			"data": fiber.Map{
				"dashboard": role,
				"identity":  identity,
			},
		})
	}
}

func (h *PagesHandler) render(c *fiber.Ctx, title, body string) error {
	c.Type("html", "utf-8")
	return c.SendString(fmt.Sprintf(
		"<!doctype html><html><head><title>%s | %s</title></head><body><h1>%s</h1><p>%s</p></body></html>",
		html.EscapeString(title), html.EscapeString(h.appName), html.EscapeString(title), html.EscapeString(body),
	))
}
