package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/quizgate/internal/api/http/handlers"
	"github.com/spec-kit/quizgate/internal/auth"
	"github.com/spec-kit/quizgate/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Pages          *handlers.PagesHandler
	GateMiddleware *auth.GateMiddleware
}

// NewApp builds the fiber app. Routing is case sensitive so a handler only
// runs for the exact path the access gate classified.
func NewApp(appName string) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:       appName,
		CaseSensitive: true,
	})
}

// RegisterRoutes wires HTTP routes. Every route sits behind the access gate;
// the role checks on the routes repeat the gate's decision at the handler.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.GateMiddleware.Handle)

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Get("/", cfg.Pages.Home)
	app.Get("/login", cfg.Pages.LoginPage)
	app.Get("/signup", cfg.Pages.SignupPage)

	authGroup := app.Group("/api/auth")
	authGroup.Post("/signup", cfg.Auth.Signup)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)

	api := app.Group("/api")
	api.Get("/me", auth.RequireIdentity(), cfg.Auth.Me)
	api.Get("/student/dashboard", auth.RequireRole(domain.RoleStudent), cfg.Pages.DashboardData(domain.RoleStudent))
	api.Get("/instructor/dashboard", auth.RequireRole(domain.RoleInstructor), cfg.Pages.DashboardData(domain.RoleInstructor))

	app.Get("/student/dashboard", auth.RequireRole(domain.RoleStudent), cfg.Pages.Dashboard(domain.RoleStudent))
	app.Get("/instructor/dashboard", auth.RequireRole(domain.RoleInstructor), cfg.Pages.Dashboard(domain.RoleInstructor))
}
