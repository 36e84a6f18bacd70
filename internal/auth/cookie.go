package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// DefaultCookieName is the cookie carrying the token.
const DefaultCookieName = "auth_token"

// CookieConfig describes how the token cookie is written.
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

func (cfg CookieConfig) name() string {
	if cfg.Name == "" {
		return DefaultCookieName
	}
	return cfg.Name
}

// Issue builds the cookie storing token.
func (cfg CookieConfig) Issue(token string) *fiber.Cookie {
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultTokenLifetime
	}
	return &fiber.Cookie{
		Name:     cfg.name(),
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		Secure:   cfg.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

// Expired builds a cookie that removes the stored token. Attributes match
// Issue so browsers replace the same cookie.
func (cfg CookieConfig) Expired() *fiber.Cookie {
	return &fiber.Cookie{
		Name:     cfg.name(),
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		Secure:   cfg.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

// Read returns the token presented by the client, or "".
func (cfg CookieConfig) Read(c *fiber.Ctx) string {
	return c.Cookies(cfg.name())
}
