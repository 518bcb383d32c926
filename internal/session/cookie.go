package session

import (
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/config"
	"github.com/gofiber/fiber/v2"
)

// CookieTransport carries the session token in a single HttpOnly cookie.
type CookieTransport struct {
	name   string
	ttl    time.Duration
	secure bool
}

func NewCookieTransport(cfg *config.Config) *CookieTransport {
	return &CookieTransport{
		name:   cfg.CookieName,
		ttl:    cfg.SessionTTL,
		secure: cfg.CookieSecure,
	}
}

func (t *CookieTransport) Name() string {
	return t.name
}

func (t *CookieTransport) Set(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     t.name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(t.ttl.Seconds()),
		Expires:  time.Now().Add(t.ttl),
		Secure:   t.secure || c.Secure(),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (t *CookieTransport) Read(c *fiber.Ctx) string {
	// Fiber reuses the request buffer once the handler returns.
	return strings.Clone(c.Cookies(t.name))
}

// Clear overwrites the cookie with an empty, already expired one.
func (t *CookieTransport) Clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     t.name,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-24 * time.Hour),
		Secure:   t.secure || c.Secure(),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
