package session

import (
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/apierror"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/storefront-backend/internal/services"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenLocalsKey  = "session_token"
	claimsLocalsKey = "session_claims"
	adminLocalsKey  = "session_admin"
)

// AdminContext is the result of a successful admin check. User was read
// from the store during this request, not taken from the token.
type AdminContext struct {
	Claims       *services.Claims
	User         *models.User
	IsSuperAdmin bool
}

func (a *AdminContext) Actor() services.Actor {
	return services.Actor{User: a.User, IsSuperAdmin: a.IsSuperAdmin}
}

// Guard turns a request into an authorization decision: decode the cookie,
// then re-validate against the credential store where it matters.
type Guard struct {
	tokens  *services.TokenService
	cookies *CookieTransport
	store   *services.CredentialStore
	policy  *services.Policy
	metrics *metrics.Metrics
}

func NewGuard(
	tokens *services.TokenService,
	cookies *CookieTransport,
	store *services.CredentialStore,
	policy *services.Policy,
	m *metrics.Metrics,
) *Guard {
	return &Guard{tokens: tokens, cookies: cookies, store: store, policy: policy, metrics: m}
}

func (g *Guard) Cookies() *CookieTransport {
	return g.cookies
}

// CurrentSession returns nil for anonymous callers. An unusable cookie is
// cleared rather than reported.
func (g *Guard) CurrentSession(c *fiber.Ctx) *services.Claims {
	if claims, ok := c.Locals(claimsLocalsKey).(*services.Claims); ok && claims != nil {
		return claims
	}
	raw := g.cookies.Read(c)
	if raw == "" {
		return nil
	}
	claims, err := g.tokens.Verify(raw)
	if err != nil {
		slog.Debug("discarding session cookie", "reason", err.Error(), "request_id", apierror.RequestID(c))
		g.cookies.Clear(c)
		return nil
	}
	c.Locals(claimsLocalsKey, claims)
	return claims
}

func (g *Guard) RequireAuthenticated(c *fiber.Ctx) (*services.Claims, error) {
	claims := g.CurrentSession(c)
	if claims == nil {
		g.metrics.Denied(apierror.KindUnauthenticated)
		return nil, services.ErrUnauthenticated
	}
	return claims, nil
}

// CurrentUser loads the account behind the session. If the account is gone
// the cookie is cleared and the caller is treated as anonymous.
func (g *Guard) CurrentUser(c *fiber.Ctx) (*services.Claims, *models.User, error) {
	claims, err := g.RequireAuthenticated(c)
	if err != nil {
		return nil, nil, err
	}
	id, err := claims.UserID()
	if err != nil {
		g.cookies.Clear(c)
		return nil, nil, services.ErrUnauthenticated
	}
	user, err := g.store.FindByID(c.UserContext(), id)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		slog.Info("session refers to a deleted account", "user_id", id.String(), "request_id", apierror.RequestID(c))
		g.cookies.Clear(c)
		c.Locals(claimsLocalsKey, nil)
		g.metrics.Denied(apierror.KindUnauthenticated)
		return nil, nil, services.ErrUnauthenticated
	}
	return claims, user, nil
}

// RequireAdmin trusts the store, not the token, for the admin role.
func (g *Guard) RequireAdmin(c *fiber.Ctx) (*AdminContext, error) {
	claims, user, err := g.CurrentUser(c)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		slog.Warn("admin access denied",
			"action", "admin_access",
			"user_id", user.ID.String(),
			"path", c.Path(),
			"remote_ip", c.IP(),
			"request_id", apierror.RequestID(c),
		)
		g.metrics.Denied(apierror.KindForbidden)
		return nil, services.ErrForbidden
	}
	return &AdminContext{
		Claims:       claims,
		User:         user,
		IsSuperAdmin: g.policy.IsSuperAdmin(user),
	}, nil
}

// SessionRequired rejects requests without a valid session cookie before the
// handler runs. It shares the token service's key function.
func (g *Guard) SessionRequired() fiber.Handler {
	return jwtware.New(jwtware.Config{
		TokenLookup: "cookie:" + g.cookies.Name(),
		ContextKey:  tokenLocalsKey,
		Claims:      &services.Claims{},
		KeyFunc:     g.tokens.Keyfunc(),
		SuccessHandler: func(c *fiber.Ctx) error {
			token, _ := c.Locals(tokenLocalsKey).(*jwt.Token)
			if token == nil {
				return g.rejectSession(c)
			}
			claims, ok := token.Claims.(*services.Claims)
			if !ok || g.tokens.CheckClaims(claims) != nil {
				return g.rejectSession(c)
			}
			c.Locals(claimsLocalsKey, claims)
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, _ error) error {
			return g.rejectSession(c)
		},
	})
}

func (g *Guard) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		admin, err := g.RequireAdmin(c)
		if err != nil {
			return apierror.Respond(c, err)
		}
		c.Locals(adminLocalsKey, admin)
		return c.Next()
	}
}

func (g *Guard) rejectSession(c *fiber.Ctx) error {
	if g.cookies.Read(c) != "" {
		g.cookies.Clear(c)
	}
	g.metrics.Denied(apierror.KindUnauthenticated)
	return apierror.Respond(c, services.ErrUnauthenticated)
}

// ClaimsFrom returns the claims stored by SessionRequired or CurrentSession.
func ClaimsFrom(c *fiber.Ctx) *services.Claims {
	claims, _ := c.Locals(claimsLocalsKey).(*services.Claims)
	return claims
}

// AdminFrom returns the context stored by AdminRequired.
func AdminFrom(c *fiber.Ctx) *AdminContext {
	admin, _ := c.Locals(adminLocalsKey).(*AdminContext)
	return admin
}
