package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/osmium8/reviews-backend/internal/apperr"
	"github.com/osmium8/reviews-backend/internal/auth"
	applog "github.com/osmium8/reviews-backend/internal/log"
)

// publicRoute exempts requests from the admin check. An exact route matches one
// path; otherwise the path is a prefix. No methods means every method.
type publicRoute struct {
	path    string
	exact   bool
	methods []string
}

func (r publicRoute) matches(method, path string) bool {
	if r.exact && path != r.path {
		return false
	}
	if !r.exact && !strings.HasPrefix(path, r.path) {
		return false
	}
	if len(r.methods) == 0 {
		return true
	}
	for _, m := range r.methods {
		if m == method {
			return true
		}
	}
	return false
}

// routeKey folds a request path the way the router does: case-insensitive and
// without a trailing slash.
func routeKey(path string) string {
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return strings.ToLower(path)
}

func publicRoutes(api string) []publicRoute {
	api = routeKey(api)
	return []publicRoute{
		{path: api + "/products", methods: []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodOptions, fiber.MethodPut}},
		{path: api + "/categories", methods: []string{fiber.MethodGet, fiber.MethodOptions}},
		{path: api + "/reviews", methods: []string{fiber.MethodGet, fiber.MethodPut, fiber.MethodOptions}},
		{path: api + "/users", methods: []string{fiber.MethodGet, fiber.MethodOptions}},
		{path: "/public/uploads", methods: []string{fiber.MethodGet, fiber.MethodOptions}},
		{path: api + "/users/login", exact: true},
		{path: api + "/users/register", exact: true},
		{path: "/healthz", exact: true, methods: []string{fiber.MethodGet}},
		{path: "/metrics", exact: true, methods: []string{fiber.MethodGet}},
	}
}

// RequireAdmin lets public routes through and demands an admin bearer token for
// everything else. Verified claims are stored under Locals("claims").
func RequireAdmin(tokens *auth.Manager, api string) fiber.Handler {
	public := publicRoutes(api)
	return func(c *fiber.Ctx) error {
		method, path := c.Method(), routeKey(c.Path())
		for _, r := range public {
			if r.matches(method, path) {
				return c.Next()
			}
		}

		raw := c.Get(fiber.HeaderAuthorization)
		tok, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok || strings.TrimSpace(tok) == "" {
			applog.Security(c, "access.denied.no_token", nil)
			return c.Status(fiber.StatusUnauthorized).JSON(apperr.Unauthorized("missing bearer token"))
		}
		claims, err := tokens.Verify(strings.TrimSpace(tok))
		if err != nil {
			applog.Security(c, "access.denied.bad_token", map[string]any{"reason": err.Error()})
			return c.Status(fiber.StatusUnauthorized).JSON(apperr.Unauthorized(err.Error()))
		}
		if !claims.IsAdmin {
			c.Locals("claims", claims)
			applog.Security(c, "access.denied.admin", nil)
			return c.Status(fiber.StatusUnauthorized).JSON(apperr.Unauthorized("admin access required"))
		}
		c.Locals("claims", claims)
		return c.Next()
	}
}
