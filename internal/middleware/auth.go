package middleware

import (
	"brix-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const principalLocal = "principal"

// RequireAuth ensures a principal is in the session. Returns 401 with the
// standard error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := c.Locals(principalLocal)
		if p == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

// GetPrincipal returns the caller's principal id from the session, or "" when
// not logged in. Services receive it explicitly and authorize by comparison.
func GetPrincipal(c *fiber.Ctx) string {
	p := c.Locals(principalLocal)
	if p == nil {
		return ""
	}
	m, ok := p.(map[string]interface{})
	if !ok {
		return ""
	}
	id, _ := m["principal_id"].(string)
	return id
}
