package auth

import (
	"context"

	"brix-backend/internal/middleware"
	"brix-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

type Handlers struct {
	Finder PrincipalFinder
	Rdb    *redis.Client
	Config middleware.SessionConfig
}

// Login POST /api/v1/auth/login
func (h *Handlers) Login(c *fiber.Ctx) error {
	var body LoginInput
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Principal and password are required", 400, nil)
	}
	if h.Finder == nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	p, err := h.Finder.FindByCredentials(body.PrincipalID, body.Password)
	if err != nil {
		switch err {
		case ErrCredentialsRequired:
			return response.Error(c, err.Error(), 400, nil)
		case ErrInvalidPrincipal:
			return response.Error(c, err.Error(), 401, nil)
		default:
			return response.Error(c, "Internal Server Error", 500, nil)
		}
	}

	sid := middleware.RegenerateSessionID(c)
	middleware.SetSessionPrincipal(c, middleware.SessionPrincipal{
		PrincipalID: p.PrincipalID,
		DisplayName: p.DisplayName,
	})
	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = "s:" + sid
	c.Cookie(&cookie)

	return response.Success(c, "Login successful", fiber.Map{
		"principal_id": p.PrincipalID,
		"display_name": p.DisplayName,
	}, nil)
}

// Me GET /api/v1/auth/me
func (h *Handlers) Me(c *fiber.Ctx) error {
	p, err := VerifyPrincipal(c.Locals("principal"))
	if err != nil {
		return response.Unauthorized(c, "Not authenticated")
	}
	return response.Success(c, "Authenticated", p, nil)
}

// Logout DELETE /api/v1/auth/logout
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sid := middleware.GetSessionID(c)
	if sid != "" && h.Rdb != nil {
		_ = h.Rdb.Del(context.Background(), middleware.SessionRedisPrefix+sid).Err()
	}
	middleware.DestroySession(c)
	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)
	return response.Success(c, "Logged out", fiber.Map{}, nil)
}
