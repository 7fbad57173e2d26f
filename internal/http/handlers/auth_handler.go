package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/osmium8/reviews-backend/internal/apperr"
	applog "github.com/osmium8/reviews-backend/internal/log"
	"github.com/osmium8/reviews-backend/internal/services"
	"github.com/osmium8/reviews-backend/internal/validate"
)

type AuthHandler struct {
	Auth  *services.AuthService
	Users *services.UserService
}

type credentials struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

var errLogin = apperr.InvalidInput(services.ErrBadCreds.Error())

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in credentials
	if err := parseBody(c, &in); err != nil {
		return fail(c, "auth.login", err)
	}
	email, ok := validate.Email(in.Email)
	if !ok || in.Password == "" {
		applog.Security(c, "auth.login.fail", map[string]any{"email": in.Email, "reason": "bad_format"})
		return c.Status(fiber.StatusBadRequest).JSON(errLogin)
	}

	tok, u, err := h.Auth.Login(c.UserContext(), email, in.Password)
	if errors.Is(err, services.ErrBadCreds) {
		applog.Security(c, "auth.login.fail", map[string]any{"email": email})
		return c.Status(fiber.StatusBadRequest).JSON(errLogin)
	}
	if err != nil {
		return fail(c, "auth.login", err)
	}

	applog.Audit(c, "auth.login.success", map[string]any{"email": u.Email, "login_user_id": u.ID, "is_admin": u.IsAdmin})
	return c.JSON(fiber.Map{"user": u.Email, "token": tok})
}

// Register is public self-registration; the new account is never an admin.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in services.UserInput
	if err := parseBody(c, &in); err != nil {
		return fail(c, "auth.register", err)
	}
	u, err := h.Users.Register(c.UserContext(), in)
	if err != nil {
		return fail(c, "auth.register", err)
	}
	applog.Audit(c, "auth.register", map[string]any{"new_user_id": u.ID, "email": strings.ToLower(u.Email)})
	return c.Status(fiber.StatusCreated).JSON(u)
}
