package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "github.com/osmium8/reviews-backend/internal/log"
	"github.com/osmium8/reviews-backend/internal/services"
)

const invalidUserID = "Invalid User Id"

type UserHandler struct {
	Users *services.UserService
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	users, err := h.Users.List(c.UserContext())
	if err != nil {
		return fail(c, "user.list", err)
	}
	return c.JSON(users)
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, err := idParam(c, "id", invalidUserID)
	if err != nil {
		return fail(c, "user.get", err)
	}
	u, err := h.Users.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, "user.get", err)
	}
	return c.JSON(u)
}

func (h *UserHandler) Count(c *fiber.Ctx) error {
	n, err := h.Users.Count(c.UserContext())
	if err != nil {
		return fail(c, "user.count", err)
	}
	return c.JSON(fiber.Map{"userCount": n})
}

func (h *UserHandler) Create(c *fiber.Ctx) error {
	var in services.UserInput
	if err := parseBody(c, &in); err != nil {
		return fail(c, "user.create", err)
	}
	u, err := h.Users.Create(c.UserContext(), in)
	if err != nil {
		return fail(c, "user.create", err)
	}
	applog.Audit(c, "user.create", map[string]any{"new_user_id": u.ID, "is_admin": u.IsAdmin})
	return c.Status(fiber.StatusCreated).JSON(u)
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	id, err := idParam(c, "id", invalidUserID)
	if err != nil {
		return fail(c, "user.update", err)
	}
	var in services.UserInput
	if err := parseBody(c, &in); err != nil {
		return fail(c, "user.update", err)
	}
	u, err := h.Users.Update(c.UserContext(), id, in)
	if err != nil {
		return fail(c, "user.update", err)
	}
	applog.Audit(c, "user.update", map[string]any{"target_user_id": id})
	return c.JSON(u)
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, err := idParam(c, "id", invalidUserID)
	if err != nil {
		return fail(c, "user.delete", err)
	}
	if err := h.Users.Delete(c.UserContext(), id); err != nil {
		if isNotFound(err) {
			return notDeleted(c, "user")
		}
		return fail(c, "user.delete", err)
	}
	applog.Audit(c, "user.delete", map[string]any{"target_user_id": id})
	return deleted(c, "user")
}
