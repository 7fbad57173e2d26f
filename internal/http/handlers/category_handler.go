package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "github.com/osmium8/reviews-backend/internal/log"
	"github.com/osmium8/reviews-backend/internal/services"
)

type CategoryHandler struct {
	Categories *services.CategoryService
}

func (h *CategoryHandler) List(c *fiber.Ctx) error {
	cats, err := h.Categories.List(c.UserContext())
	if err != nil {
		return fail(c, "category.list", err)
	}
	return c.JSON(cats)
}

func (h *CategoryHandler) Get(c *fiber.Ctx) error {
	id, err := idParam(c, "id", "Invalid Category Id")
	if err != nil {
		return fail(c, "category.get", err)
	}
	cat, err := h.Categories.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, "category.get", err)
	}
	return c.JSON(cat)
}

func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var in services.CategoryInput
	if err := parseBody(c, &in); err != nil {
		return fail(c, "category.create", err)
	}
	cat, err := h.Categories.Create(c.UserContext(), in)
	if err != nil {
		return fail(c, "category.create", err)
	}
	applog.Audit(c, "category.create", map[string]any{"category_id": cat.ID, "name": cat.Name})
	return c.Status(fiber.StatusCreated).JSON(cat)
}

func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	id, err := idParam(c, "id", "Invalid Category Id")
	if err != nil {
		return fail(c, "category.update", err)
	}
	var in services.CategoryInput
	if err := parseBody(c, &in); err != nil {
		return fail(c, "category.update", err)
	}
	cat, err := h.Categories.Update(c.UserContext(), id, in)
	if err != nil {
		return fail(c, "category.update", err)
	}
	applog.Audit(c, "category.update", map[string]any{"category_id": id})
	return c.JSON(cat)
}

func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	id, err := idParam(c, "id", "Invalid Category Id")
	if err != nil {
		return fail(c, "category.delete", err)
	}
	if err := h.Categories.Delete(c.UserContext(), id); err != nil {
		if isNotFound(err) {
			return notDeleted(c, "category")
		}
		return fail(c, "category.delete", err)
	}
	applog.Audit(c, "category.delete", map[string]any{"category_id": id})
	return deleted(c, "category")
}
