package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/osmium8/reviews-backend/internal/domain"
	applog "github.com/osmium8/reviews-backend/internal/log"
	"github.com/osmium8/reviews-backend/internal/services"
	"github.com/osmium8/reviews-backend/internal/validate"
)

const invalidProductID = "Invalid Product Id"

type ProductHandler struct {
	Products  *services.ProductService
	ReviewSvc *services.ReviewService
}

// List serves the public listing. Query: categories (comma list), brand, code, name.
func (h *ProductHandler) List(c *fiber.Ctx) error {
	q := domain.ProductQuery{
		Brand: strings.TrimSpace(c.Query("brand")),
		Code:  strings.TrimSpace(c.Query("code")),
		Name:  strings.TrimSpace(c.Query("name")),
	}
	if raw := c.Query("categories"); raw != "" {
		ids, ok := validate.IDs(raw)
		if !ok {
			return fail(c, "product.list", errInvalidCategory)
		}
		q.Categories = ids
	}
	products, err := h.Products.List(c.UserContext(), q)
	if err != nil {
		return fail(c, "product.list", err)
	}
	return c.JSON(products)
}

func (h *ProductHandler) ListAll(c *fiber.Ctx) error {
	products, err := h.Products.ListAll(c.UserContext(), strings.TrimSpace(c.Query("code")))
	if err != nil {
		return fail(c, "product.list_all", err)
	}
	return c.JSON(products)
}

func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, err := idParam(c, "id", invalidProductID)
	if err != nil {
		return fail(c, "product.get", err)
	}
	p, err := h.Products.Detail(c.UserContext(), id)
	if err != nil {
		return fail(c, "product.get", err)
	}
	return c.JSON(p)
}

// Reviews lists the product's approved reviews with their authors.
func (h *ProductHandler) Reviews(c *fiber.Ctx) error {
	id, err := idParam(c, "id", invalidProductID)
	if err != nil {
		return fail(c, "product.reviews", err)
	}
	reviews, err := h.ReviewSvc.ForProduct(c.UserContext(), id)
	if err != nil {
		return fail(c, "product.reviews", err)
	}
	return c.JSON(reviews)
}

// AddReview creates a review for the product and answers with the updated product.
func (h *ProductHandler) AddReview(c *fiber.Ctx) error {
	id, err := idParam(c, "id", invalidProductID)
	if err != nil {
		return fail(c, "product.review.add", err)
	}
	var in services.ReviewInput
	if err := parseBody(c, &in); err != nil {
		return fail(c, "product.review.add", err)
	}
	rv, p, err := h.ReviewSvc.AddToProduct(c.UserContext(), id, in)
	if err != nil {
		return fail(c, "product.review.add", err)
	}
	applog.Audit(c, "review.create", map[string]any{"review_id": rv.ID, "product_id": id})
	return c.JSON(p)
}

func (h *ProductHandler) ReviewCount(c *fiber.Ctx) error {
	id, err := idParam(c, "id", invalidProductID)
	if err != nil {
		return fail(c, "product.review.count", err)
	}
	n, err := h.ReviewSvc.CountApproved(c.UserContext(), id)
	if err != nil {
		return fail(c, "product.review.count", err)
	}
	return c.JSON(fiber.Map{"value": n})
}

func (h *ProductHandler) AverageRating(c *fiber.Ctx) error {
	id, err := idParam(c, "id", invalidProductID)
	if err != nil {
		return fail(c, "product.rating", err)
	}
	avg, err := h.Products.AverageRating(c.UserContext(), id)
	if err != nil {
		return fail(c, "product.rating", err)
	}
	return c.JSON(fiber.Map{"value": avg})
}

// Create reads a multipart form with the product fields and an "image" part.
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := parseBody(c, &in); err != nil {
		return fail(c, "product.create", err)
	}
	p, err := h.Products.Create(c.UserContext(), in, formFile(c, "image"), c.BaseURL())
	if errors.Is(err, services.ErrDuplicateCode) {
		applog.Security(c, "validation.fail", map[string]any{"action": "product.create", "reason": "duplicate code", "code": in.Code})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"invalidCode": true, "message": services.ErrDuplicateCode.Message})
	}
	if err != nil {
		return fail(c, "product.create", err)
	}
	applog.Audit(c, "product.create", map[string]any{"product_id": p.ID, "code": p.Code})
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, err := idParam(c, "id", invalidProductID)
	if err != nil {
		return fail(c, "product.update", err)
	}
	var in services.ProductInput
	if err := parseBody(c, &in); err != nil {
		return fail(c, "product.update", err)
	}
	p, err := h.Products.Update(c.UserContext(), id, in, formFile(c, "image"), c.BaseURL())
	if err != nil {
		return fail(c, "product.update", err)
	}
	applog.Audit(c, "product.update", map[string]any{"product_id": id})
	return c.JSON(p)
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, err := idParam(c, "id", invalidProductID)
	if err != nil {
		return fail(c, "product.delete", err)
	}
	n, err := h.Products.Delete(c.UserContext(), id)
	if err != nil {
		if isNotFound(err) {
			return notDeleted(c, "product")
		}
		return fail(c, "product.delete", err)
	}
	applog.Audit(c, "product.delete", map[string]any{"product_id": id, "reviews_deleted": n})
	return deleted(c, "product")
}

func (h *ProductHandler) Count(c *fiber.Ctx) error {
	n, err := h.Products.Count(c.UserContext())
	if err != nil {
		return fail(c, "product.count", err)
	}
	return c.JSON(fiber.Map{"productCount": n})
}

// Featured answers /get/featured/:count; a count of 0 returns every featured product.
func (h *ProductHandler) Featured(c *fiber.Ctx) error {
	limit, err := strconv.ParseInt(c.Params("count"), 10, 64)
	if err != nil {
		return fail(c, "product.featured", errBadCount)
	}
	products, err := h.Products.Featured(c.UserContext(), limit)
	if err != nil {
		return fail(c, "product.featured", err)
	}
	return c.JSON(products)
}

// Gallery replaces the product's gallery with the "images" parts.
func (h *ProductHandler) Gallery(c *fiber.Ctx) error {
	id, err := idParam(c, "id", invalidProductID)
	if err != nil {
		return fail(c, "product.gallery", err)
	}
	form, err := c.MultipartForm()
	if err != nil {
		return fail(c, "product.gallery", errNoForm)
	}
	p, err := h.Products.SetGallery(c.UserContext(), id, form.File["images"], c.BaseURL())
	if err != nil {
		return fail(c, "product.gallery", err)
	}
	applog.Audit(c, "product.gallery", map[string]any{"product_id": id, "images": len(p.Images)})
	return c.JSON(p)
}

func (h *ProductHandler) Photos(c *fiber.Ctx) error {
	names, err := h.Products.Photos(c.UserContext())
	if err != nil {
		return fail(c, "product.photos", err)
	}
	return c.JSON(names)
}
