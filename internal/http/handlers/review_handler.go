package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "github.com/osmium8/reviews-backend/internal/log"
	"github.com/osmium8/reviews-backend/internal/services"
	"github.com/osmium8/reviews-backend/internal/validate"
)

const invalidReviewID = "Invalid Review Id"

type ReviewHandler struct {
	Reviews *services.ReviewService
}

type approval struct {
	IsApproved *bool `json:"isApproved" validate:"required"`
}

func (h *ReviewHandler) List(c *fiber.Ctx) error {
	reviews, err := h.Reviews.List(c.UserContext())
	if err != nil {
		return fail(c, "review.list", err)
	}
	return c.JSON(reviews)
}

func (h *ReviewHandler) Get(c *fiber.Ctx) error {
	id, err := idParam(c, "id", invalidReviewID)
	if err != nil {
		return fail(c, "review.get", err)
	}
	rv, err := h.Reviews.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, "review.get", err)
	}
	return c.JSON(rv)
}

func (h *ReviewHandler) ForProduct(c *fiber.Ctx) error {
	id, err := idParam(c, "productId", invalidProductID)
	if err != nil {
		return fail(c, "review.for_product", err)
	}
	reviews, err := h.Reviews.ForProduct(c.UserContext(), id)
	if err != nil {
		return fail(c, "review.for_product", err)
	}
	return c.JSON(reviews)
}

func (h *ReviewHandler) ByUser(c *fiber.Ctx) error {
	id, err := idParam(c, "userid", "Invalid User Id")
	if err != nil {
		return fail(c, "review.by_user", err)
	}
	reviews, err := h.Reviews.ByUser(c.UserContext(), id)
	if err != nil {
		return fail(c, "review.by_user", err)
	}
	return c.JSON(reviews)
}

func (h *ReviewHandler) Count(c *fiber.Ctx) error {
	n, err := h.Reviews.CountApproved(c.UserContext(), "")
	if err != nil {
		return fail(c, "review.count", err)
	}
	return c.JSON(fiber.Map{"reviewsCount": n})
}

// Create takes {user, product, rating, description} and appends the review to its product.
func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	var in services.ReviewInput
	if err := parseBody(c, &in); err != nil {
		return fail(c, "review.create", err)
	}
	rv, err := h.Reviews.Create(c.UserContext(), in)
	if err != nil {
		return fail(c, "review.create", err)
	}
	applog.Audit(c, "review.create", map[string]any{"review_id": rv.ID, "product_id": rv.ProductID})
	return c.Status(fiber.StatusCreated).JSON(rv)
}

// AddReview is the product add-review flow answering with the new review.
func (h *ReviewHandler) AddReview(c *fiber.Ctx) error {
	id, err := idParam(c, "id", invalidProductID)
	if err != nil {
		return fail(c, "review.add", err)
	}
	var in services.ReviewInput
	if err := parseBody(c, &in); err != nil {
		return fail(c, "review.add", err)
	}
	rv, _, err := h.Reviews.AddToProduct(c.UserContext(), id, in)
	if err != nil {
		return fail(c, "review.add", err)
	}
	applog.Audit(c, "review.create", map[string]any{"review_id": rv.ID, "product_id": id})
	return c.JSON(rv)
}

// Approve sets isApproved from the body.
func (h *ReviewHandler) Approve(c *fiber.Ctx) error {
	id, err := idParam(c, "id", invalidReviewID)
	if err != nil {
		return fail(c, "review.approve", err)
	}
	var in approval
	if err := parseBody(c, &in); err != nil {
		return fail(c, "review.approve", err)
	}
	if err := validate.Struct(in); err != nil {
		return fail(c, "review.approve", err)
	}
	rv, err := h.Reviews.SetApproved(c.UserContext(), id, *in.IsApproved)
	if err != nil {
		return fail(c, "review.approve", err)
	}
	applog.Audit(c, "review.approve", map[string]any{"review_id": id, "approved": rv.IsApproved})
	return c.JSON(rv)
}

func (h *ReviewHandler) Delete(c *fiber.Ctx) error {
	id, err := idParam(c, "id", invalidReviewID)
	if err != nil {
		return fail(c, "review.delete", err)
	}
	if err := h.Reviews.Delete(c.UserContext(), id); err != nil {
		if isNotFound(err) {
			return notDeleted(c, "review")
		}
		return fail(c, "review.delete", err)
	}
	applog.Audit(c, "review.delete", map[string]any{"review_id": id})
	return deleted(c, "review")
}
