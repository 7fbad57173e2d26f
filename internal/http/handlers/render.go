package handlers

import (
	"errors"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/osmium8/reviews-backend/internal/apperr"
	applog "github.com/osmium8/reviews-backend/internal/log"
	"github.com/osmium8/reviews-backend/internal/validate"
)

var (
	errInvalidCategory = apperr.InvalidInput("Invalid Category")
	errBadCount        = apperr.InvalidInput("count must be a whole number")
	errNoForm          = apperr.InvalidInput("expected a multipart form")
)

// fail writes err as {"code","message"} with the status its type maps to.
// 5xx details are logged, never sent.
func fail(c *fiber.Ctx, action string, err error) error {
	var ve *validate.ValidationError
	if errors.As(err, &ve) {
		applog.Security(c, "validation.fail", map[string]any{"action": action, "fields": ve.Fields()})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":    "INVALID_INPUT",
			"message": ve.Error(),
			"fields":  ve.Fields(),
		})
	}
	ae := apperr.As(err)
	switch {
	case ae.Status >= fiber.StatusInternalServerError:
		applog.Error(c, action, err, nil)
	case ae.Status == fiber.StatusBadRequest:
		applog.Security(c, "validation.fail", map[string]any{"action": action, "reason": ae.Message})
	}
	return c.Status(ae.Status).JSON(ae)
}

// idParam reads and validates a path id, answering 400 with msg when malformed.
func idParam(c *fiber.Ctx, name, msg string) (string, error) {
	id, ok := validate.ID(c.Params(name))
	if !ok {
		return "", apperr.InvalidInput(msg)
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return apperr.InvalidInput("malformed request body")
	}
	return nil
}

// formFile returns the uploaded part for key, or nil when there is none.
func formFile(c *fiber.Ctx, key string) *multipart.FileHeader {
	fh, err := c.FormFile(key)
	if err != nil {
		return nil
	}
	return fh
}

func isNotFound(err error) bool { return errors.Is(err, apperr.ErrNotFound) }

func deleted(c *fiber.Ctx, what string) error {
	return c.JSON(fiber.Map{"success": true, "message": "the " + what + " is deleted!"})
}

func notDeleted(c *fiber.Ctx, what string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": what + " not found!"})
}

// ErrorHandler is the app-wide fallback for errors handlers return instead of writing.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		if fe.Code >= fiber.StatusInternalServerError {
			applog.Error(c, "server.error", err, nil)
		}
		return c.Status(fe.Code).JSON(fiber.Map{"code": codeFor(fe.Code), "message": fe.Message})
	}
	applog.Error(c, "server.error", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(apperr.Internal(err))
}

func codeFor(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusRequestEntityTooLarge:
		return "TOO_LARGE"
	case fiber.StatusTooManyRequests:
		return "RATE_LIMITED"
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return "INVALID_INPUT"
	default:
		if status >= fiber.StatusInternalServerError {
			return "INTERNAL_ERROR"
		}
		return "ERROR"
	}
}
