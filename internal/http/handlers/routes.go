package handlers

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	applog "github.com/osmium8/reviews-backend/internal/log"
	"github.com/osmium8/reviews-backend/internal/metrics"
)

// Mount registers the access check, the API routes, uploads, health and metrics on app.
func Mount(app *fiber.App, d *Deps) {
	app.Use(RequireAdmin(d.Tokens, d.APIURL))

	app.Get("/public/uploads/*", d.serveUpload)
	app.Get("/healthz", d.health)
	app.Get("/metrics", metrics.Handler())

	api := app.Group(strings.TrimRight(d.APIURL, "/"))

	products := api.Group("/products")
	products.Get("/", d.ProductHandler.List)
	products.Get("/all", d.ProductHandler.ListAll)
	products.Get("/photos", d.ProductHandler.Photos)
	products.Get("/get/count", d.ProductHandler.Count)
	products.Get("/get/featured/:count", d.ProductHandler.Featured)
	products.Get("/get/reviewCount/:id", d.ProductHandler.ReviewCount)
	products.Get("/get/averageRating/:id", d.ProductHandler.AverageRating)
	products.Get("/reviews/:id", d.ProductHandler.Reviews)
	products.Put("/addReview/:id", d.ProductHandler.AddReview)
	products.Put("/gallery-images/:id", d.ProductHandler.Gallery)
	products.Get("/:id", d.ProductHandler.Get)
	products.Post("/", d.ProductHandler.Create)
	products.Put("/:id", d.ProductHandler.Update)
	products.Delete("/:id", d.ProductHandler.Delete)

	reviews := api.Group("/reviews")
	reviews.Get("/", d.ReviewHandler.List)
	reviews.Get("/get/count", d.ReviewHandler.Count)
	reviews.Get("/get/reviews/:userid", d.ReviewHandler.ByUser)
	reviews.Get("/forProduct/:productId", d.ReviewHandler.ForProduct)
	reviews.Put("/addReview/:id", d.ReviewHandler.AddReview)
	reviews.Get("/:id", d.ReviewHandler.Get)
	reviews.Post("/", d.ReviewHandler.Create)
	reviews.Put("/:id", d.ReviewHandler.Approve)
	reviews.Delete("/:id", d.ReviewHandler.Delete)

	categories := api.Group("/categories")
	categories.Get("/", d.CategoryHandler.List)
	categories.Get("/:id", d.CategoryHandler.Get)
	categories.Post("/", d.CategoryHandler.Create)
	categories.Put("/:id", d.CategoryHandler.Update)
	categories.Delete("/:id", d.CategoryHandler.Delete)

	loginLimiter := limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"code":    "RATE_LIMITED",
				"message": "too many login attempts, try again later",
			})
		},
	})

	users := api.Group("/users")
	users.Post("/login", loginLimiter, d.AuthHandler.Login)
	users.Get("/login", loginLimiter, d.AuthHandler.Login)
	users.Post("/register", d.AuthHandler.Register)
	users.Get("/register", d.AuthHandler.Register)
	users.Get("/", d.UserHandler.List)
	users.Get("/get/count", d.UserHandler.Count)
	users.Get("/:id", d.UserHandler.Get)
	users.Post("/", d.UserHandler.Create)
	users.Put("/:id", d.UserHandler.Update)
	users.Delete("/:id", d.UserHandler.Delete)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"code": "NOT_FOUND", "message": "route not found"})
	})
}

// serveUpload sends one file from the upload directory, refusing traversal attempts.
func (d *Deps) serveUpload(c *fiber.Ctx) error {
	path := c.Params("*")
	rawLower := strings.ToLower(path)
	if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
		applog.Security(c, "upload.traversal.block", map[string]any{"path": path})
		return c.SendStatus(fiber.StatusNotFound)
	}
	clean := filepath.Clean(path)
	if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) || strings.ContainsRune(clean, filepath.Separator) {
		applog.Security(c, "upload.traversal.block", map[string]any{"path": path})
		return c.SendStatus(fiber.StatusNotFound)
	}
	return c.SendFile(filepath.Join(d.Uploads.Dir(), clean))
}

func (d *Deps) health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := d.Store.Ping(ctx); err != nil {
		applog.Error(c, "health.ping", err, map[string]any{"backend": d.Store.Backend})
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"ok": false})
	}
	return c.JSON(fiber.Map{"ok": true})
}
