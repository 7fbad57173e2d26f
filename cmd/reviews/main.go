package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/osmium8/reviews-backend/internal/auth"
	"github.com/osmium8/reviews-backend/internal/config"
	"github.com/osmium8/reviews-backend/internal/http/handlers"
	applog "github.com/osmium8/reviews-backend/internal/log"
	"github.com/osmium8/reviews-backend/internal/metrics"
	"github.com/osmium8/reviews-backend/internal/repos"
	"github.com/osmium8/reviews-backend/internal/services"
	"github.com/osmium8/reviews-backend/internal/upload"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	applog.SetLevel(cfg.LogLevel)

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
			applog.SetOutput(mw)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	st, err := repos.Open(openCtx, cfg)
	cancel()
	if err != nil {
		log.Fatal(err)
	}
	applog.Info(nil, "store.open", map[string]any{"backend": st.Backend})

	tokens := auth.NewManager(cfg.Secret, cfg.TokenTTL)
	if cfg.AdminEmail != "" {
		authSvc := services.NewAuthService(st.Users, tokens)
		changed, err := authSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			log.Fatal(err)
		}
		applog.Info(nil, "admin.ensure", map[string]any{"email": cfg.AdminEmail, "changed": changed})
	}

	uploadDir := cfg.UploadDir
	if !filepath.IsAbs(uploadDir) {
		if abs, err := filepath.Abs(uploadDir); err == nil {
			uploadDir = abs
		}
	}
	log.Printf("[static] /public/uploads -> %s", uploadDir)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    32 << 20,
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(metrics.Middleware())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.Origins()}))
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))

	deps := handlers.NewDeps(st, cfg, tokens, upload.New(uploadDir))
	handlers.Mount(app, deps)

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("[warn] shutdown: %v", err)
		}
	}()

	if err := app.Listen(cfg.Addr()); err != nil {
		log.Printf("[error] listen: %v", err)
	}

	closeCtx, cancelClose := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelClose()
	if err := st.Close(closeCtx); err != nil {
		log.Printf("[warn] store close: %v", err)
	}
	applog.Info(nil, "server.stopped", nil)
}
