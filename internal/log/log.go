package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
)

// levelAudit sits between info and warn so audit lines survive LOG_LEVEL=info.
const levelAudit = slog.LevelInfo + 2

var (
	level  = new(slog.LevelVar)
	logger atomic.Pointer[slog.Logger]
)

func init() { SetOutput(os.Stdout) }

// SetOutput points every subsequent event at w.
func SetOutput(w io.Writer) {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level, ReplaceAttr: rename})
	logger.Store(slog.New(h))
}

// SetLevel accepts debug, info, warn or error; anything else means info.
func SetLevel(s string) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
}

func rename(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.MessageKey:
		a.Key = "action"
	case slog.LevelKey:
		lv, _ := a.Value.Any().(slog.Level)
		switch lv {
		case levelAudit:
			a.Value = slog.StringValue("audit")
		default:
			a.Value = slog.StringValue(strings.ToLower(lv.String()))
		}
	}
	return a
}

func write(lv slog.Level, c *fiber.Ctx, action string, err error, fields map[string]any) {
	l := logger.Load()
	if !l.Enabled(context.Background(), lv) {
		return
	}
	attrs := make([]slog.Attr, 0, 8)
	if c != nil {
		attrs = append(attrs,
			slog.String("ip", c.IP()),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", c.Response().StatusCode()),
		)
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			attrs = append(attrs, slog.String("req_id", rid))
		}
		if uid := userID(c); uid != "" {
			attrs = append(attrs, slog.String("user_id", uid))
		}
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", err.Error()))
	}
	if len(fields) > 0 {
		attrs = append(attrs, slog.Any("fields", fields))
	}
	l.LogAttrs(context.Background(), lv, action, attrs...)
}

// userID reads the subject the access-control middleware stored, if any.
func userID(c *fiber.Ctx) string {
	type subject interface{ GetSubject() (string, error) }
	if s, ok := c.Locals("claims").(subject); ok {
		sub, _ := s.GetSubject()
		return sub
	}
	return ""
}

func Debug(c *fiber.Ctx, action string, fields map[string]any) {
	write(slog.LevelDebug, c, action, nil, fields)
}
func Info(c *fiber.Ctx, action string, fields map[string]any) {
	write(slog.LevelInfo, c, action, nil, fields)
}
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write(levelAudit, c, action, nil, fields)
}
func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write(slog.LevelWarn, c, action, nil, fields)
}
func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(slog.LevelError, c, action, err, fields)
}
