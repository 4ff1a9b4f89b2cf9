package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"sharify/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// RequestContext copies the request, user and trace IDs held in locals onto
// the user context, where the context-aware logger reads them.
func RequestContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			ctx = context.WithValue(ctx, observability.RequestIDKey, rid)
		}
		if uid, ok := c.Locals("userID").(uint); ok && uid != 0 {
			ctx = observability.WithUserID(ctx, uid)
		}
		if tid, ok := c.Locals("traceID").(string); ok && tid != "" {
			ctx = context.WithValue(ctx, observability.TraceIDKey, tid)
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// AccessLog writes one line per request under the matched route pattern.
// Server errors log at error, client errors at warn. Paths under skip are
// not logged.
func AccessLog(skip ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, prefix := range skip {
			if strings.HasPrefix(c.Path(), prefix) {
				return c.Next()
			}
		}
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
		attrs := []slog.Attr{
			slog.String("method", c.Method()),
			slog.String("route", c.Route().Path),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes", len(c.Response().Body())),
			slog.String("ip", c.IP()),
		}
		if uid, ok := c.Locals("userID").(uint); ok && uid != 0 {
			attrs = append(attrs, slog.Uint64("user_id", uint64(uid)))
		}

		level, msg := slog.LevelInfo, "request"
		switch {
		case err != nil || status >= fiber.StatusInternalServerError:
			level, msg = slog.LevelError, "request failed"
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
			}
		case status >= fiber.StatusBadRequest:
			level, msg = slog.LevelWarn, "request rejected"
		}
		observability.Logger.LogAttrs(c.UserContext(), level, msg, attrs...)
		return err
	}
}
