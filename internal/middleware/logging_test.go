package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"sharify/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := observability.Logger
	observability.Logger = slog.New(slog.NewJSONHandler(&buf, nil))
	t.Cleanup(func() { observability.Logger = prev })
	return &buf
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestAccessLog_LevelsAndRoute(t *testing.T) {
	buf := captureLogs(t)
	app := fiber.New()
	app.Use(AccessLog("/health"))
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/api/posts/:id", func(c *fiber.Ctx) error {
		switch c.Params("id") {
		case "0":
			return c.SendStatus(fiber.StatusBadRequest)
		case "9":
			return fiber.NewError(fiber.StatusServiceUnavailable, "down")
		}
		return c.JSON(fiber.Map{"id": c.Params("id")})
	})

	for _, path := range []string{"/health", "/api/posts/1", "/api/posts/0", "/api/posts/9"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
		resp.Body.Close()
	}

	lines := logLines(t, buf)
	require.Len(t, lines, 3, "skipped paths are not logged")

	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "/api/posts/:id", lines[0]["route"])
	assert.Equal(t, "/api/posts/1", lines[0]["path"])

	assert.Equal(t, "WARN", lines[1]["level"])
	assert.Equal(t, float64(400), lines[1]["status"])

	assert.Equal(t, "ERROR", lines[2]["level"])
	assert.Equal(t, float64(503), lines[2]["status"])
	assert.Equal(t, "down", lines[2]["error"])
}

func TestRequestContext_CopiesLocals(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "req-1")
		c.Locals("userID", uint(42))
		return c.Next()
	})
	app.Use(RequestContext())

	var ctx context.Context
	app.Get("/", func(c *fiber.Ctx) error {
		ctx = c.UserContext()
		return nil
	})
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	resp.Body.Close()

	require.NotNil(t, ctx)
	assert.Equal(t, "req-1", ctx.Value(observability.RequestIDKey))
	assert.Equal(t, uint(42), ctx.Value(observability.UserIDKey))
	assert.Nil(t, ctx.Value(observability.TraceIDKey))
}
