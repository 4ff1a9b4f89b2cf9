// Package cache provides Redis caching utilities for the application.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"sharify/internal/observability"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	client *redis.Client
	hooked sync.Map
)

// instrumentHook counts failed commands and, inside a traced request, wraps
// each command in a client span.
type instrumentHook struct{}

func (instrumentHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (instrumentHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		var span trace.Span
		if trace.SpanFromContext(ctx).IsRecording() {
			ctx, span = observability.Tracer.Start(ctx, "redis."+cmd.Name(),
				trace.WithSpanKind(trace.SpanKindClient),
				trace.WithAttributes(attribute.String("db.system", "redis")))
			defer span.End()
		}
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrors.WithLabelValues(cmd.Name()).Inc()
			if span != nil {
				observability.FailSpan(span, err)
			}
		}
		return err
	}
}

func (instrumentHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrors.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

func instrument(c *redis.Client) {
	if _, loaded := hooked.LoadOrStore(c, struct{}{}); !loaded {
		c.AddHook(instrumentHook{})
	}
}

// Connect dials addr, which is either host:port or a redis:// URL, and
// checks the server answers.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	opts := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}

	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	instrument(c)
	return c, nil
}

// InitRedis connects the package client. On failure the client stays nil
// and every cache helper becomes a no-op.
func InitRedis(addr string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Connect(ctx, addr)
	if err != nil {
		observability.Logger.Warn("Redis unavailable, continuing without cache",
			slog.String("error", err.Error()))
		client = nil
		return
	}
	observability.Logger.Info("Redis connected successfully")
	client = c
}

// SetClient installs an already-connected client. Passing nil disables caching.
func SetClient(c *redis.Client) {
	if c != nil {
		instrument(c)
	}
	client = c
}

// GetClient returns the current Redis client instance.
func GetClient() *redis.Client {
	return client
}
