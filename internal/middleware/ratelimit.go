package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"sharify/internal/models"
	"sharify/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what happens to a request when redis cannot be reached.
type FailPolicy int

const (
	// FailOpen lets the request through.
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

// Rule is a named quota: at most Limit requests per Window for one caller.
type Rule struct {
	Name   string
	Limit  int
	Window time.Duration
	Policy FailPolicy
}

// Quotas applied to the write-heavy and enumeration-prone endpoints.
var (
	SignupRule  = Rule{Name: "signup", Limit: 5, Window: 10 * time.Minute}
	LoginRule   = Rule{Name: "login", Limit: 10, Window: 5 * time.Minute}
	AvatarRule  = Rule{Name: "avatar", Limit: 10, Window: 10 * time.Minute}
	SearchRule  = Rule{Name: "search", Limit: 60, Window: time.Minute}
	CommentRule = Rule{Name: "create_comment", Limit: 10, Window: time.Minute}
	PostRule    = Rule{Name: "create_post", Limit: 5, Window: 5 * time.Minute}
	ToggleRule  = Rule{Name: "toggle", Limit: 120, Window: time.Minute}
)

var errNoRedis = errors.New("redis client is nil")

// Limiter counts requests per rule and caller in fixed redis windows.
type Limiter struct {
	rdb     *redis.Client
	enabled bool
}

// NewLimiter returns a limiter for env. Limits only apply outside the
// development and test environments.
func NewLimiter(rdb *redis.Client, env string) *Limiter {
	switch env {
	case "", "test", "development":
		return &Limiter{rdb: rdb}
	}
	return &Limiter{rdb: rdb, enabled: true}
}

// Allow records one request by caller under rule. When the quota is spent it
// returns false and the time until the window resets.
func (l *Limiter) Allow(ctx context.Context, rule Rule, caller string) (bool, time.Duration, error) {
	if !l.enabled {
		return true, 0, nil
	}
	if l.rdb == nil {
		return false, 0, errNoRedis
	}

	key := fmt.Sprintf("rl:%s:%s", rule.Name, caller)
	cnt, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if cnt == 1 {
		if err := l.rdb.Expire(ctx, key, rule.Window).Err(); err != nil {
			return false, 0, err
		}
	}
	if cnt <= int64(rule.Limit) {
		return true, 0, nil
	}
	ttl, err := l.rdb.PTTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = rule.Window
	}
	return false, ttl, nil
}

// Handler enforces rule. Callers are keyed by user id once authenticated,
// otherwise by remote IP.
func (l *Limiter) Handler(rule Rule) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller := "ip:" + c.IP()
		if uid := c.Locals("userID"); uid != nil {
			caller = fmt.Sprintf("user:%v", uid)
		}

		allowed, retry, err := l.Allow(c.UserContext(), rule, caller)
		if err != nil {
			if rule.Policy == FailClosed {
				observability.Logger.WarnContext(c.UserContext(), "rate limit unavailable",
					slog.String("rule", rule.Name),
					slog.String("error", err.Error()),
				)
				return models.RespondWithError(c, fiber.StatusServiceUnavailable,
					&models.AppError{Code: models.CodeUnavailable, Message: "Rate limiting unavailable"})
			}
			return c.Next()
		}
		if !allowed {
			if retry > 0 {
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(retry.Round(time.Second)/time.Second)))
			}
			return models.RespondWithError(c, fiber.StatusTooManyRequests, models.NewRateLimitedError())
		}
		return c.Next()
	}
}
