package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/keyauth"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/xid"

	"audio-converter/internal/config"
	"audio-converter/internal/domain"
	"audio-converter/internal/infra/logging"
	"audio-converter/internal/infra/tokens"
)

type contextKey int

// apiKeyLocal is the Locals key holding the validated API key.
const apiKeyLocal contextKey = iota

const apiKeyHeader = "X-API-Key"

// Options carries the runtime dependencies of the middleware chain.
type Options struct {
	// Storage backs the rate limiters. Nil disables rate limiting.
	Storage fiber.Storage
	// Tokens holds the API keys. Nil or empty disables key validation.
	Tokens *tokens.Store
	// Ready is the readiness probe. Nil means always ready.
	Ready func() bool
}

// Register attaches the global middleware chain to app.
func Register(app *fiber.App, cfg config.Config, opts Options) {
	app.Use(cors.New())

	app.Use(requestid.New(requestid.Config{
		Generator: func() string {
			return xid.New().String()
		},
	}))

	ready := opts.Ready
	if ready == nil {
		ready = func() bool { return true }
	}
	app.Use(healthcheck.New(healthcheck.Config{
		LivenessEndpoint:  "/livez",
		ReadinessEndpoint: "/readyz",
		ReadinessProbe:    func(*fiber.Ctx) bool { return ready() },
	}))

	app.Use(requestLogger())

	if opts.Tokens != nil && opts.Tokens.Enabled() {
		app.Use(apiKeyAuth(opts.Tokens))
	}

	if opts.Storage != nil {
		rl := RateLimitConfig{
			RateInterval:           cfg.RateLimiter.Interval,
			EnableUserLimiter:      cfg.RateLimiter.UserLimit > 0,
			UserLimit:              cfg.RateLimiter.UserLimit,
			EnableTokenRateLimiter: cfg.RateLimiter.EnableTokenLimiter,
		}
		if opts.Tokens != nil {
			app.Use(TokenRateLimit(rl, opts.Tokens, opts.Storage, NewLimiterCache()))
		}
		app.Use(UserRateLimit(rl, opts.Storage))
	}
}

func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		logging.Info("Request processed",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", time.Since(start).String(),
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
		)
		return err
	}
}

// apiKeyAuth checks the X-API-Key header against store. Anonymous requests
// skip the check and are handled by the user limiter.
func apiKeyAuth(store *tokens.Store) fiber.Handler {
	return keyauth.New(keyauth.Config{
		KeyLookup:    "header:" + apiKeyHeader,
		ContextKey:   apiKeyLocal,
		Validator:    keyValidator(store),
		Next:         skipKeyAuth,
		ErrorHandler: rejectKey,
	})
}

func keyValidator(store *tokens.Store) func(*fiber.Ctx, string) (bool, error) {
	return func(_ *fiber.Ctx, key string) (bool, error) {
		switch {
		case !store.Ready():
			return false, domain.ErrTokenStoreNotReady
		case !store.Validate(key):
			return false, domain.ErrInvalidAPIKey
		}
		return true, nil
	}
}

func skipKeyAuth(c *fiber.Ctx) bool {
	return c.Method() == fiber.MethodOptions || c.Get(apiKeyHeader) == ""
}

func rejectKey(c *fiber.Ctx, err error) error {
	if err == nil {
		err = fiber.ErrUnauthorized
	}
	status := fiber.StatusUnauthorized
	if errors.Is(err, domain.ErrTokenStoreNotReady) {
		status = fiber.StatusServiceUnavailable
	}
	logging.Warn("API key rejected", "path", c.Path(), "error", err)
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    status,
			"message": err.Error(),
		},
	})
}
