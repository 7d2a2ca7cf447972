package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/redis/go-redis/v9"

	"audio-converter/internal/config"
	"audio-converter/internal/http/handlers"
	"audio-converter/internal/http/middleware"
	"audio-converter/internal/infra/ffmpeg"
	"audio-converter/internal/infra/logging"
	"audio-converter/internal/infra/ratelimit"
	"audio-converter/internal/infra/tokens"
)

// Deps are the process-wide dependencies the server is built from.
type Deps struct {
	Config config.Config
	// Redis is optional; when set it backs the rate limiters and is part of readiness.
	Redis *redis.Client
}

// New creates and configures the Fiber app.
func New(deps Deps) *fiber.App {
	cfg := deps.Config

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             cfg.Server.BodyLimitBytes,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		ErrorHandler:          errorHandler,
	})

	var store fiber.Storage
	if cfg.RateLimiter.UserLimit > 0 || cfg.RateLimiter.EnableTokenLimiter {
		store = ratelimit.NewStore(ratelimit.RedisConfig{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	}

	middleware.Register(app, cfg, middleware.Options{
		Storage: store,
		Tokens:  tokens.NewStore(cfg.Auth.Tokens),
		Ready:   readiness(cfg, deps.Redis),
	})

	RegisterRoutes(app, cfg)

	// Ensure all responses, including 404s, return JSON
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app
}

// RegisterRoutes mounts all route handlers to the app.
func RegisterRoutes(app *fiber.App, cfg config.Config) {
	svc := handlers.NewAudioService(cfg)

	app.Get("/health", handlers.HandleHealth)

	audio := app.Group("/audio")
	audio.Post("/convert-to-mp3", svc.HandleConvert)
	audio.Post("/encode-base64", svc.HandleEncodeBase64)

	app.Get("/ops/monitor", monitor.New())
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		msg = e.Message
	}

	logging.Warn("Request failed", "path", c.Path(), "status", code, "message", msg)

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": msg,
		},
	})
}

// readiness reports ready when the encoder binary resolves and, if configured, Redis answers.
func readiness(cfg config.Config, rdb *redis.Client) func() bool {
	encoder := ffmpeg.New(cfg.Transcoder.Binary, cfg.Transcoder.Timeout)
	return func() bool {
		if !encoder.Available() {
			logging.Warn("Readiness: encoder binary not found", "binary", encoder.Binary)
			return false
		}
		if rdb == nil {
			return true
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logging.Warn("Readiness: redis ping failed", "error", err)
			return false
		}
		return true
	}
}
