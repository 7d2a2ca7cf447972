package ratelimit

import (
	"github.com/gofiber/fiber/v2"
	memoryStorage "github.com/gofiber/storage/memory/v2"
	redisStorage "github.com/gofiber/storage/redis/v2"

	"audio-converter/internal/infra/logging"
)

// RedisConfig selects the Redis instance backing the limiter.
type RedisConfig struct {
	Addr string
	DB   int
}

// NewStore returns a Redis-backed limiter storage, or an in-memory one when
// Redis is not configured or cannot be reached.
func NewStore(cfg RedisConfig) (store fiber.Storage) {
	if cfg.Addr == "" {
		return memoryStorage.New()
	}

	// The redis storage constructor panics when the first PING fails.
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Redis limiter store init panicked, falling back to memory", "panic", r, "addr", cfg.Addr)
			store = memoryStorage.New()
		}
	}()

	store = redisStorage.New(redisStorage.Config{
		Addrs:    []string{cfg.Addr},
		Database: cfg.DB,
	})
	logging.Info("Using Redis for rate limiting", "addr", cfg.Addr, "db", cfg.DB)
	return store
}
