package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

// Config holds every setting of the service. It is loaded once at startup and
// treated as immutable afterwards.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Logger      LoggerConfig      `yaml:"logger"`
	Fetch       FetchConfig       `yaml:"fetch"`
	Transcoder  TranscoderConfig  `yaml:"transcoder"`
	Workspace   WorkspaceConfig   `yaml:"workspace"`
	Redis       RedisConfig       `yaml:"redis"`
	RateLimiter RateLimiterConfig `yaml:"rate_limiter"`
	Auth        AuthConfig        `yaml:"auth"`
}

type ServerConfig struct {
	Host           string        `yaml:"host" env:"HOST"`
	Port           int           `yaml:"port" env:"PORT"`
	BodyLimitBytes int           `yaml:"body_limit_bytes"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

type LoggerConfig struct {
	File       string `yaml:"file" env:"LOG_FILE"`
	Level      string `yaml:"level" env:"LOG_LEVEL"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type FetchConfig struct {
	DownloadTimeout time.Duration `yaml:"download_timeout"`
	HeadTimeout     time.Duration `yaml:"head_timeout"`
}

type TranscoderConfig struct {
	Binary string `yaml:"binary" env:"FFMPEG_BIN"`
	// Timeout bounds a single encoder run; zero disables it.
	Timeout time.Duration `yaml:"timeout"`
}

type WorkspaceConfig struct {
	// WorkDir is the durable temp area; per-request workspaces are created below it.
	WorkDir string `yaml:"work_dir" env:"WORK_DIR"`
}

type RedisConfig struct {
	Addr string `yaml:"addr" env:"REDIS_ADDR"`
	DB   int    `yaml:"db"`
}

type RateLimiterConfig struct {
	Interval           time.Duration `yaml:"interval"`
	UserLimit          int           `yaml:"user_limit"`
	EnableTokenLimiter bool          `yaml:"enable_token_limiter"`
}

type AuthConfig struct {
	// Tokens maps API keys to their per-interval request limit. Empty disables API keys.
	Tokens map[string]int `yaml:"tokens"`
}

// Default returns the configuration used when no file and no environment overrides are present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8000,
			BodyLimitBytes: 64 * 1024 * 1024,
			ReadTimeout:    60 * time.Second,
			WriteTimeout:   15 * time.Minute,
		},
		Logger: LoggerConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 14,
			Compress:   true,
		},
		Fetch: FetchConfig{
			DownloadTimeout: 30 * time.Second,
			HeadTimeout:     10 * time.Second,
		},
		Transcoder: TranscoderConfig{
			Binary:  "ffmpeg",
			Timeout: 10 * time.Minute,
		},
		RateLimiter: RateLimiterConfig{
			Interval: time.Minute,
		},
	}
}

// Load reads the file referenced by CONFIG_PATH (if any) and applies environment overrides.
// It panics on invalid configuration.
func Load() Config {
	return LoadFrom(os.Getenv("CONFIG_PATH"))
}

// LoadFrom reads the YAML file at path on top of the defaults and applies
// environment overrides. An empty path skips the file. It panics on invalid configuration.
func LoadFrom(path string) Config {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			panic(fmt.Sprintf("failed to read config file %q: %v", path, err))
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			panic(fmt.Sprintf("failed to parse config file %q: %v", path, err))
		}
	}

	if err := env.Parse(&cfg); err != nil {
		panic(fmt.Sprintf("failed to parse environment: %v", err))
	}

	if cfg.Workspace.WorkDir == "" {
		cfg.Workspace.WorkDir = os.TempDir()
	}

	if err := cfg.Validate(); err != nil {
		panic(err.Error())
	}
	return cfg
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.Server.Port < 0 || c.Server.Port > 65535:
		return fmt.Errorf("invalid server.port: %d", c.Server.Port)
	case c.Server.BodyLimitBytes <= 0:
		return fmt.Errorf("invalid server.body_limit_bytes: %d", c.Server.BodyLimitBytes)
	case c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0:
		return fmt.Errorf("server timeouts must not be negative")
	case c.Fetch.DownloadTimeout <= 0:
		return fmt.Errorf("invalid fetch.download_timeout: %s", c.Fetch.DownloadTimeout)
	case c.Fetch.HeadTimeout <= 0:
		return fmt.Errorf("invalid fetch.head_timeout: %s", c.Fetch.HeadTimeout)
	case c.Transcoder.Binary == "":
		return fmt.Errorf("transcoder.binary must be set")
	case c.Transcoder.Timeout < 0:
		return fmt.Errorf("invalid transcoder.timeout: %s", c.Transcoder.Timeout)
	case c.RateLimiter.UserLimit < 0:
		return fmt.Errorf("invalid rate_limiter.user_limit: %d", c.RateLimiter.UserLimit)
	case (c.RateLimiter.UserLimit > 0 || c.RateLimiter.EnableTokenLimiter) && c.RateLimiter.Interval <= 0:
		return fmt.Errorf("invalid rate_limiter.interval: %s", c.RateLimiter.Interval)
	}
	for token, limit := range c.Auth.Tokens {
		if token == "" || limit < 0 {
			return fmt.Errorf("invalid auth token entry")
		}
	}
	return nil
}
