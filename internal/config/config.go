// Package config loads runtime settings from the environment (and an optional .env file).
package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	EnvLocal = "local"
	EnvProd  = "prod"

	// only accepted when ENV=local
	devSecretKey = "dev-secret-change-me"
)

type Config struct {
	Env            string `env:"ENV" env-default:"local"`
	DatabaseURL    string `env:"DATABASE_URL" env-required:"true"`
	SecretKey      string `env:"SECRET_KEY"`
	AutoMigrate    bool   `env:"AUTO_MIGRATE" env-default:"true"`
	InitDBEndpoint bool   `env:"INIT_DB_ENDPOINT" env-default:"false"`
	GRPCHealthAddr string `env:"GRPC_HEALTH_ADDR"`
	TrustProxy     bool   `env:"TRUST_PROXY" env-default:"false"`
	HTTPServer
	Session
	RateLimit
}

type HTTPServer struct {
	Address     string        `env:"HTTP_ADDR" env-default:":8080"`
	Timeout     time.Duration `env:"HTTP_TIMEOUT" env-default:"10s"`
	IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

type Session struct {
	RedisURL string        `env:"REDIS_URL"`
	TTL      time.Duration `env:"SESSION_TTL" env-default:"168h"`
}

// RateLimit applies per client IP to the public form posts.
type RateLimit struct {
	RPS   float64 `env:"LOGIN_RATE_RPS" env-default:"1"`
	Burst int     `env:"LOGIN_RATE_BURST" env-default:"5"`
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	const op = "config.Load"
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func (c *Config) validate() error {
	switch c.Env {
	case EnvLocal, EnvProd:
	default:
		return fmt.Errorf("unknown ENV %q", c.Env)
	}
	if c.SecretKey == "" {
		if c.Env != EnvLocal {
			return errors.New("SECRET_KEY is required outside local")
		}
		c.SecretKey = devSecretKey
	}
	if c.Session.TTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("rate limit must be positive")
	}
	return nil
}

func (c *Config) IsProd() bool { return c.Env == EnvProd }
