package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	StateSQLite = "sqlite"
	StateRedis  = "redis"
	StateMemory = "memory"
)

type Config struct {
	APIURL         string        `env:"STOREFRONT_API_URL,default=http://localhost:3000/api"`
	RequestTimeout time.Duration `env:"STOREFRONT_TIMEOUT,default=10s"`

	StateBackend string        `env:"STOREFRONT_STATE,default=sqlite"`
	StatePath    string        `env:"STOREFRONT_STATE_PATH"`
	RedisAddr    string        `env:"STOREFRONT_REDIS_ADDR,default=localhost:6379"`
	RedisTTL     time.Duration `env:"STOREFRONT_REDIS_TTL,default=0s"`

	// Delivery fee policy; amounts are decimal strings.
	DeliveryFee           string `env:"STOREFRONT_DELIVERY_FEE,default=0"`
	FreeDeliveryThreshold string `env:"STOREFRONT_FREE_DELIVERY_THRESHOLD,default=0"`
	Currency              string `env:"STOREFRONT_CURRENCY,default=$"`

	LogLevel       string `env:"STOREFRONT_LOG_LEVEL,default=warn"`
	LogDevelopment bool   `env:"STOREFRONT_LOG_DEV,default=false"`

	BreakerFailures uint32        `env:"STOREFRONT_BREAKER_FAILURES,default=5"`
	BreakerCooldown time.Duration `env:"STOREFRONT_BREAKER_COOLDOWN,default=30s"`
}

// Load reads the optional .env files (default ".env") and decodes the environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if cfg.StatePath == "" {
		cfg.StatePath = defaultStatePath()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid STOREFRONT_API_URL %q", c.APIURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("STOREFRONT_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	switch c.StateBackend {
	case StateSQLite, StateRedis, StateMemory:
	default:
		return fmt.Errorf("unknown STOREFRONT_STATE %q (want sqlite, redis or memory)", c.StateBackend)
	}
	for name, v := range map[string]string{
		"STOREFRONT_DELIVERY_FEE":            c.DeliveryFee,
		"STOREFRONT_FREE_DELIVERY_THRESHOLD": c.FreeDeliveryThreshold,
	} {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, v, err)
		}
		if d.IsNegative() {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

// Fee is the configured delivery fee. Call after Validate.
func (c *Config) Fee() decimal.Decimal {
	return decimal.RequireFromString(c.DeliveryFee)
}

// FreeThreshold is the subtotal from which delivery is free; zero disables it.
func (c *Config) FreeThreshold() decimal.Decimal {
	return decimal.RequireFromString(c.FreeDeliveryThreshold)
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "storefront", "state.db")
}
