package config

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPPort           string        `mapstructure:"HTTP_PORT"`
	APIBaseURL         string        `mapstructure:"API_BASE_URL"`
	RequestTimeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownTimeout    time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
	MaxRequestBodySize int64         `mapstructure:"MAX_REQUEST_BODY_SIZE"`
	MaxProofSize       int64         `mapstructure:"MAX_PROOF_SIZE"`

	SessionKey     string        `mapstructure:"SESSION_KEY"`
	SessionTTL     time.Duration `mapstructure:"SESSION_TTL"`
	CookieSecure   bool          `mapstructure:"COOKIE_SECURE"`
	StorageBackend string        `mapstructure:"STORAGE_BACKEND"`
	RedisAddr      string        `mapstructure:"REDIS_ADDR"`
	RedisPassword  string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int           `mapstructure:"REDIS_DB"`

	PaymentProvider    string `mapstructure:"PAYMENT_PROVIDER"`
	PaymentProviderURL string `mapstructure:"PAYMENT_PROVIDER_URL"`
	PaymentProviderKey string `mapstructure:"PAYMENT_PROVIDER_KEY"`

	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	OrdersTopic  string `mapstructure:"ORDERS_TOPIC"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogPretty bool   `mapstructure:"LOG_PRETTY"`
}

var defaults = map[string]any{
	"HTTP_PORT":             "8080",
	"API_BASE_URL":          "http://localhost:5000",
	"REQUEST_TIMEOUT":       30 * time.Second,
	"SHUTDOWN_TIMEOUT":      10 * time.Second,
	"MAX_REQUEST_BODY_SIZE": int64(1 << 20), // 1MB
	"MAX_PROOF_SIZE":        int64(2 << 20), // 2MB
	"SESSION_KEY":           "",
	"SESSION_TTL":           24 * time.Hour,
	"COOKIE_SECURE":         false,
	"STORAGE_BACKEND":       "memory",
	"REDIS_ADDR":            "localhost:6379",
	"REDIS_PASSWORD":        "",
	"REDIS_DB":              0,
	"PAYMENT_PROVIDER":      "sandbox",
	"PAYMENT_PROVIDER_URL":  "https://api.stripe.com",
	"PAYMENT_PROVIDER_KEY":  "",
	"KAFKA_BROKERS":         "",
	"ORDERS_TOPIC":          "storefront-orders",
	"LOG_LEVEL":             "info",
	"LOG_PRETTY":            false,
}

// Load reads configuration from the environment, optionally seeded by the
// file named in STOREFRONT_CONFIG (or ./.env when present).
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	path := os.Getenv("STOREFRONT_CONFIG")
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.APIBaseURL == "" {
		errs = append(errs, errors.New("API_BASE_URL is required"))
	}
	switch c.StorageBackend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("STORAGE_BACKEND must be memory or redis, got %q", c.StorageBackend))
	}
	switch c.PaymentProvider {
	case "sandbox", "http":
	default:
		errs = append(errs, fmt.Errorf("PAYMENT_PROVIDER must be sandbox or http, got %q", c.PaymentProvider))
	}
	if c.PaymentProvider == "http" && c.PaymentProviderKey == "" {
		errs = append(errs, errors.New("PAYMENT_PROVIDER_KEY is required for the http payment provider"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// Brokers splits KAFKA_BROKERS; empty means order events are not published.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// SessionSecret returns the cookie signing key. When SESSION_KEY is unset a
// random key is generated and generated is true; sessions then do not
// survive a restart.
func (c *Config) SessionSecret() (key []byte, generated bool, err error) {
	if c.SessionKey != "" {
		if len(c.SessionKey) < 32 {
			return nil, false, errors.New("SESSION_KEY must be at least 32 bytes")
		}
		return []byte(c.SessionKey), false, nil
	}
	key = make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("generate session key: %w", err)
	}
	return key, true, nil
}
