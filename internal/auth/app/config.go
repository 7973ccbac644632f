package app

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/aussiebroadwan/jwtshield/internal/auth/service"
	"github.com/aussiebroadwan/jwtshield/pkg/jwtx"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Signing secret bounds, in bytes.
const (
	MinSecretLength = 32
	MaxSecretLength = 256
)

type Config struct {
	BaseURL        string `env:"BASE_URL" envDefault:"http://localhost:8080"` // Issuer written to and required in every token
	SecretKey      string `env:"SECRET_KEY"`                                  // Empty: the service runs but refuses to issue or validate
	SecretKeyFile  string `env:"SECRET_KEY_FILE"`                             // Read instead of SECRET_KEY when set
	BootstrapToken string `env:"BOOTSTRAP_TOKEN"`                             // Optional: token required to perform bootstrap

	TokenTTL     time.Duration `env:"TOKEN_TTL" envDefault:"168h"`
	Algorithm    string        `env:"JWT_ALGORITHM" envDefault:"HS256"`
	Leeway       time.Duration `env:"JWT_LEEWAY" envDefault:"0s"`
	TouchMode    string        `env:"TOUCH_MODE" envDefault:"token"`
	StoreTimeout time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`

	LockoutAttempts int           `env:"LOCKOUT_MAX_ATTEMPTS" envDefault:"5"`
	LockoutDuration time.Duration `env:"LOCKOUT_DURATION" envDefault:"15m"`

	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"sqlite"` // sqlite or postgres
	DatabaseFile   string `env:"DATABASE_FILE" envDefault:"auth.db"`
	DatabaseURL    string `env:"DATABASE_URL"` // Required for postgres
	RedisURL       string `env:"REDIS_URL"`    // Optional: lockout counters in redis

	TrustedProxyHeaders []string `env:"TRUSTED_PROXY_HEADERS" envSeparator:","`
	PepperFile          string   `env:"PEPPER_FILE" envDefault:"pepper"`

	Env                  string        `env:"ENV" envDefault:"dev"`
	LogLevel             string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat            string        `env:"LOG_FORMAT" envDefault:"json"`
	Port                 int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`
}

// LoadConfig reads a .env file if there is one, then the environment.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return ParseConfig(nil)
}

// ParseConfig parses and validates configuration. A nil environment means
// the process environment.
func ParseConfig(environ map[string]string) (Config, error) {
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}

	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate applies the bounds an administrator could otherwise get wrong.
func (c *Config) Validate() error {
	var errs []error

	if n := len(c.SecretKey); n > 0 && (n < MinSecretLength || n > MaxSecretLength) {
		errs = append(errs, fmt.Errorf("SECRET_KEY must be %d to %d bytes, got %d", MinSecretLength, MaxSecretLength, n))
	}
	if c.SecretKey != "" && c.SecretKeyFile != "" {
		errs = append(errs, errors.New("set SECRET_KEY or SECRET_KEY_FILE, not both"))
	}
	if c.TokenTTL < jwtx.MinTokenTTL || c.TokenTTL > jwtx.MaxTokenTTL {
		errs = append(errs, fmt.Errorf("TOKEN_TTL must be between %s and %s", jwtx.MinTokenTTL, jwtx.MaxTokenTTL))
	}
	if c.Algorithm != "HS256" {
		errs = append(errs, fmt.Errorf("JWT_ALGORITHM %q is not supported, only HS256", c.Algorithm))
	}
	if c.Leeway < 0 || c.Leeway > jwtx.MaxLeeway {
		errs = append(errs, fmt.Errorf("JWT_LEEWAY must be between 0 and %s", jwtx.MaxLeeway))
	}
	switch service.TouchMode(c.TouchMode) {
	case service.TouchToken, service.TouchLatest:
	default:
		errs = append(errs, fmt.Errorf("TOUCH_MODE must be %q or %q", service.TouchToken, service.TouchLatest))
	}
	if c.LockoutAttempts < 1 {
		errs = append(errs, errors.New("LOCKOUT_MAX_ATTEMPTS must be at least 1"))
	}
	if c.LockoutDuration <= 0 {
		errs = append(errs, errors.New("LOCKOUT_DURATION must be positive"))
	}
	switch c.DatabaseDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER %q is not supported", c.DatabaseDriver))
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		errs = append(errs, errors.New("BASE_URL must be an http(s) URL"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
