package app

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// LoadSecret returns the signing secret from the config or the file it
// names. An empty secret is allowed: the service starts, readiness reports
// it, and token endpoints answer jwt_auth_bad_config.
func LoadSecret(cfg Config, logger *slog.Logger) ([]byte, error) {
	secret := cfg.SecretKey

	if cfg.SecretKeyFile != "" {
		b, err := os.ReadFile(cfg.SecretKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read secret key file: %w", err)
		}
		secret = strings.TrimSpace(string(b))

		if n := len(secret); n > 0 && (n < MinSecretLength || n > MaxSecretLength) {
			return nil, fmt.Errorf("secret key file must hold %d to %d bytes, got %d", MinSecretLength, MaxSecretLength, n)
		}
		logger.Info("signing secret loaded from file", "path", cfg.SecretKeyFile)
	}

	if secret == "" {
		logger.Warn("no signing secret configured; token endpoints will answer jwt_auth_bad_config")
		return nil, nil
	}
	return []byte(secret), nil
}
