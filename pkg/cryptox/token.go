package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
)

// SecretLength is the length of secrets produced by GenerateSecret.
const SecretLength = 64

const secretCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()-_[]{}<>~+=,.;:/?|"

// GenerateSecret returns a random printable secret suitable as a signing key.
func GenerateSecret(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("secret length must be positive, got %d", length)
	}

	limit := big.NewInt(int64(len(secretCharset)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate secret: %w", err)
		}
		out[i] = secretCharset[n.Int64()]
	}
	return string(out), nil
}

// FingerprintToken returns the lowercase hex SHA-256 of a token. Stored
// records only ever hold this value.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
