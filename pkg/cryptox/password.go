package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

var (
	ErrPasswordMismatch = errors.New("password does not match")
	ErrInvalidHash      = errors.New("invalid hash format")
)

// HashPassword generates a PHC-format Argon2id hash string including salt and parameters.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	p := phcParams{memory: memory, iterations: iterations, parallelism: parallelism}
	hash := p.key(password, salt, keyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.memory,
		p.iterations,
		p.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword compares a plaintext password against a PHC-style Argon2id
// hash. Returns ErrPasswordMismatch or an error wrapping ErrInvalidHash.
func VerifyPassword(password, encodedHash string) error {
	p, salt, expected, err := parsePHC(encodedHash)
	if err != nil {
		return err
	}

	computed := p.key(password, salt, uint32(len(expected))) // #nosec G115 - hash length is tiny

	if subtle.ConstantTimeCompare(computed, expected) == 1 {
		return nil
	}
	return ErrPasswordMismatch
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// BurnPasswordCheck runs a full verification against a throwaway hash so an
// unknown login costs the same as a wrong password.
func BurnPasswordCheck(password string) {
	dummyOnce.Do(func() {
		dummyHash, _ = HashPassword("jwtshield-dummy-password")
	})
	_ = VerifyPassword(password, dummyHash)
}

type phcParams struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
}

func (p phcParams) key(password string, salt []byte, length uint32) []byte {
	return argon2.IDKey([]byte(password+GetPepper()), salt, p.iterations, p.memory, p.parallelism, length)
}

// parsePHC splits $argon2id$v=19$m=X,t=Y,p=Z$salt$hash.
func parsePHC(encoded string) (phcParams, []byte, []byte, error) {
	var p phcParams

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return p, nil, nil, fmt.Errorf("%w: expected 6 parts", ErrInvalidHash)
	}
	if parts[1] != "argon2id" {
		return p, nil, nil, fmt.Errorf("%w: not argon2id", ErrInvalidHash)
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return p, nil, nil, fmt.Errorf("%w: wrong version", ErrInvalidHash)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism); err != nil {
		return p, nil, nil, fmt.Errorf("%w: parameters: %w", ErrInvalidHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: salt: %w", ErrInvalidHash, err)
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return p, nil, nil, fmt.Errorf("%w: hash", ErrInvalidHash)
	}

	return p, salt, hash, nil
}
