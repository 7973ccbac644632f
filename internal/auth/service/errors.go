package service

import (
	"errors"

	"github.com/aussiebroadwan/jwtshield/internal/auth/lockout"
	"github.com/aussiebroadwan/jwtshield/pkg/authsdk"
)

var (
	ErrEmptyCredentials   = errors.New("empty credentials")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrBadConfig          = errors.New("token secret is not configured")
	ErrNoAuthHeader       = errors.New("authorization header missing")
	ErrBadAuthHeader      = errors.New("authorization header malformed")
	ErrBadToken           = errors.New("token issuer or subject rejected")
	ErrInvalidToken       = errors.New("token failed verification")
	ErrTokenEncode        = errors.New("token could not be encoded")
)

// APIError maps an error from this package (or lockout) to the response the
// client sees. Anything unknown becomes a generic 500; its cause stays in
// the logs.
func APIError(err error) *authsdk.Error {
	var apiErr *authsdk.Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, ErrEmptyCredentials):
		return authsdk.ErrEmptyCredentials
	case errors.Is(err, ErrInvalidCredentials):
		return authsdk.ErrInvalidCredentials
	case errors.Is(err, ErrBadConfig):
		return authsdk.ErrBadConfig
	case errors.Is(err, ErrNoAuthHeader):
		return authsdk.ErrNoAuthHeader
	case errors.Is(err, ErrBadAuthHeader):
		return authsdk.ErrBadAuthHeader
	case errors.Is(err, ErrBadToken):
		return authsdk.ErrBadToken
	case errors.Is(err, ErrInvalidToken):
		return authsdk.ErrInvalidToken
	case errors.Is(err, lockout.ErrRateLimited):
		return authsdk.ErrRateLimited
	default:
		return authsdk.ErrInternal
	}
}

// CountsAsFailure reports whether err is the client's fault and so should
// count toward its lockout.
func CountsAsFailure(err error) bool {
	switch {
	case errors.Is(err, ErrEmptyCredentials),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrNoAuthHeader),
		errors.Is(err, ErrBadAuthHeader),
		errors.Is(err, ErrBadToken),
		errors.Is(err, ErrInvalidToken):
		return true
	}
	return false
}
