package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/aussiebroadwan/jwtshield/internal/auth/domain"
	"github.com/aussiebroadwan/jwtshield/internal/auth/store"
	"github.com/aussiebroadwan/jwtshield/pkg/cryptox"
	"github.com/aussiebroadwan/jwtshield/pkg/jwtx"
	"github.com/aussiebroadwan/jwtshield/pkg/slogx"
)

// TouchMode selects which record a successful validation marks as used.
type TouchMode string

const (
	// TouchToken marks the record whose hash matches the presented token.
	TouchToken TouchMode = "token"

	// TouchLatest marks the user's most recently issued record, whichever
	// token was presented.
	TouchLatest TouchMode = "latest"
)

// DefaultStoreTimeout bounds background store work.
const DefaultStoreTimeout = 5 * time.Second

// AuthService issues and validates tokens. One value is built at startup
// and shared by every request.
type AuthService struct {
	Directory Directory
	Store     store.Store
	Codec     jwtx.Codec

	// Secret signs and verifies tokens. Empty means unconfigured: the
	// service runs but every issue/validate fails with ErrBadConfig.
	Secret []byte

	// Issuer is the service base URL, written to and required in "iss".
	Issuer string

	TTL          time.Duration
	TouchMode    TouchMode
	StoreTimeout time.Duration

	// Now defaults to time.Now.
	Now func() time.Time

	bg sync.WaitGroup
}

func (s *AuthService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *AuthService) ttl() time.Duration {
	if s.TTL <= 0 {
		return jwtx.DefaultTokenTTL
	}
	return s.TTL
}

func (s *AuthService) storeTimeout() time.Duration {
	if s.StoreTimeout <= 0 {
		return DefaultStoreTimeout
	}
	return s.StoreTimeout
}

// Configured reports whether a signing secret is present.
func (s *AuthService) Configured() bool { return len(s.Secret) > 0 }

// Issue verifies credentials and returns a freshly signed token. Missing
// input is ErrEmptyCredentials; every other credential problem, over-long
// input included, is ErrInvalidCredentials so the response never says which
// part was wrong.
func (s *AuthService) Issue(ctx context.Context, username, password, clientAddr string) (*domain.IssuedToken, error) {
	l := slogx.FromContext(ctx)

	if username == "" || password == "" {
		return nil, ErrEmptyCredentials
	}
	if len(username) > domain.MaxLoginLength || len(password) > domain.MaxPasswordLength {
		return nil, ErrInvalidCredentials
	}

	principal, err := s.Directory.Authenticate(ctx, username, password)
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			l.Error("directory failed during authentication", slog.Any("error", err))
		}
		return nil, ErrInvalidCredentials
	}

	if !s.Configured() {
		l.Error("refusing to issue token: no secret key configured")
		return nil, ErrBadConfig
	}

	claims := jwtx.NewClaims(s.Issuer, principal.ID, principal.Email, principal.Roles, s.ttl(), s.now())
	token, err := s.Codec.Encode(claims, s.Secret)
	if err != nil {
		l.Error("failed to encode token", slog.Int64("user_id", principal.ID), slog.Any("error", err))
		return nil, ErrTokenEncode
	}

	issued := &domain.IssuedToken{
		Token:     token,
		Principal: principal,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}

	if err := s.record(ctx, issued, clientAddr); err != nil {
		l.Error("failed to persist token record", slog.Int64("user_id", principal.ID), slog.Any("error", err))
		return nil, fmt.Errorf("persist token record: %w", err)
	}

	s.maintain(ctx, principal.ID)

	l.Info("token issued",
		slog.Int64("user_id", principal.ID),
		slog.Time("expires_at", issued.ExpiresAt),
	)
	return issued, nil
}

// record stores the fingerprint of an issued token. Two logins by the same
// user within one second produce the same token, so a duplicate hash means
// the record is already there.
func (s *AuthService) record(ctx context.Context, issued *domain.IssuedToken, clientAddr string) error {
	rec := domain.TokenRecord{
		UserID:    issued.Principal.ID,
		TokenHash: cryptox.FingerprintToken(issued.Token),
		CreatedAt: s.now(),
		ExpiresAt: issued.ExpiresAt,
		IPAddress: clientAddr,
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.TokenRecords().CreateTokenRecord(ctx, rec)
		return err
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		return nil
	}
	return err
}

// maintain trims the user's records and purges expired ones in the
// background. It outlives the request but not StoreTimeout.
func (s *AuthService) maintain(ctx context.Context, userID int64) {
	s.background(ctx, func(ctx context.Context) {
		l := slogx.FromContext(ctx)

		trimmed, err := s.Store.TokenRecords().TrimUserTokenRecords(ctx, userID, domain.MaxTokensPerUser)
		if err != nil {
			l.Warn("failed to trim token records", slog.Int64("user_id", userID), slog.Any("error", err))
		}

		purged, err := s.Store.TokenRecords().DeleteExpiredTokenRecords(ctx, s.now())
		if err != nil {
			l.Warn("failed to purge expired token records", slog.Any("error", err))
		}

		if trimmed > 0 || purged > 0 {
			l.Debug("token records pruned",
				slog.Int64("user_id", userID),
				slog.Int64("trimmed", trimmed),
				slog.Int64("purged", purged),
			)
		}
	})
}

func (s *AuthService) background(ctx context.Context, fn func(ctx context.Context)) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout())
		defer cancel()
		fn(ctx)
	}()
}

// Wait blocks until background store work has finished.
func (s *AuthService) Wait() { s.bg.Wait() }

// Validate checks an Authorization header value and returns who the token
// was issued to.
func (s *AuthService) Validate(ctx context.Context, header string) (*domain.ValidatedPrincipal, error) {
	token, err := bearerToken(header)
	if err != nil {
		return nil, err
	}

	claims, err := s.decode(ctx, token)
	if err != nil {
		return nil, err
	}

	s.touch(ctx, claims.UserID(), token)

	return &domain.ValidatedPrincipal{
		UserID:    claims.UserID(),
		Email:     claims.Data.User.Email,
		Roles:     claims.Data.User.Roles,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *AuthService) decode(ctx context.Context, token string) (jwtx.Claims, error) {
	l := slogx.FromContext(ctx)

	if !s.Configured() {
		l.Error("refusing to validate token: no secret key configured")
		return jwtx.Claims{}, ErrBadConfig
	}

	claims, err := s.Codec.Decode(token, s.Secret)
	if err != nil {
		l.Debug("token rejected", slog.Any("error", err))
		return jwtx.Claims{}, ErrInvalidToken
	}

	if err := claims.ValidateIssuer(s.Issuer); err != nil {
		l.Debug("token rejected", slog.String("issuer", claims.Issuer))
		return jwtx.Claims{}, ErrBadToken
	}
	if claims.UserID() == 0 {
		return jwtx.Claims{}, ErrBadToken
	}
	return claims, nil
}

// touch records use of a token. Failures never affect validation.
func (s *AuthService) touch(ctx context.Context, userID int64, token string) {
	mode := s.TouchMode
	hash := cryptox.FingerprintToken(token)

	s.background(ctx, func(ctx context.Context) {
		var err error
		if mode == TouchLatest {
			err = s.Store.TokenRecords().TouchLastUsed(ctx, userID, s.now())
		} else {
			err = s.Store.TokenRecords().TouchLastUsedByHash(ctx, hash, s.now())
		}

		l := slogx.FromContext(ctx)
		switch {
		case errors.Is(err, store.ErrNotFound):
			l.Debug("no token record to touch", slog.Int64("user_id", userID))
		case err != nil:
			l.Warn("failed to touch token record", slog.Int64("user_id", userID), slog.Any("error", err))
		}
	})
}

// bearerToken extracts the token from "Bearer <token>". The scheme is
// matched case-sensitively.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrNoAuthHeader
	}

	rest, ok := strings.CutPrefix(header, "Bearer")
	if !ok || rest == "" || !unicode.IsSpace(rune(rest[0])) {
		return "", ErrBadAuthHeader
	}

	token := strings.TrimSpace(rest)
	if token == "" {
		return "", ErrBadAuthHeader
	}
	return token, nil
}
