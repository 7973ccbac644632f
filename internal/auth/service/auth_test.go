package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/jwtshield/internal/auth/domain"
	"github.com/aussiebroadwan/jwtshield/internal/auth/store"
	"github.com/aussiebroadwan/jwtshield/pkg/cryptox"
	"github.com/aussiebroadwan/jwtshield/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestIssueThenValidate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	issued, err := env.svc.Issue(ctx, "bob", testPassword, "203.0.113.7")
	require.NoError(t, err)
	require.NotEmpty(t, issued.Token)
	require.Equal(t, env.bob.ID, issued.Principal.ID)
	require.Equal(t, "bob@example.com", issued.Principal.Email)
	require.Equal(t, "Bob Builder", issued.Principal.DisplayName)
	require.Equal(t, time.Hour, issued.ExpiresAt.Sub(issued.IssuedAt))

	v, err := env.svc.Validate(ctx, "Bearer "+issued.Token)
	require.NoError(t, err)
	require.Equal(t, env.bob.ID, v.UserID)
	require.Equal(t, "bob@example.com", v.Email)
	require.Equal(t, []string{"subscriber"}, v.Roles)
	require.True(t, v.ExpiresAt.Equal(issued.ExpiresAt))

	env.svc.Wait()
	rec, err := env.store.TokenRecords().GetTokenRecordByHash(ctx, cryptox.FingerprintToken(issued.Token))
	require.NoError(t, err)
	require.Equal(t, env.bob.ID, rec.UserID)
	require.Equal(t, "203.0.113.7", rec.IPAddress)
	require.True(t, rec.ExpiresAt.Equal(issued.ExpiresAt))
	require.NotEqual(t, issued.Token, rec.TokenHash)
}

func TestIssueByEmail(t *testing.T) {
	env := newTestEnv(t)

	issued, err := env.svc.Issue(context.Background(), "Bob@Example.com", testPassword, "")
	require.NoError(t, err)
	require.Equal(t, env.bob.ID, issued.Principal.ID)
}

func TestIssueRejectsCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	locked, err := env.users.CreateUser(ctx, domain.NewUserData{Login: "carol", Email: "carol@example.com", Password: testPassword})
	require.NoError(t, err)
	require.NoError(t, env.users.LockUser(ctx, locked.ID))

	tests := []struct {
		name     string
		username string
		password string
		want     error
	}{
		{"empty username", "", "x", ErrEmptyCredentials},
		{"empty password", "bob", "", ErrEmptyCredentials},
		{"wrong password", "bob", "wrongpass", ErrInvalidCredentials},
		{"unknown user", "nobody", testPassword, ErrInvalidCredentials},
		{"locked user", "carol", testPassword, ErrInvalidCredentials},
		{"username too long", strings.Repeat("b", domain.MaxLoginLength+1), testPassword, ErrInvalidCredentials},
		{"password too long", "bob", strings.Repeat("p", domain.MaxPasswordLength+1), ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issued, err := env.svc.Issue(ctx, tt.username, tt.password, "")
			require.ErrorIs(t, err, tt.want)
			require.Nil(t, issued)
		})
	}
}

func TestMissingSecretIsBadConfig(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	issued, err := env.svc.Issue(ctx, "bob", testPassword, "")
	require.NoError(t, err)

	env.svc.Secret = nil

	_, err = env.svc.Issue(ctx, "bob", testPassword, "")
	require.ErrorIs(t, err, ErrBadConfig)

	// Credentials are still checked first.
	_, err = env.svc.Issue(ctx, "bob", "wrongpass", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.svc.Validate(ctx, "Bearer "+issued.Token)
	require.ErrorIs(t, err, ErrBadConfig)
}

func TestValidateHeaderErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		header string
		want   error
	}{
		{"", ErrNoAuthHeader},
		{"Token abc", ErrBadAuthHeader},
		{"bearer abc", ErrBadAuthHeader},
		{"Bearer", ErrBadAuthHeader},
		{"Bearer    ", ErrBadAuthHeader},
		{"Bearerabc", ErrBadAuthHeader},
		{"Bearer abc", ErrInvalidToken},
	}
	for _, tt := range tests {
		_, err := env.svc.Validate(context.Background(), tt.header)
		require.ErrorIs(t, err, tt.want, "header %q", tt.header)
	}
}

func TestValidateRejectsTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	issued, err := env.svc.Issue(ctx, "bob", testPassword, "")
	require.NoError(t, err)

	t.Run("other secret", func(t *testing.T) {
		other := env.variant(func(s *AuthService) { s.Secret = []byte(strings.Repeat("z", 32)) })
		_, err := other.Validate(ctx, "Bearer "+issued.Token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other issuer", func(t *testing.T) {
		other := env.variant(func(s *AuthService) { s.Issuer = "https://elsewhere.example.com" })
		_, err := other.Validate(ctx, "Bearer "+issued.Token)
		require.ErrorIs(t, err, ErrBadToken)
	})

	t.Run("missing user id", func(t *testing.T) {
		claims := jwtx.NewClaims(testIssuer, 0, "ghost@example.com", nil, time.Hour, env.clock.Now())
		tok, err := env.svc.Codec.Encode(claims, testSecret)
		require.NoError(t, err)

		_, err = env.svc.Validate(ctx, "Bearer "+tok)
		require.ErrorIs(t, err, ErrBadToken)
	})

	t.Run("tampered", func(t *testing.T) {
		_, err := env.svc.Validate(ctx, "Bearer "+issued.Token+"x")
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestExpiredTokenIsInvalid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	issued, err := env.svc.Issue(ctx, "bob", testPassword, "")
	require.NoError(t, err)

	env.svc.Wait()
	env.clock.Advance(time.Hour + time.Second)

	_, err = env.svc.Validate(ctx, "Bearer "+issued.Token)
	require.ErrorIs(t, err, ErrInvalidToken)
	require.Equal(t, APIError(err), APIError(ErrInvalidToken))
}

func TestIssueKeepsFiveNewestRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var hashes []string
	for range 6 {
		issued, err := env.svc.Issue(ctx, "bob", testPassword, "")
		require.NoError(t, err)
		hashes = append(hashes, cryptox.FingerprintToken(issued.Token))

		env.svc.Wait()
		env.clock.Advance(time.Second)
	}

	recs, err := env.store.TokenRecords().ListUserTokenRecords(ctx, env.bob.ID)
	require.NoError(t, err)
	require.Len(t, recs, domain.MaxTokensPerUser)
	for i, rec := range recs {
		require.Equal(t, hashes[len(hashes)-1-i], rec.TokenHash)
	}

	_, err = env.store.TokenRecords().GetTokenRecordByHash(ctx, hashes[0])
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestIssueSameSecondIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a, err := env.svc.Issue(ctx, "bob", testPassword, "")
	require.NoError(t, err)
	b, err := env.svc.Issue(ctx, "bob", testPassword, "")
	require.NoError(t, err)
	require.Equal(t, a.Token, b.Token)

	env.svc.Wait()
	recs, err := env.store.TokenRecords().ListUserTokenRecords(ctx, env.bob.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestIssuePurgesExpiredRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	other, err := env.users.CreateUser(ctx, domain.NewUserData{Login: "dave", Email: "dave@example.com", Password: testPassword})
	require.NoError(t, err)

	stale, err := env.store.TokenRecords().CreateTokenRecord(ctx, domain.TokenRecord{
		UserID:    other.ID,
		TokenHash: "stale",
		CreatedAt: env.clock.Now().Add(-2 * time.Hour),
		ExpiresAt: env.clock.Now().Add(-time.Hour),
	})
	require.NoError(t, err)

	_, err = env.svc.Issue(ctx, "bob", testPassword, "")
	require.NoError(t, err)
	env.svc.Wait()

	_, err = env.store.TokenRecords().GetTokenRecord(ctx, stale.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestValidateIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	issued, err := env.svc.Issue(ctx, "bob", testPassword, "")
	require.NoError(t, err)
	env.svc.Wait()

	hash := cryptox.FingerprintToken(issued.Token)
	before, err := env.store.TokenRecords().GetTokenRecordByHash(ctx, hash)
	require.NoError(t, err)
	require.Nil(t, before.LastUsedAt)

	for i := range 3 {
		env.clock.Advance(time.Minute)

		v, err := env.svc.Validate(ctx, "Bearer "+issued.Token)
		require.NoError(t, err)
		require.Equal(t, env.bob.ID, v.UserID)
		env.svc.Wait()

		after, err := env.store.TokenRecords().GetTokenRecordByHash(ctx, hash)
		require.NoError(t, err)
		require.NotNil(t, after.LastUsedAt)
		require.True(t, after.LastUsedAt.Equal(env.clock.Now()), "validation %d", i)

		require.Equal(t, before.ID, after.ID)
		require.Equal(t, before.TokenHash, after.TokenHash)
		require.True(t, before.CreatedAt.Equal(after.CreatedAt))
		require.True(t, before.ExpiresAt.Equal(after.ExpiresAt))
	}
}

func TestTouchModes(t *testing.T) {
	ctx := context.Background()

	issueTwo := func(t *testing.T, env *testEnv) (older, newer string) {
		t.Helper()
		a, err := env.svc.Issue(ctx, "bob", testPassword, "")
		require.NoError(t, err)
		env.svc.Wait()
		env.clock.Advance(time.Second)

		b, err := env.svc.Issue(ctx, "bob", testPassword, "")
		require.NoError(t, err)
		env.svc.Wait()
		return a.Token, b.Token
	}

	lastUsed := func(t *testing.T, env *testEnv, token string) *time.Time {
		t.Helper()
		rec, err := env.store.TokenRecords().GetTokenRecordByHash(ctx, cryptox.FingerprintToken(token))
		require.NoError(t, err)
		return rec.LastUsedAt
	}

	t.Run("token", func(t *testing.T) {
		env := newTestEnv(t)
		older, newer := issueTwo(t, env)

		_, err := env.svc.Validate(ctx, "Bearer "+older)
		require.NoError(t, err)
		env.svc.Wait()

		require.NotNil(t, lastUsed(t, env, older))
		require.Nil(t, lastUsed(t, env, newer))
	})

	t.Run("latest", func(t *testing.T) {
		env := newTestEnv(t)
		env.svc.TouchMode = TouchLatest
		older, newer := issueTwo(t, env)

		_, err := env.svc.Validate(ctx, "Bearer "+older)
		require.NoError(t, err)
		env.svc.Wait()

		require.Nil(t, lastUsed(t, env, older))
		require.NotNil(t, lastUsed(t, env, newer))
	})

	t.Run("missing record does not fail validation", func(t *testing.T) {
		env := newTestEnv(t)
		claims := jwtx.NewClaims(testIssuer, env.bob.ID, "bob@example.com", nil, time.Hour, env.clock.Now())
		tok, err := env.svc.Codec.Encode(claims, testSecret)
		require.NoError(t, err)

		_, err = env.svc.Validate(ctx, "Bearer "+tok)
		require.NoError(t, err)
	})
}
