package auth_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/jwtshield/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestTokenLifecycle(t *testing.T) {
	baseURL := setupAuthContainer(t, map[string]string{"TOKEN_TTL": "2h"})
	client := authsdk.NewSDKClient(baseURL)
	ctx := t.Context()

	admin := bootstrapAdmin(t, client)

	user, err := admin.CreateUser(ctx, authsdk.CreateUserRequest{
		Login:       "bob",
		Email:       "bob@example.com",
		DisplayName: "Bob Builder",
		Password:    "BobPassword1",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"subscriber"}, user.Roles)

	t.Run("issue by login", func(t *testing.T) {
		tok, err := client.IssueToken(ctx, "bob", "BobPassword1")
		require.NoError(t, err)
		require.NotEmpty(t, tok.Token)
		require.Equal(t, user.ID, tok.UserID)
		require.Equal(t, "bob@example.com", tok.UserEmail)
		require.Equal(t, "Bob Builder", tok.UserDisplayName)
		require.Equal(t, int64(2*time.Hour/time.Second), tok.ExpiresAt-tok.IssuedAt)
	})

	t.Run("issue by email and validate", func(t *testing.T) {
		session, err := client.AuthenticateWithPassword(ctx, "bob@example.com", "BobPassword1")
		require.NoError(t, err)
		require.False(t, session.Expired())

		v, err := session.Validate(ctx)
		require.NoError(t, err)
		require.Equal(t, authsdk.CodeValidToken, v.Code)
		require.Equal(t, user.ID, v.UserID)
		require.Equal(t, []string{"subscriber"}, v.Roles)
	})

	t.Run("empty credentials", func(t *testing.T) {
		_, err := client.IssueToken(ctx, "", "")
		requireAPIError(t, err, authsdk.ErrEmptyCredentials)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := client.IssueToken(ctx, "bob", "nope-nope")
		requireAPIError(t, err, authsdk.ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := client.IssueToken(ctx, "mallory", "whatever1")
		requireAPIError(t, err, authsdk.ErrInvalidCredentials)
	})

	t.Run("subscriber cannot create users", func(t *testing.T) {
		session, err := client.AuthenticateWithPassword(ctx, "bob", "BobPassword1")
		require.NoError(t, err)
		_, err = session.CreateUser(ctx, authsdk.CreateUserRequest{
			Login: "carol", Email: "carol@example.com", Password: "CarolPassword1",
		})
		requireAPIError(t, err, authsdk.ErrForbidden)
	})
}

func TestValidateRejectsBadTokens(t *testing.T) {
	baseURL := setupAuthContainer(t, nil)
	client := authsdk.NewSDKClient(baseURL)
	ctx := t.Context()

	admin := bootstrapAdmin(t, client)
	good := admin.Token()

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"tampered signature", good[:len(good)-2] + "xx"},
		{"unsigned", "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJpc3MiOiJ4In0."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.ValidateToken(ctx, tt.token)
			require.Error(t, err)
			var apiErr *authsdk.Error
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, 401, apiErr.Status)
			require.Contains(t, []string{authsdk.CodeInvalidToken, authsdk.CodeBadToken}, apiErr.Code)
		})
	}

	v, err := client.ValidateToken(ctx, good)
	require.NoError(t, err)
	require.Equal(t, admin.UserID(), v.UserID)
}
