package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aussiebroadwan/jwtshield/internal/auth/domain"
	"github.com/aussiebroadwan/jwtshield/internal/auth/store"
	"github.com/aussiebroadwan/jwtshield/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/jwtshield/internal/auth/store/drivers/sqldb"
	"github.com/aussiebroadwan/jwtshield/pkg/cryptox"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres runs a throwaway postgres and returns its URL.
func startPostgres(t *testing.T) string {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "jwtshield",
				"POSTGRES_PASSWORD": "jwtshield",
				"POSTGRES_DB":       "jwtshield",
			},
			// The server restarts once after initdb.
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://jwtshield:jwtshield@%s:%s/jwtshield?sslmode=disable", host, port.Port())
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// TestStore runs against one container; subtests use distinct logins and
// keys so they don't interfere.
func TestStore(t *testing.T) {
	url := startPostgres(t)
	ctx := context.Background()

	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	s, err := postgres.NewStore(ctx, url, sqldb.WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(ctx))

	createUser := func(t *testing.T, st store.Store, login string) domain.User {
		t.Helper()
		u, err := st.Users().CreateUser(ctx, domain.User{
			Login:        login,
			Email:        login + "@Example.com",
			PasswordHash: "hash",
			Roles:        []string{"subscriber", "editor"},
		})
		require.NoError(t, err)
		return u
	}

	addRecord := func(t *testing.T, userID int64, created time.Time, token string) domain.TokenRecord {
		t.Helper()
		rec, err := s.TokenRecords().CreateTokenRecord(ctx, domain.TokenRecord{
			UserID:    userID,
			TokenHash: cryptox.FingerprintToken(token),
			CreatedAt: created,
			ExpiresAt: created.Add(time.Hour),
			IPAddress: "203.0.113.7",
		})
		require.NoError(t, err)
		return rec
	}

	t.Run("users", func(t *testing.T) {
		empty, err := s.Users().IsEmpty(ctx)
		require.NoError(t, err)
		require.True(t, empty)

		u := createUser(t, s, "alice")
		require.NotZero(t, u.ID)
		require.Equal(t, "alice@example.com", u.Email)

		byEmail, err := s.Users().GetUserByEmail(ctx, "ALICE@example.com")
		require.NoError(t, err)
		require.Equal(t, u.ID, byEmail.ID)
		require.Equal(t, []string{"subscriber", "editor"}, byEmail.Roles)

		_, err = s.Users().CreateUser(ctx, domain.User{Login: "alice", Email: "x@example.com", PasswordHash: "x"})
		require.ErrorIs(t, err, store.ErrAlreadyExists)

		_, err = s.Users().GetUserByLogin(ctx, "nobody")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("token records", func(t *testing.T) {
		u := createUser(t, s, "bob")

		var last domain.TokenRecord
		for i := range 7 {
			last = addRecord(t, u.ID, clock.Now().Add(time.Duration(i)*time.Second), fmt.Sprintf("bob-%d", i))
		}

		_, err := s.TokenRecords().CreateTokenRecord(ctx, domain.TokenRecord{
			UserID:    u.ID,
			TokenHash: cryptox.FingerprintToken("bob-0"),
			ExpiresAt: clock.Now(),
		})
		require.ErrorIs(t, err, store.ErrAlreadyExists)

		deleted, err := s.TokenRecords().TrimUserTokenRecords(ctx, u.ID, domain.MaxTokensPerUser)
		require.NoError(t, err)
		require.EqualValues(t, 2, deleted)

		recs, err := s.TokenRecords().ListUserTokenRecords(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, recs, domain.MaxTokensPerUser)
		require.Equal(t, last.ID, recs[0].ID)

		byHash, err := s.TokenRecords().GetTokenRecordByHash(ctx, cryptox.FingerprintToken("bob-6"))
		require.NoError(t, err)
		require.Equal(t, last.ID, byHash.ID)
		require.True(t, byHash.CreatedAt.Equal(last.CreatedAt))

		used := clock.Now().Add(time.Minute)
		require.NoError(t, s.TokenRecords().TouchLastUsed(ctx, u.ID, used))
		got, err := s.TokenRecords().GetTokenRecord(ctx, last.ID)
		require.NoError(t, err)
		require.NotNil(t, got.LastUsedAt)
		require.True(t, got.LastUsedAt.Equal(used))

		// bob-2 expired a second earlier, bob-3 expires exactly now and stays.
		n, err := s.TokenRecords().DeleteExpiredTokenRecords(ctx, clock.Now().Add(time.Hour+3*time.Second))
		require.NoError(t, err)
		require.EqualValues(t, 1, n)
	})

	t.Run("counters", func(t *testing.T) {
		c := s.Counters()

		for want := 1; want <= 3; want++ {
			n, err := c.IncrementCounter(ctx, "pg-key", 15*time.Minute)
			require.NoError(t, err)
			require.Equal(t, want, n)
		}

		ttl, err := c.CounterTTL(ctx, "pg-key")
		require.NoError(t, err)
		require.Equal(t, 15*time.Minute, ttl)

		clock.Advance(16 * time.Minute)
		n, err := c.GetCounter(ctx, "pg-key")
		require.NoError(t, err)
		require.Zero(t, n)

		removed, err := c.DeleteExpiredCounters(ctx, clock.Now())
		require.NoError(t, err)
		require.EqualValues(t, 1, removed)
	})

	t.Run("transactions roll back", func(t *testing.T) {
		errBoom := fmt.Errorf("boom")
		err := s.WithTx(ctx, func(tx store.Tx) error {
			createUser(t, tx, "rolled")
			return errBoom
		})
		require.ErrorIs(t, err, errBoom)

		_, err = s.Users().GetUserByLogin(ctx, "rolled")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}
