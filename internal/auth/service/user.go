package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/jwtshield/internal/auth/domain"
	"github.com/aussiebroadwan/jwtshield/internal/auth/store"
	"github.com/aussiebroadwan/jwtshield/pkg/cryptox"
	"github.com/aussiebroadwan/jwtshield/pkg/slogx"
)

var ErrUserExists = errors.New("user already exists")

// Directory verifies credentials. Every credential failure must come back as
// ErrInvalidCredentials; other errors mean the directory itself failed.
type Directory interface {
	Authenticate(ctx context.Context, login, password string) (domain.Principal, error)
}

// UserService is the built-in Directory over store.Users.
type UserService struct {
	Store store.Store
}

var _ Directory = (*UserService)(nil)

// Authenticate accepts a login or an email address. Unknown users still pay
// for one password verification so response time does not reveal whether
// the account exists.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (domain.Principal, error) {
	u, err := s.lookup(ctx, login)
	if errors.Is(err, store.ErrNotFound) {
		cryptox.BurnPasswordCheck(password)
		return domain.Principal{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.Principal{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			slogx.FromContext(ctx).Error("stored password hash is unusable",
				slog.Int64("user_id", u.ID),
				slog.Any("error", err),
			)
		}
		return domain.Principal{}, ErrInvalidCredentials
	}

	if !u.Active() {
		return domain.Principal{}, ErrInvalidCredentials
	}

	return u.Principal(), nil
}

// lookup matches the login column first. Logins may contain "@", so an
// email match is only tried when no login matches.
func (s *UserService) lookup(ctx context.Context, login string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByLogin(ctx, login)
	if errors.Is(err, store.ErrNotFound) && strings.Contains(login, "@") {
		return s.Store.Users().GetUserByEmail(ctx, login)
	}
	return u, err
}

// GetUser fetches a user by id.
func (s *UserService) GetUser(ctx context.Context, id int64) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, id)
}

// Roles satisfies httpx.RoleResolver.
func (s *UserService) Roles(ctx context.Context, id int64) ([]string, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Roles, nil
}

// CreateUser hashes the password and stores a new active user.
func (s *UserService) CreateUser(ctx context.Context, data domain.NewUserData) (domain.User, error) {
	return createUser(ctx, s.Store, data)
}

func createUser(ctx context.Context, st store.Store, data domain.NewUserData) (domain.User, error) {
	hash, err := cryptox.HashPassword(data.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	nicename := data.Nicename
	if nicename == "" {
		nicename = strings.ToLower(data.Login)
	}
	display := data.DisplayName
	if display == "" {
		display = data.Login
	}
	roles := data.Roles
	if len(roles) == 0 {
		roles = []string{domain.RoleSubscriber}
	}

	u, err := st.Users().CreateUser(ctx, domain.User{
		Login:        data.Login,
		Email:        data.Email,
		Nicename:     nicename,
		DisplayName:  display,
		PasswordHash: hash,
		Roles:        roles,
		Status:       domain.UserStatusActive,
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		return domain.User{}, ErrUserExists
	}
	return u, err
}

// LockUser stops a user from obtaining new tokens. Tokens already issued
// stay valid until they expire.
func (s *UserService) LockUser(ctx context.Context, id int64) error {
	return s.Store.Users().UpdateUserStatus(ctx, id, domain.UserStatusLocked)
}
