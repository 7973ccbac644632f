package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/jwtshield/internal/auth/domain"
	"github.com/aussiebroadwan/jwtshield/internal/auth/store"
	"github.com/aussiebroadwan/jwtshield/pkg/slogx"
)

var (
	ErrBootstrapAlready      = errors.New("system already bootstrapped")
	ErrBootstrapUnauthorized = errors.New("unauthorized bootstrap attempt")
	ErrBootstrapDisabled     = errors.New("bootstrap is disabled")
)

// BootstrapService creates the first administrator of an empty directory.
type BootstrapService struct {
	Store store.Store
	Token string // Pre-configured bootstrap token; empty disables bootstrap
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !empty, nil
}

func (s *BootstrapService) Bootstrap(ctx context.Context, token string, req domain.BootstrapData) (domain.User, error) {
	l := slogx.FromContext(ctx)

	if s.Token == "" {
		return domain.User{}, ErrBootstrapDisabled
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.Token)) != 1 {
		l.Warn("unauthorized bootstrap attempt")
		return domain.User{}, ErrBootstrapUnauthorized
	}

	var admin domain.User
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		empty, err := tx.Users().IsEmpty(ctx)
		if err != nil {
			return err
		}
		if !empty {
			return ErrBootstrapAlready
		}

		admin, err = createUser(ctx, tx, domain.NewUserData{
			Login:       req.Login,
			Email:       req.Email,
			DisplayName: req.DisplayName,
			Password:    req.Password,
			Roles:       []string{domain.RoleAdministrator},
		})
		return err
	})
	if errors.Is(err, ErrBootstrapAlready) {
		l.Warn("attempted bootstrap on already-bootstrapped system")
		return domain.User{}, err
	}
	if err != nil {
		l.Error("failed to create administrator", slog.Any("error", err))
		return domain.User{}, err
	}

	l.Info("successfully bootstrapped system", slog.Int64("admin_user_id", admin.ID))
	return admin, nil
}
