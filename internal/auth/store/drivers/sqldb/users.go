package sqldb

import (
	"context"
	"strings"

	"github.com/aussiebroadwan/jwtshield/internal/auth/domain"
)

type usersRepo struct{ repoBase }

const userColumns = `id, login, email, nicename, display_name, password_hash, roles, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u                domain.User
		roles            string
		created, updated int64
	)
	err := row.Scan(&u.ID, &u.Login, &u.Email, &u.Nicename, &u.DisplayName, &u.PasswordHash, &roles, &u.Status, &created, &updated)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.Roles = strings.Fields(roles)
	u.CreatedAt = fromMillis(created)
	u.UpdatedAt = fromMillis(updated)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	return scanUser(r.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) GetUserByLogin(ctx context.Context, login string) (domain.User, error) {
	return scanUser(r.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE login = ?`, login))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email)))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	now := r.now().UTC()
	if u.Status == "" {
		u.Status = domain.UserStatusActive
	}
	u.Email = strings.ToLower(u.Email)

	err := r.queryRow(ctx, `
		INSERT INTO users (login, email, nicename, display_name, password_hash, roles, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		u.Login, u.Email, u.Nicename, u.DisplayName, u.PasswordHash,
		strings.Join(u.Roles, " "), u.Status, toMillis(now), toMillis(now),
	).Scan(&u.ID)
	if err != nil {
		return domain.User{}, r.mapWriteErr(err)
	}

	u.CreatedAt = fromMillis(toMillis(now))
	u.UpdatedAt = u.CreatedAt
	return u, nil
}

func (r *usersRepo) UpdateUserStatus(ctx context.Context, id int64, status string) error {
	return requireAffected(r.exec(ctx,
		`UPDATE users SET status = ?, updated_at = ? WHERE id = ?`,
		status, toMillis(r.now()), id,
	))
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := r.queryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}
