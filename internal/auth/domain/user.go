package domain

import "time"

// Account states. Only active users can obtain tokens.
const (
	UserStatusActive = "active"
	UserStatusLocked = "locked"
)

// Login and password limits enforced before any directory lookup.
const (
	MaxLoginLength    = 60
	MaxPasswordLength = 4096
)

// User is a directory account.
type User struct {
	ID           int64
	Login        string
	Email        string
	Nicename     string
	DisplayName  string
	PasswordHash string // argon2 encoded
	Roles        []string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is the read-only view of an authenticated user.
type Principal struct {
	ID          int64
	Login       string
	Email       string
	Nicename    string
	DisplayName string
	Roles       []string
}

// Principal returns the public view of u.
func (u User) Principal() Principal {
	return Principal{
		ID:          u.ID,
		Login:       u.Login,
		Email:       u.Email,
		Nicename:    u.Nicename,
		DisplayName: u.DisplayName,
		Roles:       u.Roles,
	}
}

// Active reports whether u may authenticate.
func (u User) Active() bool { return u.Status == "" || u.Status == UserStatusActive }
