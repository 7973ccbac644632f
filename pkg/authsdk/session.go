package authsdk

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Session holds a bearer token and calls the protected routes with it.
// There is no refresh flow: once the token expires a new one has to be
// issued with the user's credentials.
type Session struct {
	client *SDKClient

	mu        sync.RWMutex
	token     string
	userID    int64
	expiresAt time.Time
}

// AuthenticateWithPassword issues a token and wraps it in a Session.
func (c *SDKClient) AuthenticateWithPassword(ctx context.Context, username, password string) (*Session, error) {
	tok, err := c.IssueToken(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return c.NewSessionFromToken(tok.Token, tok.UserID, tok.Expiry()), nil
}

// NewSessionFromToken wraps a token obtained elsewhere.
func (c *SDKClient) NewSessionFromToken(token string, userID int64, expiresAt time.Time) *Session {
	return &Session{client: c, token: token, userID: userID, expiresAt: expiresAt}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) UserID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Expired reports whether the token's exp has passed.
func (s *Session) Expired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !time.Now().Before(s.expiresAt)
}

func (s *Session) authHeaders() map[string]string {
	return map[string]string{"Authorization": bearer(s.Token())}
}

// Validate checks the session's own token.
func (s *Session) Validate(ctx context.Context) (*ValidateResponse, error) {
	return s.client.ValidateToken(ctx, s.Token())
}

// Me returns the profile of the session's user.
func (s *Session) Me(ctx context.Context) (*UserResponse, error) {
	resp, err := s.client.doJSON(ctx, http.MethodGet, "/v1/me", nil, s.authHeaders())
	if err != nil {
		return nil, err
	}

	var u UserResponse
	if err := decodeJSON(resp, &u, http.StatusOK); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser adds a directory user. The session's user must be an
// administrator.
func (s *Session) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	resp, err := s.client.doJSON(ctx, http.MethodPost, "/v1/users", req, s.authHeaders())
	if err != nil {
		return nil, err
	}

	var u UserResponse
	if err := decodeJSON(resp, &u, http.StatusCreated); err != nil {
		return nil, err
	}
	return &u, nil
}
