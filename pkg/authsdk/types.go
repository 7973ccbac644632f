package authsdk

import "time"

// ErrorResponse is the wire form of Error.
type ErrorResponse struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Data    ErrorData `json:"data"`
}

type ErrorData struct {
	Status int `json:"status"`
}

// TokenRequest is the body of POST /token. The endpoint also accepts the
// same fields form encoded.
type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is returned by POST /token.
type TokenResponse struct {
	Token           string `json:"token"`
	UserID          int64  `json:"user_id"`
	UserEmail       string `json:"user_email"`
	UserNicename    string `json:"user_nicename"`
	UserDisplayName string `json:"user_display_name"`

	// IssuedAt and ExpiresAt are unix seconds.
	IssuedAt  int64 `json:"issued_at"`
	ExpiresAt int64 `json:"expires_at"`
}

// Expiry returns ExpiresAt as a time.
func (t *TokenResponse) Expiry() time.Time { return time.Unix(t.ExpiresAt, 0) }

// ValidateResponse is returned by POST /validate.
type ValidateResponse struct {
	Code      string   `json:"code"`
	UserID    int64    `json:"user_id"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
	ExpiresAt int64    `json:"expires_at"`
}

// UserResponse describes a directory user. It never carries the password.
type UserResponse struct {
	ID          int64    `json:"id"`
	Login       string   `json:"login"`
	Email       string   `json:"email"`
	Nicename    string   `json:"nicename"`
	DisplayName string   `json:"display_name"`
	Roles       []string `json:"roles"`
}

// CreateUserRequest is the body of POST /v1/users.
type CreateUserRequest struct {
	Login       string   `json:"login"`
	Email       string   `json:"email"`
	Nicename    string   `json:"nicename,omitempty"`
	DisplayName string   `json:"display_name,omitempty"`
	Password    string   `json:"password"`
	Roles       []string `json:"roles,omitempty"`
}

// BootstrapRequest creates the first administrator.
type BootstrapRequest struct {
	Login       string `json:"login"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	Password    string `json:"password"`
}

// BootstrapResponse carries the id of the created administrator.
type BootstrapResponse struct {
	UserID int64 `json:"user_id"`
}

// ValidationErrorResponse is returned when a request body fails field checks.
type ValidationErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Data    ErrorData         `json:"data"`
	Details map[string]string `json:"details,omitempty"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports each dependency on /readyz.
type HealthChecks struct {
	Database string `json:"database"`
	Secret   string `json:"secret"`
	Counters string `json:"counters"`
}
