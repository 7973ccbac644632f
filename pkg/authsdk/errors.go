package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aussiebroadwan/jwtshield/pkg/httpx"
)

// Error codes returned by the service. The set is closed; clients may switch
// on them.
const (
	CodeEmptyCredentials   = "jwt_auth_empty_credentials"
	CodeInvalidCredentials = "jwt_auth_invalid_credentials"
	CodeBadConfig          = "jwt_auth_bad_config"
	CodeNoAuthHeader       = "jwt_auth_no_auth_header"
	CodeBadAuthHeader      = "jwt_auth_bad_auth_header"
	CodeBadToken           = "jwt_auth_bad_token"
	CodeInvalidToken       = "jwt_auth_invalid_token"
	CodeRateLimited        = httpx.ThrottledCode
	CodeError              = "jwt_auth_error"

	// CodeValidToken is the success code of POST /validate.
	CodeValidToken = "jwt_auth_valid_token"
)

// Error is the structured error body shared by the server, which writes it,
// and the client, which returns it.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`

	// RetryAfter is filled from the Retry-After header of a 429 response.
	RetryAfter time.Duration `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches on Code and Status so errors.Is(err, authsdk.ErrInvalidToken)
// works on errors decoded from a response.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code && t.Status == e.Status
}

// WriteError writes e as {code, message, data: {status}}.
func (e *Error) WriteError(w http.ResponseWriter) {
	httpx.WriteProblem(w, e.Status, e.Code, e.Message)
}

var (
	ErrEmptyCredentials = &Error{
		Status:  http.StatusBadRequest,
		Code:    CodeEmptyCredentials,
		Message: "Username and password are required.",
	}
	ErrInvalidCredentials = &Error{
		Status:  http.StatusUnauthorized,
		Code:    CodeInvalidCredentials,
		Message: "Invalid username or password.",
	}
	ErrBadConfig = &Error{
		Status:  http.StatusInternalServerError,
		Code:    CodeBadConfig,
		Message: "JWT is not configured properly.",
	}
	ErrNoAuthHeader = &Error{
		Status:  http.StatusUnauthorized,
		Code:    CodeNoAuthHeader,
		Message: "Authorization header not found.",
	}
	ErrBadAuthHeader = &Error{
		Status:  http.StatusUnauthorized,
		Code:    CodeBadAuthHeader,
		Message: "Authorization header malformed.",
	}
	ErrBadToken = &Error{
		Status:  http.StatusUnauthorized,
		Code:    CodeBadToken,
		Message: "Invalid token.",
	}
	ErrInvalidToken = &Error{
		Status:  http.StatusUnauthorized,
		Code:    CodeInvalidToken,
		Message: "Token is invalid.",
	}
	ErrRateLimited = &Error{
		Status:  http.StatusTooManyRequests,
		Code:    CodeRateLimited,
		Message: "Too many attempts. Please try again later.",
	}
	ErrInternal = &Error{
		Status:  http.StatusInternalServerError,
		Code:    CodeError,
		Message: "Authentication error.",
	}
	ErrMalformedRequest = &Error{
		Status:  http.StatusBadRequest,
		Code:    CodeError,
		Message: "Request body could not be parsed.",
	}
	ErrForbidden = &Error{
		Status:  http.StatusForbidden,
		Code:    CodeError,
		Message: "You are not allowed to do that.",
	}
	ErrConflict = &Error{
		Status:  http.StatusConflict,
		Code:    CodeError,
		Message: "A user with that login or email already exists.",
	}
)

// parseErrorResponse turns a non-2xx response into an *Error.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var retryAfter time.Duration
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		retryAfter = time.Duration(secs) * time.Second
	}

	var e ErrorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Code != "" {
		return &Error{Status: resp.StatusCode, Code: e.Code, Message: e.Message, RetryAfter: retryAfter}
	}

	return &Error{
		Status:  resp.StatusCode,
		Code:    CodeError,
		Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
