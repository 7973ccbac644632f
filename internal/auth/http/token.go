package http

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/aussiebroadwan/jwtshield/internal/auth/lockout"
	"github.com/aussiebroadwan/jwtshield/internal/auth/service"
	"github.com/aussiebroadwan/jwtshield/pkg/authsdk"
	"github.com/aussiebroadwan/jwtshield/pkg/httpx"
	"github.com/aussiebroadwan/jwtshield/pkg/slogx"
)

// maxCredentialsBody bounds a /token body: a 4096 byte password plus a
// login, with room for encoding.
const maxCredentialsBody = 16 << 10

// TokenHandler serves POST /token.
type TokenHandler struct {
	AuthService      *service.AuthService
	Limiter          *lockout.Limiter
	ClientIdentifier *httpx.ClientIdentifier
}

// ServeHTTP godoc
//
//	@Summary		Issue a token
//	@Description	Exchanges a username (or email) and password for a signed HS256 token.
//	@Description	Five failed attempts from one client lock it out for 15 minutes.
//	@Tags			Token
//	@Accept			json,x-www-form-urlencoded
//	@Produce		json
//	@Param			request	body		authsdk.TokenRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.TokenResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"jwt_auth_empty_credentials"
//	@Failure		401		{object}	authsdk.ErrorResponse	"jwt_auth_invalid_credentials"
//	@Failure		429		{object}	authsdk.ErrorResponse	"jwt_auth_rate_limited"
//	@Failure		500		{object}	authsdk.ErrorResponse	"jwt_auth_bad_config or jwt_auth_error"
//	@Header			429		{integer}	Retry-After				"seconds until the lockout ends"
//	@Router			/token [post].
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	client := h.ClientIdentifier.Identify(r)
	key := lockout.Key(client, "token")

	if !admit(w, r, h.Limiter, key, client) {
		return
	}

	creds, err := readCredentials(w, r)
	if err != nil {
		slogx.FromContext(ctx).Info("unreadable token request", "error", err)
		authsdk.ErrMalformedRequest.WriteError(w)
		return
	}

	issued, err := h.AuthService.Issue(ctx, creds.Username, creds.Password, client)
	if err != nil {
		recordFailure(r, h.Limiter, key, client, err)
		writeError(w, r, err)
		return
	}

	if err := h.Limiter.Clear(ctx, key); err != nil {
		slogx.FromContext(ctx).Error("failed to clear lockout counter", "error", err)
	}

	p := issued.Principal
	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		Token:           issued.Token,
		UserID:          p.ID,
		UserEmail:       p.Email,
		UserNicename:    p.Nicename,
		UserDisplayName: p.DisplayName,
		IssuedAt:        issued.IssuedAt.Unix(),
		ExpiresAt:       issued.ExpiresAt.Unix(),
	})
}

// readCredentials accepts a JSON body, or form fields for every other
// content type.
func readCredentials(w http.ResponseWriter, r *http.Request) (authsdk.TokenRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCredentialsBody)

	var req authsdk.TokenRequest
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "application/json" {
		err := json.NewDecoder(r.Body).Decode(&req)
		return req, err
	}

	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.Username = r.Form.Get("username")
	req.Password = r.Form.Get("password")
	return req, nil
}
