package http

import (
	"net/http"

	"github.com/aussiebroadwan/jwtshield/internal/auth/lockout"
	"github.com/aussiebroadwan/jwtshield/internal/auth/service"
	"github.com/aussiebroadwan/jwtshield/pkg/authsdk"
	"github.com/aussiebroadwan/jwtshield/pkg/httpx"
)

// ValidateHandler serves POST /validate.
type ValidateHandler struct {
	AuthService      *service.AuthService
	Limiter          *lockout.Limiter
	ClientIdentifier *httpx.ClientIdentifier
}

// ServeHTTP godoc
//
//	@Summary		Validate a token
//	@Description	Verifies the bearer token in the Authorization header and returns who it belongs to.
//	@Tags			Token
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.ValidateResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"jwt_auth_no_auth_header, jwt_auth_bad_auth_header, jwt_auth_bad_token or jwt_auth_invalid_token"
//	@Failure		429	{object}	authsdk.ErrorResponse	"jwt_auth_rate_limited"
//	@Failure		500	{object}	authsdk.ErrorResponse	"jwt_auth_bad_config"
//	@Router			/validate [post].
func (h *ValidateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	client := h.ClientIdentifier.Identify(r)
	key := lockout.Key(client, "validate")

	if !admit(w, r, h.Limiter, key, client) {
		return
	}

	p, err := h.AuthService.Validate(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		recordFailure(r, h.Limiter, key, client, err)
		writeError(w, r, err)
		return
	}

	roles := p.Roles
	if roles == nil {
		roles = []string{}
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.ValidateResponse{
		Code:      authsdk.CodeValidToken,
		UserID:    p.UserID,
		Email:     p.Email,
		Roles:     roles,
		ExpiresAt: p.ExpiresAt.Unix(),
	})
}
