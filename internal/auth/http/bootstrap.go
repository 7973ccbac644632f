package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/jwtshield/internal/auth/domain"
	"github.com/aussiebroadwan/jwtshield/internal/auth/service"
	"github.com/aussiebroadwan/jwtshield/pkg/authsdk"
	"github.com/aussiebroadwan/jwtshield/pkg/httpx"
)

type BootstrapHandler struct {
	BootstrapService *service.BootstrapService
}

// ServeHTTP handles the bootstrap endpoint for initial system setup.
//
//	@Summary		Bootstrap the directory
//	@Description	Creates the first administrator. Only available when a bootstrap token is configured, and only while the directory is empty.
//	@Tags			Bootstrap
//	@Accept			json
//	@Produce		json
//	@Param			X-Bootstrap-Token	header		string							true	"Bootstrap token"
//	@Param			request				body		authsdk.BootstrapRequest		true	"Administrator account"
//	@Success		201					{object}	authsdk.BootstrapResponse
//	@Failure		400					{object}	authsdk.ValidationErrorResponse	"Invalid request body or validation failed"
//	@Failure		401					{object}	authsdk.ErrorResponse			"Missing or invalid bootstrap token"
//	@Failure		404					{object}	authsdk.ErrorResponse			"Bootstrap not enabled"
//	@Failure		409					{object}	authsdk.ErrorResponse			"Already bootstrapped"
//	@Router			/v1/bootstrap [post].
func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.BootstrapService.Token == "" {
		httpx.WriteProblem(w, http.StatusNotFound, authsdk.CodeError, "Bootstrap is not enabled.")
		return
	}

	token := r.Header.Get("X-Bootstrap-Token")
	if token == "" {
		httpx.WriteProblem(w, http.StatusUnauthorized, authsdk.CodeError, "Bootstrap token is required in the X-Bootstrap-Token header.")
		return
	}

	var req authsdk.BootstrapRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCredentialsBody)).Decode(&req); err != nil {
		authsdk.ErrMalformedRequest.WriteError(w)
		return
	}
	if errs := req.Validate(); errs != nil {
		writeValidationError(w, errs)
		return
	}

	admin, err := h.BootstrapService.Bootstrap(r.Context(), token, domain.BootstrapData{
		Login:       strings.TrimSpace(req.Login),
		Email:       req.Email,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Password:    req.Password,
	})
	switch {
	case errors.Is(err, service.ErrBootstrapUnauthorized):
		httpx.WriteProblem(w, http.StatusUnauthorized, authsdk.CodeError, "Invalid bootstrap token.")
		return
	case errors.Is(err, service.ErrBootstrapAlready):
		httpx.WriteProblem(w, http.StatusConflict, authsdk.CodeError, "The directory has already been bootstrapped.")
		return
	case err != nil:
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.BootstrapResponse{UserID: admin.ID})
}
