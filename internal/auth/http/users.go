package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/jwtshield/internal/auth/domain"
	"github.com/aussiebroadwan/jwtshield/internal/auth/service"
	"github.com/aussiebroadwan/jwtshield/internal/auth/store"
	"github.com/aussiebroadwan/jwtshield/pkg/authsdk"
	"github.com/aussiebroadwan/jwtshield/pkg/httpx"
	"github.com/aussiebroadwan/jwtshield/pkg/slogx"
)

func userResponse(u domain.User) authsdk.UserResponse {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return authsdk.UserResponse{
		ID:          u.ID,
		Login:       u.Login,
		Email:       u.Email,
		Nicename:    u.Nicename,
		DisplayName: u.DisplayName,
		Roles:       roles,
	}
}

type MeHandler struct {
	UserService *service.UserService
}

// ServeHTTP godoc
//
//	@Summary		Current user
//	@Description	Returns the profile of the user the bearer token belongs to.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.UserResponse
//	@Failure		401	{object}	authsdk.ErrorResponse
//	@Router			/v1/me [get].
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, _ := httpx.UserIDFromContext(ctx)
	u, err := h.UserService.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		// The token outlived its user.
		err = service.ErrBadToken
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, userResponse(u))
}

type CreateUserHandler struct {
	UserService *service.UserService
}

// ServeHTTP godoc
//
//	@Summary		Create a user
//	@Description	Adds a directory user. Requires the administrator role.
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.CreateUserRequest	true	"New user"
//	@Success		201		{object}	authsdk.UserResponse
//	@Failure		400		{object}	authsdk.ValidationErrorResponse
//	@Failure		401		{object}	authsdk.ErrorResponse
//	@Failure		403		{object}	authsdk.ErrorResponse
//	@Failure		409		{object}	authsdk.ErrorResponse
//	@Router			/v1/users [post].
func (h *CreateUserHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := slogx.FromContext(ctx)

	var req authsdk.CreateUserRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCredentialsBody)).Decode(&req); err != nil {
		authsdk.ErrMalformedRequest.WriteError(w)
		return
	}
	if errs := req.Validate(); errs != nil {
		writeValidationError(w, errs)
		return
	}

	u, err := h.UserService.CreateUser(ctx, domain.NewUserData{
		Login:       strings.TrimSpace(req.Login),
		Email:       req.Email,
		Nicename:    strings.TrimSpace(req.Nicename),
		DisplayName: strings.TrimSpace(req.DisplayName),
		Password:    req.Password,
		Roles:       req.Roles,
	})
	if errors.Is(err, service.ErrUserExists) {
		authsdk.ErrConflict.WriteError(w)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	l.Info("user created", "user_id", u.ID)
	httpx.WriteJSON(w, http.StatusCreated, userResponse(u))
}

func writeValidationError(w http.ResponseWriter, errs map[string]string) {
	httpx.WriteJSON(w, http.StatusBadRequest, authsdk.ValidationErrorResponse{
		Code:    authsdk.CodeError,
		Message: "Validation failed for some fields.",
		Data:    authsdk.ErrorData{Status: http.StatusBadRequest},
		Details: errs,
	})
}
