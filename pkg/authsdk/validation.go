package authsdk

import (
	"net/mail"
	"regexp"
	"strings"
)

const (
	requiredReason = "required"

	maxLoginLength    = 60
	maxPasswordLength = 4096
	minPasswordLength = 8
)

var (
	reLogin = regexp.MustCompile(`^[A-Za-z0-9_.@-]+$`)
	reRole  = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)
)

// Validate reports field problems, or nil when the request is acceptable.
func (b BootstrapRequest) Validate() map[string]string {
	errs := make(map[string]string)
	validateAccount(errs, b.Login, b.Email, b.Password)
	if len(b.DisplayName) > 250 {
		errs["display_name"] = "too long (max 250)"
	}
	return nilIfEmpty(errs)
}

// Validate reports field problems, or nil when the request is acceptable.
func (r CreateUserRequest) Validate() map[string]string {
	errs := make(map[string]string)
	validateAccount(errs, r.Login, r.Email, r.Password)

	seen := make(map[string]struct{}, len(r.Roles))
	for _, role := range r.Roles {
		if !reRole.MatchString(role) {
			errs["roles"] = "must be lowercase names"
			break
		}
		if _, dup := seen[role]; dup {
			errs["roles"] = "duplicate role"
			break
		}
		seen[role] = struct{}{}
	}
	return nilIfEmpty(errs)
}

func validateAccount(errs map[string]string, login, email, password string) {
	login = strings.TrimSpace(login)
	switch {
	case login == "":
		errs["login"] = requiredReason
	case len(login) > maxLoginLength:
		errs["login"] = "too long (max 60)"
	case !reLogin.MatchString(login):
		errs["login"] = "must only contain a-z, A-Z, 0-9, _, ., @ or -"
	}

	if strings.TrimSpace(email) == "" {
		errs["email"] = requiredReason
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		errs["email"] = "not a valid address"
	}

	switch {
	case password == "":
		errs["password"] = requiredReason
	case len(password) < minPasswordLength:
		errs["password"] = "too short (min 8)"
	case len(password) > maxPasswordLength:
		errs["password"] = "too long (max 4096)"
	}
}

func nilIfEmpty(errs map[string]string) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	return errs
}
