package domain

// BootstrapData describes the first administrator account.
type BootstrapData struct {
	Login       string
	Email       string
	DisplayName string
	Password    string
}

const (
	// RoleAdministrator may manage directory users.
	RoleAdministrator = "administrator"

	// RoleSubscriber is given to users created without roles.
	RoleSubscriber = "subscriber"
)

// NewUserData describes an account created by an administrator.
type NewUserData struct {
	Login       string
	Email       string
	Nicename    string
	DisplayName string
	Password    string
	Roles       []string
}
