package organizations

import (
	"errors"
	"time"
)

var (
	ErrOrgNotFound          = errors.New("organization not found")
	ErrOrganizationNotEmpty = errors.New("organization still has servers")
	ErrNoValidFields        = errors.New("no valid update properties specified")
)

// Membership roles, ordered weakest to strongest.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
	RoleOwner  = "owner"
)

type Organization struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Members     []Member  `json:"members,omitempty"`
}

type Member struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role"`
}

func ValidRole(role string) bool {
	return role == RoleMember || role == RoleAdmin || role == RoleOwner
}

// CanManage reports whether a role may mutate organization resources
// (deploy servers, send commands, invite members, edit platforms).
func CanManage(role string) bool {
	return role == RoleAdmin || role == RoleOwner
}
