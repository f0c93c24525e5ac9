package models

import "fmt"

// Role is the closed set of administrator roles. The zero value is not a
// valid role.
type Role uint8

const (
	RoleSuperadmin Role = iota + 1
	RoleManager
	RoleEditor
)

// AllRoles lists every role, most privileged first.
var AllRoles = []Role{RoleSuperadmin, RoleManager, RoleEditor}

func (r Role) String() string {
	switch r {
	case RoleSuperadmin:
		return "superadmin"
	case RoleManager:
		return "manager"
	case RoleEditor:
		return "editor"
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

func (r Role) Valid() bool {
	switch r {
	case RoleSuperadmin, RoleManager, RoleEditor:
		return true
	}
	return false
}

// ParseRole converts the wire name of a role.
func ParseRole(s string) (Role, error) {
	for _, r := range AllRoles {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", uint8(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// RoleIn reports whether r is one of roles.
func RoleIn(r Role, roles []Role) bool {
	for _, candidate := range roles {
		if candidate == r {
			return true
		}
	}
	return false
}
