package valueobject

import "github.com/ignatzorin/labour-market/internal/pkg/apperror"

type Role string

const (
	RoleUser       Role = "user"
	RoleVendor     Role = "vendor"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// ModeratorRoles — роли, которым доступна админка.
var ModeratorRoles = []Role{RoleAdmin, RoleSuperAdmin}

func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleVendor, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

func (r Role) IsModerator() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

func NewRole(role string) (Role, error) {
	r := Role(role)
	if !r.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректная роль пользователя")
	}
	return r, nil
}
