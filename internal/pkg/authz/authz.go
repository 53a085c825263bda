// Package authz — единственная проверка ролей для use case и HTTP-слоя.
package authz

import (
	"github.com/google/uuid"

	"github.com/ignatzorin/labour-market/internal/domain/valueobject"
	"github.com/ignatzorin/labour-market/internal/pkg/apperror"
)

// Actor — кто выполняет действие.
type Actor struct {
	UserID uuid.UUID
	Role   valueobject.Role
}

// RequireRole возвращает ErrNotAuthorized, если роль актора не входит в список.
func RequireRole(actor Actor, roles ...valueobject.Role) error {
	for _, role := range roles {
		if actor.Role == role {
			return nil
		}
	}
	return apperror.ErrNotAuthorized
}

// RequireModerator — доступ к очереди жалоб и банам.
func RequireModerator(actor Actor) error {
	return RequireRole(actor, valueobject.ModeratorRoles...)
}
