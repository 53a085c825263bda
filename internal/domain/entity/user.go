package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/labour-market/internal/domain/valueobject"
	"github.com/ignatzorin/labour-market/internal/pkg/apperror"
)

type User struct {
	ID          uuid.UUID
	ExternalUID *string
	Email       string
	Name        string
	Phone       *string
	Avatar      *string
	Role        valueobject.Role
	IsOnline    bool
	IsBanned    bool
	BanReason   *string
	City        *string
	LastActive  time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Identity — данные от внешнего провайдера входа.
type Identity struct {
	ExternalUID string
	Email       string
	Name        string
	Avatar      *string
}

func NewUserFromIdentity(identity Identity) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный email")
	}
	name := strings.TrimSpace(identity.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	now := time.Now()
	user := &User{
		ID:         uuid.New(),
		Email:      email,
		Name:       name,
		Avatar:     identity.Avatar,
		Role:       valueobject.RoleUser,
		IsOnline:   true,
		LastActive: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if identity.ExternalUID != "" {
		uid := identity.ExternalUID
		user.ExternalUID = &uid
	}
	return user, nil
}

// Touch обновляет профиль при повторном входе.
func (u *User) Touch(identity Identity) {
	if name := strings.TrimSpace(identity.Name); name != "" {
		u.Name = name
	}
	if identity.Avatar != nil {
		u.Avatar = identity.Avatar
	}
	if u.ExternalUID == nil && identity.ExternalUID != "" {
		uid := identity.ExternalUID
		u.ExternalUID = &uid
	}
	now := time.Now()
	u.IsOnline = true
	u.LastActive = now
	u.UpdatedAt = now
}

func (u *User) Ban(reason string) error {
	if u.Role == valueobject.RoleSuperAdmin {
		return apperror.ErrNotAuthorized
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return apperror.New(apperror.ErrCodeValidation, "причина блокировки обязательна")
	}
	u.IsBanned = true
	u.BanReason = &reason
	u.IsOnline = false
	u.UpdatedAt = time.Now()
	return nil
}

func (u *User) Unban() {
	u.IsBanned = false
	u.BanReason = nil
	u.UpdatedAt = time.Now()
}
