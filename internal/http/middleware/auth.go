package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/labour-market/internal/domain/repository"
	"github.com/ignatzorin/labour-market/internal/domain/valueobject"
	"github.com/ignatzorin/labour-market/internal/interface/http/response"
	"github.com/ignatzorin/labour-market/internal/pkg/apperror"
	"github.com/ignatzorin/labour-market/internal/pkg/authz"
	"github.com/ignatzorin/labour-market/internal/service"
)

// Context ключи для gin.Context.
const (
	ContextUserIDKey = "userID"
	ContextRoleKey   = "role"
	ContextSyncedKey = "synced"
)

var (
	errBanned    = apperror.New(apperror.ErrCodeForbidden, "аккаунт заблокирован")
	errNotSynced = apperror.New(apperror.ErrCodeForbidden, "аккаунт не зарегистрирован, выполните /api/auth/sync")
)

// AuthMiddleware проверяет JWT access токен. Если пользователь уже есть в базе,
// роль берётся оттуда, а заблокированные получают 403.
func AuthMiddleware(tokens *service.TokenManager, users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			response.Error(c, apperror.ErrUnauthorized)
			c.Abort()
			return
		}

		userID, role, err := tokens.ParseAccess(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			response.Unauthorized(c, "токен невалиден")
			c.Abort()
			return
		}

		synced := false
		user, err := users.FindByID(c.Request.Context(), userID)
		switch {
		case err == nil:
			if user.IsBanned {
				response.Error(c, errBanned)
				c.Abort()
				return
			}
			role = user.Role
			synced = true
		case apperror.IsNotFound(err):
			// Первый запрос до /auth/sync: изменять данные ещё нельзя, см. RequireSynced.
		default:
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Set(ContextRoleKey, role)
		c.Set(ContextSyncedKey, synced)
		c.Next()
	}
}

// RequireSynced пропускает только пользователей, уже сохранённых в базе.
// Строки заказов, откликов и кошельков ссылаются на users.
func RequireSynced() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := ActorFrom(c); !ok {
			response.Error(c, apperror.ErrUnauthorized)
			c.Abort()
			return
		}
		if !c.GetBool(ContextSyncedKey) {
			response.Error(c, errNotSynced)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole пропускает только перечисленные роли.
func RequireRole(roles ...valueobject.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			response.Error(c, apperror.ErrUnauthorized)
			c.Abort()
			return
		}
		if err := authz.RequireRole(actor, roles...); err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// ActorFrom достаёт автора запроса, установленного AuthMiddleware.
func ActorFrom(c *gin.Context) (authz.Actor, bool) {
	rawID, ok := c.Get(ContextUserIDKey)
	if !ok {
		return authz.Actor{}, false
	}
	userID, ok := rawID.(uuid.UUID)
	if !ok {
		return authz.Actor{}, false
	}
	role, _ := c.Get(ContextRoleKey)
	r, _ := role.(valueobject.Role)
	return authz.Actor{UserID: userID, Role: r}, true
}
