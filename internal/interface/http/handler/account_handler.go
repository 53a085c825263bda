package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/labour-market/internal/domain/entity"
	"github.com/ignatzorin/labour-market/internal/interface/http/dto"
	"github.com/ignatzorin/labour-market/internal/interface/http/response"
	"github.com/ignatzorin/labour-market/internal/usecase/notification"
	"github.com/ignatzorin/labour-market/internal/usecase/user"
)

// AccountHandler — профиль текущего пользователя и его уведомления.
type AccountHandler struct {
	signInUC  *user.SignInUseCase
	profileUC *user.GetProfileUseCase
	inbox     *notification.Inbox
}

func NewAccountHandler(signInUC *user.SignInUseCase, profileUC *user.GetProfileUseCase, inbox *notification.Inbox) *AccountHandler {
	return &AccountHandler{signInUC: signInUC, profileUC: profileUC, inbox: inbox}
}

// Sync вызывается клиентом после входа через провайдера.
func (h *AccountHandler) Sync(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req dto.SyncUserRequest
	if !bindJSON(c, &req) {
		return
	}
	u, created, err := h.signInUC.Execute(c.Request.Context(), a.UserID, entity.Identity{
		ExternalUID: req.ExternalUID,
		Email:       req.Email,
		Name:        req.Name,
		Avatar:      req.Avatar,
	})
	if err != nil {
		fail(c, err)
		return
	}
	if created {
		response.Created(c, dto.ToUserResponse(u))
		return
	}
	response.Success(c, dto.ToUserResponse(u))
}

func (h *AccountHandler) Profile(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	u, err := h.profileUC.Execute(c.Request.Context(), a.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dto.ToUserResponse(u))
}

func (h *AccountHandler) Notifications(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	limit := parseIntQuery(c, "limit", 20)
	offset := parseIntQuery(c, "offset", 0)
	items, total, err := h.inbox.List(c.Request.Context(), a.UserID, limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	response.Paginated(c, dto.ToNotificationResponses(items), total, limit, offset)
}

func (h *AccountHandler) UnreadCount(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	count, err := h.inbox.CountUnread(c.Request.Context(), a.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"count": count})
}

func (h *AccountHandler) MarkRead(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.inbox.MarkRead(c.Request.Context(), id, a.UserID); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"id": id})
}

func (h *AccountHandler) MarkAllRead(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	if err := h.inbox.MarkAllRead(c.Request.Context(), a.UserID); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, nil)
}

// Pinger — хранилище, доступность которого проверяет /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store Pinger
}

func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := gin.H{"storage": "ok"}
	status, code := "healthy", http.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		checks["storage"] = "unavailable"
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "timestamp": time.Now().UTC(), "checks": checks})
}
