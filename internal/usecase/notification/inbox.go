package notification

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/labour-market/internal/domain/entity"
	"github.com/ignatzorin/labour-market/internal/domain/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Inbox — чтение и отметка уведомлений получателем.
type Inbox struct {
	repo repository.NotificationRepository
}

func NewInbox(repo repository.NotificationRepository) *Inbox {
	return &Inbox{repo: repo}
}

func (i *Inbox) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Notification, int, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return i.repo.ListByUser(ctx, userID, limit, offset)
}

func (i *Inbox) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return i.repo.CountUnread(ctx, userID)
}

// MarkRead отмечает только собственные уведомления; чужие выглядят как отсутствующие.
func (i *Inbox) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return i.repo.MarkRead(ctx, id, userID)
}

func (i *Inbox) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return i.repo.MarkAllRead(ctx, userID)
}
