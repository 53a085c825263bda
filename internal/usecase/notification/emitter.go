package notification

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/labour-market/internal/domain/entity"
	"github.com/ignatzorin/labour-market/internal/domain/repository"
	"github.com/ignatzorin/labour-market/internal/goroutine"
	"github.com/ignatzorin/labour-market/internal/logger"
)

// Notifier отправляет уведомления после фиксации бизнес-транзакции.
// Ошибки доставки не возвращаются вызывающему.
type Notifier interface {
	Emit(ctx context.Context, notifications ...*entity.Notification)
}

// New собирает уведомление. Пустые title или message подменяются типом.
func New(userID uuid.UUID, title, message, notificationType string) *entity.Notification {
	title = strings.TrimSpace(title)
	if title == "" {
		title = notificationType
	}
	message = strings.TrimSpace(message)
	if message == "" {
		message = title
	}
	return &entity.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      notificationType,
		CreatedAt: time.Now(),
	}
}

// Outbox копит уведомления внутри единицы работы. Emit вызывается только после коммита.
type Outbox struct {
	items []*entity.Notification
}

func (o *Outbox) Add(userID uuid.UUID, title, message, notificationType string) {
	o.items = append(o.items, New(userID, title, message, notificationType))
}

func (o *Outbox) Items() []*entity.Notification {
	return o.items
}

// Flush отдаёт уведомления в Notifier.
func (o *Outbox) Flush(ctx context.Context, notifier Notifier) {
	if notifier == nil || len(o.items) == 0 {
		return
	}
	notifier.Emit(ctx, o.items...)
	o.items = nil
}

// Emitter сохраняет уведомления в фоне через панико-безопасную горутину.
type Emitter struct {
	repo    repository.NotificationRepository
	timeout time.Duration
	spawn   func(ctx context.Context, fn func(context.Context))
}

func NewEmitter(repo repository.NotificationRepository, timeout time.Duration) *Emitter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Emitter{
		repo:    repo,
		timeout: timeout,
		spawn:   goroutine.SafeGoWithContext,
	}
}

func (e *Emitter) Emit(ctx context.Context, notifications ...*entity.Notification) {
	if len(notifications) == 0 {
		return
	}
	// Запрос может завершиться раньше доставки.
	detached := context.WithoutCancel(ctx)
	e.spawn(detached, func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()
		e.deliver(ctx, notifications)
	})
}

func (e *Emitter) deliver(ctx context.Context, notifications []*entity.Notification) {
	for _, n := range notifications {
		if err := e.repo.Create(ctx, n); err != nil {
			logger.Log.WithFields(logrus.Fields{
				"user_id": n.UserID,
				"type":    n.Type,
			}).WithError(err).Warn("notification: не удалось сохранить уведомление")
		}
	}
}
