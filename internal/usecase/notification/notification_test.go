package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/labour-market/internal/domain/entity"
	"github.com/ignatzorin/labour-market/internal/domain/repository"
	"github.com/ignatzorin/labour-market/internal/infrastructure/memory"
	"github.com/ignatzorin/labour-market/internal/pkg/apperror"
)

type notificationRepoStub struct {
	repository.NotificationRepository
	create func() error
}

func (s notificationRepoStub) Create(ctx context.Context, n *entity.Notification) error {
	return s.create()
}

type recordingNotifier struct {
	mu    sync.Mutex
	items []*entity.Notification
}

func (r *recordingNotifier) Emit(ctx context.Context, notifications ...*entity.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, notifications...)
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func syncSpawn(ctx context.Context, fn func(context.Context)) { fn(ctx) }

func TestEmitter_DeliversAfterRequestContextCancelled(t *testing.T) {
	store := memory.NewStore()
	emitter := NewEmitter(store.Notifications(), time.Second)
	emitter.spawn = syncSpawn

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	userID := uuid.New()
	emitter.Emit(ctx, New(userID, "Новый отклик", "", entity.NotificationBidReceived))

	items, total, err := store.Notifications().ListByUser(context.Background(), userID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Новый отклик", items[0].Message)
	assert.False(t, items[0].IsRead)
}

func TestEmitter_SwallowsDeliveryErrors(t *testing.T) {
	calls := 0
	stub := notificationRepoStub{create: func() error {
		calls++
		return errors.New("connection refused")
	}}
	emitter := NewEmitter(stub, time.Second)
	emitter.spawn = syncSpawn

	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(),
			New(uuid.New(), "t", "m", entity.NotificationJobCompleted),
			New(uuid.New(), "t", "m", entity.NotificationJobCancelled),
		)
	})
	assert.Equal(t, 2, calls)
}

func TestOutbox_FlushOnlyWhenNotEmpty(t *testing.T) {
	var out Outbox
	rec := &recordingNotifier{}
	out.Flush(context.Background(), rec)
	assert.Zero(t, rec.count())

	out.Add(uuid.New(), "a", "b", entity.NotificationBidAccepted)
	out.Add(uuid.New(), "c", "d", entity.NotificationBidRejected)
	require.Len(t, out.Items(), 2)

	out.Flush(context.Background(), rec)
	assert.Equal(t, 2, rec.count())
	assert.Empty(t, out.Items())
}

func TestInbox_MarkReadOwnOnly(t *testing.T) {
	store := memory.NewStore()
	inbox := NewInbox(store.Notifications())
	ctx := context.Background()

	owner, stranger := uuid.New(), uuid.New()
	n := New(owner, "Оплата", "Средства зачислены", entity.NotificationPaymentReceived)
	require.NoError(t, store.Notifications().Create(ctx, n))
	require.NoError(t, store.Notifications().Create(ctx, New(owner, "Ещё", "", entity.NotificationJobCompleted)))

	err := inbox.MarkRead(ctx, n.ID, stranger)
	assert.True(t, apperror.IsNotFound(err))

	require.NoError(t, inbox.MarkRead(ctx, n.ID, owner))
	count, err := inbox.CountUnread(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, inbox.MarkAllRead(ctx, owner))
	count, err = inbox.CountUnread(ctx, owner)
	require.NoError(t, err)
	assert.Zero(t, count)

	items, total, err := inbox.List(ctx, owner, 0, -5)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, items, 2)
}
