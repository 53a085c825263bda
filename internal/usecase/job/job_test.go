package job_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/labour-market/internal/domain/entity"
	"github.com/ignatzorin/labour-market/internal/domain/repository"
	"github.com/ignatzorin/labour-market/internal/domain/valueobject"
	"github.com/ignatzorin/labour-market/internal/infrastructure/memory"
	"github.com/ignatzorin/labour-market/internal/pkg/apperror"
	"github.com/ignatzorin/labour-market/internal/pkg/authz"
	"github.com/ignatzorin/labour-market/internal/usecase/job"
	"github.com/ignatzorin/labour-market/internal/usecase/ledger"
)

type recordingNotifier struct {
	mu    sync.Mutex
	items []*entity.Notification
}

func (r *recordingNotifier) Emit(ctx context.Context, notifications ...*entity.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, notifications...)
}

func (r *recordingNotifier) forUser(userID uuid.UUID) []*entity.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Notification
	for _, n := range r.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func amount(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func createJob(t *testing.T, store *memory.Store, ownerID uuid.UUID) *entity.Job {
	t.Helper()
	created, err := job.NewCreateJobUseCase(store).Execute(context.Background(), job.CreateJobCommand{
		OwnerID:     ownerID,
		Title:       "Покраска забора",
		Description: "Покрасить деревянный забор длиной 20 метров",
		Category:    "ремонт",
	})
	require.NoError(t, err)
	return created
}

// assignJob имитирует принятый отклик: кошелёк пополнен, сумма заморожена, заказ в работе.
func assignJob(t *testing.T, store *memory.Store, jobID, ownerID, vendorID uuid.UUID, credit, held string) {
	t.Helper()
	err := store.WithinTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		j, err := tx.LockJob(ctx, jobID)
		if err != nil {
			return err
		}
		if _, err := ledger.Credit(ctx, tx, ownerID, amount(credit), "пополнение"); err != nil {
			return err
		}
		if _, err := ledger.Hold(ctx, tx, ownerID, amount(held), jobID, "резерв"); err != nil {
			return err
		}
		if err := j.Assign(vendorID); err != nil {
			return err
		}
		return tx.UpdateJob(ctx, j)
	})
	require.NoError(t, err)
}

func TestCompleteJob_ReleasesHeldAmount(t *testing.T) {
	store := memory.NewStore()
	notifier := &recordingNotifier{}
	ctx := context.Background()
	owner, vendor := uuid.New(), uuid.New()

	created := createJob(t, store, owner)
	assignJob(t, store, created.ID, owner, vendor, "500", "350")

	res, err := job.NewCompleteJobUseCase(store, notifier).Execute(ctx, created.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobStatusCompleted, res.Job.Status)
	assert.True(t, res.ReleasedAmount.Equal(amount("350")))

	ownerAccount, err := ledger.NewGetAccountUseCase(store).Execute(ctx, owner)
	require.NoError(t, err)
	assert.True(t, ownerAccount.Available.Equal(amount("150")))
	assert.True(t, ownerAccount.Escrow.IsZero())

	vendorAccount, err := ledger.NewGetAccountUseCase(store).Execute(ctx, vendor)
	require.NoError(t, err)
	assert.True(t, vendorAccount.Available.Equal(amount("350")))

	held, err := ledger.NewEscrowForJobUseCase(store).Execute(ctx, owner, created.ID)
	require.NoError(t, err)
	assert.True(t, held.IsZero())

	assert.Len(t, notifier.forUser(vendor), 2)

	// Повторное завершение недопустимо.
	_, err = job.NewCompleteJobUseCase(store, notifier).Execute(ctx, created.ID, owner)
	assert.True(t, apperror.HasCode(err, apperror.ErrCodeInvalidJobState))
}

func TestCompleteJob_AfterRefusedManualRefund(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	owner, vendor := uuid.New(), uuid.New()
	admin := authz.Actor{UserID: uuid.New(), Role: valueobject.RoleAdmin}

	created := createJob(t, store, owner)
	assignJob(t, store, created.ID, owner, vendor, "800", "800")

	_, err := ledger.NewRefundUseCase(store, nil).Execute(ctx, ledger.OperationCommand{
		Actor: admin, UserID: owner, Amount: amount("800"), JobID: created.ID,
	})
	require.Error(t, err)

	res, err := job.NewCompleteJobUseCase(store, nil).Execute(ctx, created.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobStatusCompleted, res.Job.Status)
	assert.True(t, res.ReleasedAmount.Equal(amount("800")))
}

func TestCompleteJob_Rejections(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	owner, vendor := uuid.New(), uuid.New()

	created := createJob(t, store, owner)

	_, err := job.NewCompleteJobUseCase(store, nil).Execute(ctx, created.ID, owner)
	assert.True(t, apperror.HasCode(err, apperror.ErrCodeInvalidJobState))

	assignJob(t, store, created.ID, owner, vendor, "100", "100")

	_, err = job.NewCompleteJobUseCase(store, nil).Execute(ctx, created.ID, vendor)
	assert.ErrorIs(t, err, apperror.ErrNotAuthorized)

	_, err = job.NewCompleteJobUseCase(store, nil).Execute(ctx, uuid.New(), owner)
	assert.True(t, apperror.IsNotFound(err))

	// Отказ не меняет состояние.
	stored, err := store.Jobs().FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobStatusInProgress, stored.Status)
}

func TestCancelJob_FromInProgressRefundsOwner(t *testing.T) {
	store := memory.NewStore()
	notifier := &recordingNotifier{}
	ctx := context.Background()
	owner, vendor := uuid.New(), uuid.New()

	created := createJob(t, store, owner)
	assignJob(t, store, created.ID, owner, vendor, "200", "120.50")

	res, err := job.NewCancelJobUseCase(store, notifier).Execute(ctx, created.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, valueobject.JobStatusCancelled, res.Job.Status)
	require.NotNil(t, res.RefundedAmount)
	assert.True(t, res.RefundedAmount.Equal(amount("120.50")))

	ownerAccount, err := ledger.NewGetAccountUseCase(store).Execute(ctx, owner)
	require.NoError(t, err)
	assert.True(t, ownerAccount.Available.Equal(amount("200")))
	assert.True(t, ownerAccount.Escrow.IsZero())

	vendorAccount, err := ledger.NewGetAccountUseCase(store).Execute(ctx, vendor)
	require.NoError(t, err)
	assert.True(t, vendorAccount.Available.IsZero())

	assert.Len(t, notifier.forUser(vendor), 1)
	assert.Len(t, notifier.forUser(owner), 1)
}

func TestCancelJob_FromOpenRejectsPendingBids(t *testing.T) {
	store := memory.NewStore()
	notifier := &recordingNotifier{}
	ctx := context.Background()
	owner := uuid.New()
	vendors := []uuid.UUID{uuid.New(), uuid.New()}

	created := createJob(t, store, owner)
	err := store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		j, err := tx.LockJob(ctx, created.ID)
		if err != nil {
			return err
		}
		for _, v := range vendors {
			b, err := entity.NewBid(j.ID, v, amount("50"), "", "")
			if err != nil {
				return err
			}
			if err := tx.CreateBid(ctx, b); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	res, err := job.NewCancelJobUseCase(store, notifier).Execute(ctx, created.ID, owner)
	require.NoError(t, err)
	assert.Nil(t, res.RefundedAmount)
	assert.Equal(t, 2, res.RejectedBids)

	bids, err := store.Bids().ListByJob(ctx, created.ID)
	require.NoError(t, err)
	for _, b := range bids {
		assert.Equal(t, valueobject.BidStatusRejected, b.Status)
	}

	_, err = store.Ledger().FindAccountByUser(ctx, owner)
	assert.True(t, apperror.IsNotFound(err), "отмена открытого заказа не трогает кошелёк")

	_, err = job.NewCancelJobUseCase(store, notifier).Execute(ctx, created.ID, owner)
	assert.True(t, apperror.HasCode(err, apperror.ErrCodeInvalidJobState))
}

func TestListJobs_DefaultsToOpen(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	owner := uuid.New()

	first := createJob(t, store, owner)
	createJob(t, store, owner)
	_, err := job.NewCancelJobUseCase(store, nil).Execute(ctx, first.ID, owner)
	require.NoError(t, err)

	jobs, total, err := job.NewListJobsUseCase(store.Jobs()).Execute(ctx, job.ListJobsQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, jobs, 1)

	_, total, err = job.NewListJobsUseCase(store.Jobs()).Execute(ctx, job.ListJobsQuery{OwnerID: &owner})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	_, _, err = job.NewListJobsUseCase(store.Jobs()).Execute(ctx, job.ListJobsQuery{Status: "archived"})
	assert.True(t, apperror.IsValidation(err))
}
