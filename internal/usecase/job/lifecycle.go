package job

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/labour-market/internal/domain/entity"
	"github.com/ignatzorin/labour-market/internal/domain/repository"
	"github.com/ignatzorin/labour-market/internal/domain/valueobject"
	"github.com/ignatzorin/labour-market/internal/logger"
	"github.com/ignatzorin/labour-market/internal/pkg/apperror"
	"github.com/ignatzorin/labour-market/internal/usecase/ledger"
	"github.com/ignatzorin/labour-market/internal/usecase/notification"
)

type CompleteResult struct {
	Job            *entity.Job
	ReleasedAmount decimal.Decimal
}

type CompleteJobUseCase struct {
	store    repository.Store
	notifier notification.Notifier
}

func NewCompleteJobUseCase(store repository.Store, notifier notification.Notifier) *CompleteJobUseCase {
	return &CompleteJobUseCase{store: store, notifier: notifier}
}

// Execute завершает заказ и выплачивает исполнителю ровно замороженную сумму.
func (uc *CompleteJobUseCase) Execute(ctx context.Context, jobID, actorID uuid.UUID) (*CompleteResult, error) {
	var (
		outbox notification.Outbox
		result CompleteResult
	)
	err := uc.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		job, err := tx.LockJob(ctx, jobID)
		if err != nil {
			return err
		}
		if !job.IsOwnedBy(actorID) {
			return apperror.ErrNotAuthorized
		}
		if err := job.Complete(); err != nil {
			return err
		}
		if job.AssignedVendorID == nil {
			return apperror.InvalidJobState(string(job.Status), string(valueobject.JobStatusCompleted))
		}
		vendorID := *job.AssignedVendorID

		released, err := ledger.ReleaseHeld(ctx, tx, job.OwnerID, vendorID, job.ID,
			fmt.Sprintf("Оплата по заказу «%s»", job.Title))
		if err != nil {
			return err
		}
		if err := tx.UpdateJob(ctx, job); err != nil {
			return err
		}

		outbox.Add(vendorID, "Заказ завершён", fmt.Sprintf("Заказчик подтвердил выполнение заказа «%s»", job.Title), entity.NotificationJobCompleted)
		outbox.Add(vendorID, "Оплата получена", fmt.Sprintf("На баланс зачислено %s", released.StringFixed(2)), entity.NotificationPaymentReceived)

		result = CompleteResult{Job: job, ReleasedAmount: released}
		return nil
	})

	entry := logger.Log.WithFields(logrus.Fields{"job_id": jobID, "actor_id": actorID})
	if err != nil {
		logger.Failure(entry, err, "job: не удалось завершить заказ")
		return nil, err
	}
	entry.WithField("released", result.ReleasedAmount.String()).Info("job: заказ завершён")

	outbox.Flush(ctx, uc.notifier)
	return &result, nil
}

type CancelResult struct {
	Job            *entity.Job
	RefundedAmount *decimal.Decimal
	RejectedBids   int
}

type CancelJobUseCase struct {
	store    repository.Store
	notifier notification.Notifier
}

func NewCancelJobUseCase(store repository.Store, notifier notification.Notifier) *CancelJobUseCase {
	return &CancelJobUseCase{store: store, notifier: notifier}
}

// Execute отменяет заказ. Из работы замороженные средства возвращаются заказчику,
// ожидающие отклики отклоняются.
func (uc *CancelJobUseCase) Execute(ctx context.Context, jobID, actorID uuid.UUID) (*CancelResult, error) {
	var (
		outbox notification.Outbox
		result CancelResult
	)
	err := uc.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		job, err := tx.LockJob(ctx, jobID)
		if err != nil {
			return err
		}
		if !job.IsOwnedBy(actorID) {
			return apperror.ErrNotAuthorized
		}
		previous, err := job.Cancel()
		if err != nil {
			return err
		}

		bids, err := tx.ListBidsByJob(ctx, job.ID)
		if err != nil {
			return err
		}
		for _, bid := range bids {
			if !bid.IsPending() {
				continue
			}
			if err := bid.Reject(); err != nil {
				return err
			}
			if err := tx.UpdateBid(ctx, bid); err != nil {
				return err
			}
			result.RejectedBids++
			outbox.Add(bid.VendorID, "Заказ отменён", fmt.Sprintf("Заказ «%s» отменён заказчиком", job.Title), entity.NotificationJobCancelled)
		}

		if previous == valueobject.JobStatusInProgress {
			refunded, err := ledger.RefundHeld(ctx, tx, job.OwnerID, job.ID,
				fmt.Sprintf("Возврат по заказу «%s»", job.Title))
			if err != nil {
				return err
			}
			result.RefundedAmount = &refunded
			outbox.Add(job.OwnerID, "Средства возвращены", fmt.Sprintf("Возвращено %s", refunded.StringFixed(2)), entity.NotificationPaymentRefunded)
			if job.AssignedVendorID != nil {
				outbox.Add(*job.AssignedVendorID, "Заказ отменён", fmt.Sprintf("Заказ «%s» отменён заказчиком", job.Title), entity.NotificationJobCancelled)
			}
		}

		if err := tx.UpdateJob(ctx, job); err != nil {
			return err
		}
		result.Job = job
		return nil
	})

	entry := logger.Log.WithFields(logrus.Fields{"job_id": jobID, "actor_id": actorID})
	if err != nil {
		logger.Failure(entry, err, "job: не удалось отменить заказ")
		return nil, err
	}
	entry.WithField("rejected_bids", result.RejectedBids).Info("job: заказ отменён")

	outbox.Flush(ctx, uc.notifier)
	return &result, nil
}
