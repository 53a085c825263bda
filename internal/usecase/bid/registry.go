package bid

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/labour-market/internal/domain/entity"
	"github.com/ignatzorin/labour-market/internal/domain/repository"
	"github.com/ignatzorin/labour-market/internal/logger"
	"github.com/ignatzorin/labour-market/internal/pkg/apperror"
	"github.com/ignatzorin/labour-market/internal/usecase/ledger"
	"github.com/ignatzorin/labour-market/internal/usecase/notification"
)

type SubmitCommand struct {
	JobID        uuid.UUID
	VendorID     uuid.UUID
	Amount       decimal.Decimal
	Message      string
	DeliveryTime string
}

type SubmitBidUseCase struct {
	store    repository.Store
	notifier notification.Notifier
}

func NewSubmitBidUseCase(store repository.Store, notifier notification.Notifier) *SubmitBidUseCase {
	return &SubmitBidUseCase{store: store, notifier: notifier}
}

func (uc *SubmitBidUseCase) Execute(ctx context.Context, cmd SubmitCommand) (*entity.Bid, error) {
	bid, err := entity.NewBid(cmd.JobID, cmd.VendorID, cmd.Amount, cmd.Message, cmd.DeliveryTime)
	if err != nil {
		return nil, err
	}

	var outbox notification.Outbox
	err = uc.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		job, err := tx.LockJob(ctx, cmd.JobID)
		if err != nil {
			return err
		}
		if !job.IsOpen() {
			return apperror.ErrJobNotOpen
		}
		if job.IsOwnedBy(cmd.VendorID) {
			return apperror.ErrSelfBidForbidden
		}

		existing, err := tx.ListBidsByJob(ctx, job.ID)
		if err != nil {
			return err
		}
		for _, other := range existing {
			if other.VendorID == cmd.VendorID && other.IsActive() {
				return apperror.ErrDuplicateBid
			}
		}

		if err := job.RegisterBid(); err != nil {
			return err
		}
		if err := tx.CreateBid(ctx, bid); err != nil {
			return err
		}
		if err := tx.UpdateJob(ctx, job); err != nil {
			return err
		}

		outbox.Add(job.OwnerID, "Новый отклик",
			fmt.Sprintf("На заказ «%s» откликнулись за %s", job.Title, bid.Amount.StringFixed(2)),
			entity.NotificationBidReceived)
		return nil
	})

	entry := logger.Log.WithFields(logrus.Fields{"job_id": cmd.JobID, "vendor_id": cmd.VendorID})
	if err != nil {
		logger.Failure(entry, err, "bid: отклик не принят")
		return nil, err
	}
	entry.WithField("bid_id", bid.ID).Info("bid: отклик создан")

	outbox.Flush(ctx, uc.notifier)
	return bid, nil
}

type AcceptCommand struct {
	JobID   uuid.UUID
	BidID   uuid.UUID
	ActorID uuid.UUID
}

type AcceptResult struct {
	Job          *entity.Job
	Bid          *entity.Bid
	RejectedBids []*entity.Bid
	Hold         *entity.LedgerTransaction
}

type AcceptBidUseCase struct {
	store    repository.Store
	notifier notification.Notifier
}

func NewAcceptBidUseCase(store repository.Store, notifier notification.Notifier) *AcceptBidUseCase {
	return &AcceptBidUseCase{store: store, notifier: notifier}
}

// Execute принимает отклик: остальные ожидающие отклоняются, заказ уходит в работу,
// сумма отклика замораживается на кошельке заказчика. Любая ошибка откатывает всё.
func (uc *AcceptBidUseCase) Execute(ctx context.Context, cmd AcceptCommand) (*AcceptResult, error) {
	var (
		outbox notification.Outbox
		result AcceptResult
	)
	err := uc.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		job, err := tx.LockJob(ctx, cmd.JobID)
		if err != nil {
			return err
		}
		if !job.IsOwnedBy(cmd.ActorID) {
			return apperror.ErrNotAuthorized
		}

		bid, err := tx.FindBid(ctx, cmd.BidID)
		if err != nil {
			return err
		}
		if bid.JobID != job.ID {
			return apperror.ErrBidNotFound
		}
		if !bid.IsPending() {
			return apperror.ErrBidNotPending
		}
		if !job.IsOpen() {
			return apperror.ErrJobNotOpen
		}

		if err := bid.Accept(); err != nil {
			return err
		}
		if err := job.Assign(bid.VendorID); err != nil {
			return err
		}
		if err := tx.UpdateBid(ctx, bid); err != nil {
			return err
		}

		siblings, err := tx.ListBidsByJob(ctx, job.ID)
		if err != nil {
			return err
		}
		for _, sibling := range siblings {
			if sibling.ID == bid.ID || !sibling.IsPending() {
				continue
			}
			if err := sibling.Reject(); err != nil {
				return err
			}
			if err := tx.UpdateBid(ctx, sibling); err != nil {
				return err
			}
			result.RejectedBids = append(result.RejectedBids, sibling)
			outbox.Add(sibling.VendorID, "Отклик отклонён",
				fmt.Sprintf("Заказчик выбрал другого исполнителя для заказа «%s»", job.Title),
				entity.NotificationBidRejected)
		}

		hold, err := ledger.Hold(ctx, tx, job.OwnerID, bid.Amount, job.ID,
			fmt.Sprintf("Резерв по заказу «%s»", job.Title))
		if err != nil {
			return err
		}
		if err := tx.UpdateJob(ctx, job); err != nil {
			return err
		}

		outbox.Add(bid.VendorID, "Отклик принят",
			fmt.Sprintf("Ваш отклик на заказ «%s» принят", job.Title),
			entity.NotificationBidAccepted)

		result.Job, result.Bid, result.Hold = job, bid, hold
		return nil
	})

	entry := logger.Log.WithFields(logrus.Fields{"job_id": cmd.JobID, "bid_id": cmd.BidID, "actor_id": cmd.ActorID})
	if err != nil {
		logger.Failure(entry, err, "bid: не удалось принять отклик")
		return nil, err
	}
	entry.WithField("rejected", len(result.RejectedBids)).Info("bid: отклик принят")

	outbox.Flush(ctx, uc.notifier)
	return &result, nil
}

type WithdrawBidUseCase struct {
	store    repository.Store
	notifier notification.Notifier
}

func NewWithdrawBidUseCase(store repository.Store, notifier notification.Notifier) *WithdrawBidUseCase {
	return &WithdrawBidUseCase{store: store, notifier: notifier}
}

// Execute отзывает ожидающий отклик. Отозванный отклик получает статус rejected.
func (uc *WithdrawBidUseCase) Execute(ctx context.Context, bidID, actorID uuid.UUID) (*entity.Bid, error) {
	// Заказ нужен до транзакции, чтобы взять блокировки в правильном порядке.
	found, err := uc.store.Bids().FindByID(ctx, bidID)
	if err != nil {
		return nil, err
	}

	var (
		outbox notification.Outbox
		bid    *entity.Bid
	)
	err = uc.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		job, err := tx.LockJob(ctx, found.JobID)
		if err != nil {
			return err
		}
		bid, err = tx.FindBid(ctx, bidID)
		if err != nil {
			return err
		}
		if !bid.IsOwnedBy(actorID) {
			return apperror.ErrNotAuthorized
		}
		if err := bid.Reject(); err != nil {
			return err
		}
		// bid_count не уменьшается: счётчик учитывает все поданные отклики.
		if err := tx.UpdateBid(ctx, bid); err != nil {
			return err
		}

		outbox.Add(job.OwnerID, "Отклик отозван",
			fmt.Sprintf("Исполнитель отозвал отклик на заказ «%s»", job.Title),
			entity.NotificationBidWithdrawn)
		return nil
	})

	entry := logger.Log.WithFields(logrus.Fields{"bid_id": bidID, "actor_id": actorID})
	if err != nil {
		logger.Failure(entry, err, "bid: не удалось отозвать отклик")
		return nil, err
	}
	entry.Info("bid: отклик отозван")

	outbox.Flush(ctx, uc.notifier)
	return bid, nil
}
