package ledger

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
	"github.com/ignatzorin/labour-market/internal/pkg/authz"
	"github.com/ignatzorin/labour-market/internal/usecase/notification"
)

// OperationCommand описывает одну операцию над кошельком UserID.
// JobID обязателен для hold, release и refund, DestinationID только для release.
type OperationCommand struct {
	Actor         authz.Actor
	UserID        uuid.UUID
	Amount        decimal.Decimal
	Description   string
	JobID         uuid.UUID
	DestinationID uuid.UUID
}

// OperationResult — запись журнала и состояние кошелька после операции.
type OperationResult struct {
	Transaction *entity.LedgerTransaction
	Account     *entity.Account
}

type operation func(ctx context.Context, tx repository.Tx, cmd OperationCommand, outbox *notification.Outbox) (*entity.LedgerTransaction, error)

// OperationUseCase выполняет одну операцию журнала в собственной транзакции.
type OperationUseCase struct {
	store     repository.Store
	notifier  notification.Notifier
	name      string
	adminOnly bool
	run       operation
}

func (uc *OperationUseCase) Execute(ctx context.Context, cmd OperationCommand) (*OperationResult, error) {
	onBehalf := cmd.Actor.UserID != cmd.UserID
	if uc.adminOnly || onBehalf {
		if err := authz.RequireModerator(cmd.Actor); err != nil {
			return nil, err
		}
	}

	var (
		outbox notification.Outbox
		result OperationResult
	)
	err := uc.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		ltx, err := uc.run(ctx, tx, cmd, &outbox)
		if err != nil {
			return err
		}
		account, err := tx.LockAccount(ctx, cmd.UserID)
		if err != nil {
			return err
		}
		if onBehalf || uc.adminOnly {
			details := map[string]string{
				"operation": uc.name,
				"amount":    cmd.Amount.StringFixed(2),
			}
			if cmd.JobID != uuid.Nil {
				details["job_id"] = cmd.JobID.String()
			}
			action := entity.NewAdminAction(cmd.Actor.UserID, entity.AdminActionLedgerAdjust, "user", cmd.UserID, details)
			if err := tx.RecordAdminAction(ctx, action); err != nil {
				return err
			}
		}
		result = OperationResult{Transaction: ltx, Account: account}
		return nil
	})
	entry := logger.Log.WithFields(logrus.Fields{
		"operation": uc.name,
		"user_id":   cmd.UserID,
		"actor_id":  cmd.Actor.UserID,
		"amount":    cmd.Amount.String(),
	})
	if err != nil {
		logger.Failure(entry, err, "ledger: операция отклонена")
		return nil, err
	}
	entry.Info("ledger: операция проведена")

	outbox.Flush(ctx, uc.notifier)
	return &result, nil
}

func NewCreditUseCase(store repository.Store, notifier notification.Notifier) *OperationUseCase {
	return &OperationUseCase{store: store, notifier: notifier, name: "credit",
		run: func(ctx context.Context, tx repository.Tx, cmd OperationCommand, outbox *notification.Outbox) (*entity.LedgerTransaction, error) {
			ltx, err := Credit(ctx, tx, cmd.UserID, cmd.Amount, description(cmd, "Пополнение баланса"))
			if err != nil {
				return nil, err
			}
			outbox.Add(cmd.UserID, "Баланс пополнен", fmt.Sprintf("Зачислено %s", cmd.Amount.StringFixed(2)), entity.NotificationPaymentReceived)
			return ltx, nil
		}}
}

func NewDebitUseCase(store repository.Store, notifier notification.Notifier) *OperationUseCase {
	return &OperationUseCase{store: store, notifier: notifier, name: "debit",
		run: func(ctx context.Context, tx repository.Tx, cmd OperationCommand, _ *notification.Outbox) (*entity.LedgerTransaction, error) {
			return Debit(ctx, tx, cmd.UserID, cmd.Amount, description(cmd, "Списание с баланса"))
		}}
}

func NewHoldUseCase(store repository.Store, notifier notification.Notifier) *OperationUseCase {
	return &OperationUseCase{store: store, notifier: notifier, name: "escrow_hold", adminOnly: true,
		run: func(ctx context.Context, tx repository.Tx, cmd OperationCommand, _ *notification.Outbox) (*entity.LedgerTransaction, error) {
			if _, err := lockEscrowJob(ctx, tx, cmd); err != nil {
				return nil, err
			}
			return Hold(ctx, tx, cmd.UserID, cmd.Amount, cmd.JobID, description(cmd, "Резервирование средств"))
		}}
}

func NewReleaseUseCase(store repository.Store, notifier notification.Notifier) *OperationUseCase {
	return &OperationUseCase{store: store, notifier: notifier, name: "escrow_release", adminOnly: true,
		run: func(ctx context.Context, tx repository.Tx, cmd OperationCommand, outbox *notification.Outbox) (*entity.LedgerTransaction, error) {
			if err := lockPayoutJob(ctx, tx, cmd); err != nil {
				return nil, err
			}
			if cmd.DestinationID == uuid.Nil {
				return nil, apperror.New(apperror.ErrCodeValidation, "получатель выплаты обязателен")
			}
			out, _, err := Release(ctx, tx, cmd.UserID, cmd.DestinationID, cmd.Amount, cmd.JobID, description(cmd, "Выплата по заказу"))
			if err != nil {
				return nil, err
			}
			outbox.Add(cmd.DestinationID, "Оплата получена", fmt.Sprintf("Зачислено %s", cmd.Amount.StringFixed(2)), entity.NotificationPaymentReceived)
			return out, nil
		}}
}

func NewRefundUseCase(store repository.Store, notifier notification.Notifier) *OperationUseCase {
	return &OperationUseCase{store: store, notifier: notifier, name: "refund", adminOnly: true,
		run: func(ctx context.Context, tx repository.Tx, cmd OperationCommand, outbox *notification.Outbox) (*entity.LedgerTransaction, error) {
			if err := lockPayoutJob(ctx, tx, cmd); err != nil {
				return nil, err
			}
			ltx, err := Refund(ctx, tx, cmd.UserID, cmd.Amount, cmd.JobID, description(cmd, "Возврат средств"))
			if err != nil {
				return nil, err
			}
			outbox.Add(cmd.UserID, "Средства возвращены", fmt.Sprintf("Возвращено %s", cmd.Amount.StringFixed(2)), entity.NotificationPaymentRefunded)
			return ltx, nil
		}}
}

// lockEscrowJob блокирует заказ до кошельков, сохраняя порядок блокировок.
func lockEscrowJob(ctx context.Context, tx repository.Tx, cmd OperationCommand) (*entity.Job, error) {
	if cmd.JobID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "заказ обязателен для операции с эскроу")
	}
	return tx.LockJob(ctx, cmd.JobID)
}

// lockPayoutJob запрещает ручную выплату и возврат по заказу в работе:
// его резерв распределяют завершение и отмена заказа.
func lockPayoutJob(ctx context.Context, tx repository.Tx, cmd OperationCommand) error {
	job, err := lockEscrowJob(ctx, tx, cmd)
	if err != nil {
		return err
	}
	if job.Status == valueobject.JobStatusInProgress {
		return apperror.New(apperror.ErrCodeInvalidJobState,
			"заказ в работе: резерв распределяется при завершении или отмене")
	}
	return nil
}

func description(cmd OperationCommand, fallback string) string {
	if cmd.Description != "" {
		return cmd.Description
	}
	return fallback
}
