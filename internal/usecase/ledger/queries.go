package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/labour-market/internal/domain/entity"
	"github.com/ignatzorin/labour-market/internal/domain/repository"
	"github.com/ignatzorin/labour-market/internal/logger"
	"github.com/ignatzorin/labour-market/internal/pkg/apperror"
	"github.com/ignatzorin/labour-market/internal/pkg/authz"
)

type GetAccountUseCase struct {
	store repository.Store
}

func NewGetAccountUseCase(store repository.Store) *GetAccountUseCase {
	return &GetAccountUseCase{store: store}
}

// Execute возвращает кошелёк, создавая его при первом обращении.
func (uc *GetAccountUseCase) Execute(ctx context.Context, userID uuid.UUID) (*entity.Account, error) {
	account, err := uc.store.Ledger().FindAccountByUser(ctx, userID)
	if err == nil {
		return account, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, err
	}

	err = uc.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		account, err = tx.LockAccount(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

type ListTransactionsUseCase struct {
	store repository.Store
}

func NewListTransactionsUseCase(store repository.Store) *ListTransactionsUseCase {
	return &ListTransactionsUseCase{store: store}
}

func (uc *ListTransactionsUseCase) Execute(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.LedgerTransaction, int, error) {
	account, err := uc.store.Ledger().FindAccountByUser(ctx, userID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return []entity.LedgerTransaction{}, 0, nil
		}
		return nil, 0, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return uc.store.Ledger().ListTransactions(ctx, account.ID, limit, offset)
}

type EscrowForJobUseCase struct {
	store repository.Store
}

func NewEscrowForJobUseCase(store repository.Store) *EscrowForJobUseCase {
	return &EscrowForJobUseCase{store: store}
}

// Execute возвращает сумму, которую пользователь держит замороженной под заказ.
func (uc *EscrowForJobUseCase) Execute(ctx context.Context, userID, jobID uuid.UUID) (decimal.Decimal, error) {
	held := decimal.Zero
	err := uc.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		account, err := tx.LockAccount(ctx, userID)
		if err != nil {
			return err
		}
		held, err = tx.EscrowForJob(ctx, account.ID, jobID)
		return err
	})
	return held, err
}

// ReconcileReport сравнивает кэш балансов с пересчётом по журналу.
type ReconcileReport struct {
	UserID            uuid.UUID
	AccountID         uuid.UUID
	CachedAvailable   decimal.Decimal
	CachedEscrow      decimal.Decimal
	ReplayedAvailable decimal.Decimal
	ReplayedEscrow    decimal.Decimal
	Transactions      int
	Consistent        bool
}

type ReconcileUseCase struct {
	store repository.Store
}

func NewReconcileUseCase(store repository.Store) *ReconcileUseCase {
	return &ReconcileUseCase{store: store}
}

func (uc *ReconcileUseCase) Execute(ctx context.Context, actor authz.Actor, userID uuid.UUID) (*ReconcileReport, error) {
	if err := authz.RequireModerator(actor); err != nil {
		return nil, err
	}

	var report ReconcileReport
	err := uc.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		account, err := tx.LockAccount(ctx, userID)
		if err != nil {
			return err
		}
		txs, err := tx.AccountTransactions(ctx, account.ID)
		if err != nil {
			return err
		}

		report = ReconcileReport{
			UserID:          userID,
			AccountID:       account.ID,
			CachedAvailable: account.Available,
			CachedEscrow:    account.Escrow,
			Transactions:    len(txs),
		}
		available, escrow, replayErr := entity.Replay(txs)
		report.ReplayedAvailable, report.ReplayedEscrow = available, escrow
		report.Consistent = replayErr == nil && account.Matches(available, escrow)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !report.Consistent {
		logger.Log.WithFields(logrus.Fields{
			"user_id":            userID,
			"cached_available":   report.CachedAvailable.String(),
			"cached_escrow":      report.CachedEscrow.String(),
			"replayed_available": report.ReplayedAvailable.String(),
			"replayed_escrow":    report.ReplayedEscrow.String(),
		}).Error("ledger: баланс расходится с журналом")
	}
	return &report, nil
}
