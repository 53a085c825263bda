package ledger_test

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

func amount(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func self(userID uuid.UUID) authz.Actor {
	return authz.Actor{UserID: userID, Role: valueobject.RoleUser}
}

var admin = authz.Actor{UserID: uuid.New(), Role: valueobject.RoleAdmin}

func seedJob(t *testing.T, store *memory.Store, ownerID uuid.UUID) *entity.Job {
	t.Helper()
	j, err := entity.NewJob(entity.NewJobParams{
		OwnerID:     ownerID,
		Title:       "Укладка плитки",
		Description: "Уложить плитку в ванной комнате, материал есть",
		Category:    "ремонт",
	})
	require.NoError(t, err)
	require.NoError(t, store.WithinTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		return tx.CreateJob(ctx, j)
	}))
	return j
}

func TestCreditDebit(t *testing.T) {
	store := memory.NewStore()
	notifier := &recordingNotifier{}
	ctx := context.Background()
	userID := uuid.New()

	res, err := ledger.NewCreditUseCase(store, notifier).Execute(ctx, ledger.OperationCommand{
		Actor: self(userID), UserID: userID, Amount: amount("100.00"),
	})
	require.NoError(t, err)
	assert.True(t, res.Account.Available.Equal(amount("100")))
	assert.Equal(t, valueobject.TransactionTypeCredit, res.Transaction.Type)
	assert.Len(t, notifier.items, 1)

	_, err = ledger.NewDebitUseCase(store, notifier).Execute(ctx, ledger.OperationCommand{
		Actor: self(userID), UserID: userID, Amount: amount("100.01"),
	})
	assert.ErrorIs(t, err, apperror.ErrInsufficientFunds)

	res, err = ledger.NewDebitUseCase(store, notifier).Execute(ctx, ledger.OperationCommand{
		Actor: self(userID), UserID: userID, Amount: amount("40.50"),
	})
	require.NoError(t, err)
	assert.True(t, res.Account.Available.Equal(amount("59.50")))

	txs, total, err := ledger.NewListTransactionsUseCase(store).Execute(ctx, userID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, valueobject.TransactionTypeDebit, txs[0].Type)
}

func TestOperations_Validation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	userID := uuid.New()

	_, err := ledger.NewCreditUseCase(store, nil).Execute(ctx, ledger.OperationCommand{
		Actor: self(userID), UserID: userID, Amount: amount("0"),
	})
	assert.True(t, apperror.IsValidation(err))

	_, err = ledger.NewCreditUseCase(store, nil).Execute(ctx, ledger.OperationCommand{
		Actor: self(userID), UserID: userID, Amount: amount("1.005"),
	})
	assert.True(t, apperror.IsValidation(err))

	_, err = ledger.NewCreditUseCase(store, nil).Execute(ctx, ledger.OperationCommand{
		Actor: self(uuid.New()), UserID: userID, Amount: amount("1"),
	})
	assert.ErrorIs(t, err, apperror.ErrNotAuthorized)

	_, err = ledger.NewHoldUseCase(store, nil).Execute(ctx, ledger.OperationCommand{
		Actor: self(userID), UserID: userID, Amount: amount("1"), JobID: uuid.New(),
	})
	assert.ErrorIs(t, err, apperror.ErrNotAuthorized)

	_, err = ledger.NewHoldUseCase(store, nil).Execute(ctx, ledger.OperationCommand{
		Actor: admin, UserID: userID, Amount: amount("1"),
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestHoldReleaseRefund(t *testing.T) {
	store := memory.NewStore()
	notifier := &recordingNotifier{}
	ctx := context.Background()
	owner, vendor := uuid.New(), uuid.New()
	jobID := seedJob(t, store, owner).ID
	otherJobID := seedJob(t, store, owner).ID

	_, err := ledger.NewCreditUseCase(store, notifier).Execute(ctx, ledger.OperationCommand{Actor: admin, UserID: owner, Amount: amount("500")})
	require.NoError(t, err)

	_, err = ledger.NewHoldUseCase(store, notifier).Execute(ctx, ledger.OperationCommand{Actor: admin, UserID: owner, Amount: amount("501"), JobID: jobID})
	assert.ErrorIs(t, err, apperror.ErrInsufficientFunds)

	_, err = ledger.NewHoldUseCase(store, notifier).Execute(ctx, ledger.OperationCommand{Actor: admin, UserID: owner, Amount: amount("300"), JobID: jobID})
	require.NoError(t, err)

	// Средства другого заказа недоступны для выплаты.
	_, err = ledger.NewReleaseUseCase(store, notifier).Execute(ctx, ledger.OperationCommand{
		Actor: admin, UserID: owner, Amount: amount("10"), JobID: otherJobID, DestinationID: vendor,
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidEscrowState)

	_, err = ledger.NewRefundUseCase(store, notifier).Execute(ctx, ledger.OperationCommand{
		Actor: admin, UserID: owner, Amount: amount("10"), JobID: uuid.New(),
	})
	assert.ErrorIs(t, err, apperror.ErrJobNotFound)

	_, err = ledger.NewReleaseUseCase(store, notifier).Execute(ctx, ledger.OperationCommand{
		Actor: admin, UserID: owner, Amount: amount("200"), JobID: jobID, DestinationID: vendor,
	})
	require.NoError(t, err)

	_, err = ledger.NewRefundUseCase(store, notifier).Execute(ctx, ledger.OperationCommand{
		Actor: admin, UserID: owner, Amount: amount("100.01"), JobID: jobID,
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidEscrowState)

	res, err := ledger.NewRefundUseCase(store, notifier).Execute(ctx, ledger.OperationCommand{
		Actor: admin, UserID: owner, Amount: amount("100"), JobID: jobID,
	})
	require.NoError(t, err)
	assert.True(t, res.Account.Available.Equal(amount("300")))
	assert.True(t, res.Account.Escrow.IsZero())

	vendorAccount, err := ledger.NewGetAccountUseCase(store).Execute(ctx, vendor)
	require.NoError(t, err)
	assert.True(t, vendorAccount.Available.Equal(amount("200")))

	held, err := ledger.NewEscrowForJobUseCase(store).Execute(ctx, owner, jobID)
	require.NoError(t, err)
	assert.True(t, held.IsZero())

	// Каждая админская операция попадает в журнал модерации.
	assert.Len(t, store.AdminActions(), 4)
}

func TestReleaseRefund_RefusedWhileJobInProgress(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	owner, vendor := uuid.New(), uuid.New()
	j := seedJob(t, store, owner)

	_, err := ledger.NewCreditUseCase(store, nil).Execute(ctx, ledger.OperationCommand{Actor: admin, UserID: owner, Amount: amount("800")})
	require.NoError(t, err)
	require.NoError(t, store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		locked, err := tx.LockJob(ctx, j.ID)
		if err != nil {
			return err
		}
		if _, err := ledger.Hold(ctx, tx, owner, amount("800"), j.ID, "резерв"); err != nil {
			return err
		}
		if err := locked.Assign(vendor); err != nil {
			return err
		}
		return tx.UpdateJob(ctx, locked)
	}))

	_, err = ledger.NewRefundUseCase(store, nil).Execute(ctx, ledger.OperationCommand{
		Actor: admin, UserID: owner, Amount: amount("800"), JobID: j.ID,
	})
	assert.True(t, apperror.HasCode(err, apperror.ErrCodeInvalidJobState), "got %v", err)

	_, err = ledger.NewReleaseUseCase(store, nil).Execute(ctx, ledger.OperationCommand{
		Actor: admin, UserID: owner, Amount: amount("800"), JobID: j.ID, DestinationID: vendor,
	})
	assert.True(t, apperror.HasCode(err, apperror.ErrCodeInvalidJobState), "got %v", err)

	held, err := ledger.NewEscrowForJobUseCase(store).Execute(ctx, owner, j.ID)
	require.NoError(t, err)
	assert.True(t, held.Equal(amount("800")))
}

func TestReconcile(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	userID := uuid.New()

	_, err := ledger.NewCreditUseCase(store, nil).Execute(ctx, ledger.OperationCommand{Actor: self(userID), UserID: userID, Amount: amount("75.25")})
	require.NoError(t, err)

	_, err = ledger.NewReconcileUseCase(store).Execute(ctx, self(userID), userID)
	assert.ErrorIs(t, err, apperror.ErrNotAuthorized)

	report, err := ledger.NewReconcileUseCase(store).Execute(ctx, admin, userID)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Equal(t, 1, report.Transactions)
	assert.True(t, report.ReplayedAvailable.Equal(amount("75.25")))
}

func TestGetAccount_LazyCreate(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	userID := uuid.New()

	account, err := ledger.NewGetAccountUseCase(store).Execute(ctx, userID)
	require.NoError(t, err)
	assert.True(t, account.Available.IsZero())

	again, err := ledger.NewGetAccountUseCase(store).Execute(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, account.ID, again.ID)
}

func TestPostings_LockOrderViolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	ids := repository.LockOrder([]uuid.UUID{uuid.New(), uuid.New()})

	err := store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.LockAccount(ctx, ids[1]); err != nil {
			return err
		}
		_, err := tx.LockAccount(ctx, ids[0])
		return err
	})
	assert.ErrorIs(t, err, apperror.ErrLockOrder)

	err = store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := ledger.Credit(ctx, tx, ids[0], amount("1"), ""); err != nil {
			return err
		}
		_, err := tx.LockJob(ctx, uuid.New())
		return err
	})
	assert.ErrorIs(t, err, apperror.ErrLockOrder)

	// Откат: кредит из неудачной транзакции не сохранился.
	_, err = store.Ledger().FindAccountByUser(ctx, ids[0])
	assert.True(t, apperror.IsNotFound(err))
}
