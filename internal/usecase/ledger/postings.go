// Package ledger — операции с кошельками. Функции этого файла работают внутри
// уже открытой транзакции и используются заказами и откликами.
package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/labour-market/internal/domain/entity"
	"github.com/ignatzorin/labour-market/internal/domain/repository"
	"github.com/ignatzorin/labour-market/internal/domain/valueobject"
	"github.com/ignatzorin/labour-market/internal/pkg/apperror"
)

func post(ctx context.Context, tx repository.Tx, account *entity.Account, txType valueobject.TransactionType,
	amount decimal.Decimal, description string, jobID, counterparty *uuid.UUID) (*entity.LedgerTransaction, error) {
	ltx, err := account.Apply(txType, amount, description, jobID)
	if err != nil {
		return nil, err
	}
	ltx.CounterpartyID = counterparty

	if err := tx.UpdateAccount(ctx, account); err != nil {
		return nil, err
	}
	if err := tx.AppendTransaction(ctx, ltx); err != nil {
		return nil, err
	}
	return ltx, nil
}

func Credit(ctx context.Context, tx repository.Tx, userID uuid.UUID, amount decimal.Decimal, description string) (*entity.LedgerTransaction, error) {
	account, err := tx.LockAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return post(ctx, tx, account, valueobject.TransactionTypeCredit, amount, description, nil, nil)
}

func Debit(ctx context.Context, tx repository.Tx, userID uuid.UUID, amount decimal.Decimal, description string) (*entity.LedgerTransaction, error) {
	account, err := tx.LockAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return post(ctx, tx, account, valueobject.TransactionTypeDebit, amount, description, nil, nil)
}

// Hold замораживает средства под заказ.
func Hold(ctx context.Context, tx repository.Tx, userID uuid.UUID, amount decimal.Decimal, jobID uuid.UUID, description string) (*entity.LedgerTransaction, error) {
	account, err := tx.LockAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return post(ctx, tx, account, valueobject.TransactionTypeEscrowHold, amount, description, &jobID, nil)
}

// Release переводит замороженные под заказ средства на доступный баланс получателя.
// Возвращает записи списания у отправителя и зачисления у получателя.
func Release(ctx context.Context, tx repository.Tx, fromUserID, toUserID uuid.UUID, amount decimal.Decimal, jobID uuid.UUID, description string) (*entity.LedgerTransaction, *entity.LedgerTransaction, error) {
	accounts, err := tx.LockAccounts(ctx, fromUserID, toUserID)
	if err != nil {
		return nil, nil, err
	}
	source, destination := accounts[fromUserID], accounts[toUserID]

	if err := requireHeld(ctx, tx, source.ID, jobID, amount); err != nil {
		return nil, nil, err
	}

	out, err := post(ctx, tx, source, valueobject.TransactionTypeEscrowRelease, amount, description, &jobID, &toUserID)
	if err != nil {
		return nil, nil, err
	}
	in, err := post(ctx, tx, destination, valueobject.TransactionTypeCredit, amount, description, &jobID, &fromUserID)
	if err != nil {
		return nil, nil, err
	}
	return out, in, nil
}

// Refund возвращает замороженные под заказ средства владельцу.
func Refund(ctx context.Context, tx repository.Tx, userID uuid.UUID, amount decimal.Decimal, jobID uuid.UUID, description string) (*entity.LedgerTransaction, error) {
	account, err := tx.LockAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := requireHeld(ctx, tx, account.ID, jobID, amount); err != nil {
		return nil, err
	}
	return post(ctx, tx, account, valueobject.TransactionTypeRefund, amount, description, &jobID, nil)
}

// ReleaseHeld выплачивает всю сумму, замороженную под заказ.
func ReleaseHeld(ctx context.Context, tx repository.Tx, fromUserID, toUserID, jobID uuid.UUID, description string) (decimal.Decimal, error) {
	// Оба кошелька блокируются сразу, иначе порядок захвата зависит от id.
	if _, err := tx.LockAccounts(ctx, fromUserID, toUserID); err != nil {
		return decimal.Zero, err
	}
	held, err := heldFor(ctx, tx, fromUserID, jobID)
	if err != nil {
		return decimal.Zero, err
	}
	if _, _, err := Release(ctx, tx, fromUserID, toUserID, held, jobID, description); err != nil {
		return decimal.Zero, err
	}
	return held, nil
}

// RefundHeld возвращает владельцу всю сумму, замороженную под заказ.
func RefundHeld(ctx context.Context, tx repository.Tx, userID, jobID uuid.UUID, description string) (decimal.Decimal, error) {
	held, err := heldFor(ctx, tx, userID, jobID)
	if err != nil {
		return decimal.Zero, err
	}
	if _, err := Refund(ctx, tx, userID, held, jobID, description); err != nil {
		return decimal.Zero, err
	}
	return held, nil
}

func heldFor(ctx context.Context, tx repository.Tx, userID, jobID uuid.UUID) (decimal.Decimal, error) {
	account, err := tx.LockAccount(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	held, err := tx.EscrowForJob(ctx, account.ID, jobID)
	if err != nil {
		return decimal.Zero, err
	}
	if !held.IsPositive() {
		return decimal.Zero, apperror.ErrInvalidEscrowState
	}
	return held, nil
}

func requireHeld(ctx context.Context, tx repository.Tx, accountID, jobID uuid.UUID, amount decimal.Decimal) error {
	held, err := tx.EscrowForJob(ctx, accountID, jobID)
	if err != nil {
		return err
	}
	if amount.GreaterThan(held) {
		return apperror.ErrInvalidEscrowState
	}
	return nil
}
