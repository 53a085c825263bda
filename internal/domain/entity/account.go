package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/labour-market/internal/domain/valueobject"
	"github.com/ignatzorin/labour-market/internal/pkg/apperror"
)

// Account — кошелёк пользователя. Балансы кэшируются, источник истины — журнал транзакций.
type Account struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Available decimal.Decimal
	Escrow    decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewAccount(userID uuid.UUID) *Account {
	now := time.Now()
	return &Account{
		ID:        uuid.New(),
		UserID:    userID,
		Available: decimal.Zero,
		Escrow:    decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// LedgerTransaction — неизменяемая запись журнала.
type LedgerTransaction struct {
	ID             uuid.UUID
	AccountID      uuid.UUID
	Type           valueobject.TransactionType
	Amount         decimal.Decimal
	Description    string
	RelatedJobID   *uuid.UUID
	CounterpartyID *uuid.UUID
	CreatedAt      time.Time
}

// Apply изменяет балансы согласно типу операции и возвращает запись журнала.
// При нарушении неотрицательности балансы не меняются.
func (a *Account) Apply(txType valueobject.TransactionType, amount decimal.Decimal, description string, jobID *uuid.UUID) (*LedgerTransaction, error) {
	if !txType.IsValid() {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный тип транзакции")
	}
	amount, err := valueobject.NewAmount(amount)
	if err != nil {
		return nil, err
	}

	available, escrow, err := applyDelta(txType, a.Available, a.Escrow, amount)
	if err != nil {
		return nil, err
	}

	a.Available = available
	a.Escrow = escrow
	a.UpdatedAt = time.Now()

	return &LedgerTransaction{
		ID:           uuid.New(),
		AccountID:    a.ID,
		Type:         txType,
		Amount:       amount,
		Description:  description,
		RelatedJobID: jobID,
		CreatedAt:    a.UpdatedAt,
	}, nil
}

func applyDelta(txType valueobject.TransactionType, available, escrow, amount decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	switch txType {
	case valueobject.TransactionTypeCredit:
		available = available.Add(amount)
	case valueobject.TransactionTypeDebit:
		if amount.GreaterThan(available) {
			return available, escrow, apperror.ErrInsufficientFunds
		}
		available = available.Sub(amount)
	case valueobject.TransactionTypeEscrowHold:
		if amount.GreaterThan(available) {
			return available, escrow, apperror.ErrInsufficientFunds
		}
		available = available.Sub(amount)
		escrow = escrow.Add(amount)
	case valueobject.TransactionTypeEscrowRelease:
		if amount.GreaterThan(escrow) {
			return available, escrow, apperror.ErrInvalidEscrowState
		}
		escrow = escrow.Sub(amount)
	case valueobject.TransactionTypeRefund:
		if amount.GreaterThan(escrow) {
			return available, escrow, apperror.ErrInvalidEscrowState
		}
		escrow = escrow.Sub(amount)
		available = available.Add(amount)
	}
	return available, escrow, nil
}

// Replay пересчитывает балансы по журналу в порядке записей.
func Replay(transactions []LedgerTransaction) (available, escrow decimal.Decimal, err error) {
	available, escrow = decimal.Zero, decimal.Zero
	for _, tx := range transactions {
		available, escrow, err = applyDelta(tx.Type, available, escrow, tx.Amount)
		if err != nil {
			return available, escrow, err
		}
	}
	return available, escrow, nil
}

// EscrowHeldForJob возвращает сумму, замороженную по конкретному заказу.
func EscrowHeldForJob(transactions []LedgerTransaction, jobID uuid.UUID) decimal.Decimal {
	held := decimal.Zero
	for _, tx := range transactions {
		if tx.RelatedJobID == nil || *tx.RelatedJobID != jobID {
			continue
		}
		switch tx.Type {
		case valueobject.TransactionTypeEscrowHold:
			held = held.Add(tx.Amount)
		case valueobject.TransactionTypeEscrowRelease, valueobject.TransactionTypeRefund:
			held = held.Sub(tx.Amount)
		}
	}
	return held
}

// Matches сравнивает кэш с пересчитанными значениями.
func (a *Account) Matches(available, escrow decimal.Decimal) bool {
	return a.Available.Equal(available) && a.Escrow.Equal(escrow)
}
