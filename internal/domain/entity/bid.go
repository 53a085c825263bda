package entity

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/labour-market/internal/domain/valueobject"
	"github.com/ignatzorin/labour-market/internal/pkg/apperror"
)

const (
	MaxBidMessageLength      = 2000
	MaxBidDeliveryTimeLength = 100
)

type Bid struct {
	ID           uuid.UUID
	JobID        uuid.UUID
	VendorID     uuid.UUID
	Amount       decimal.Decimal
	Message      string
	DeliveryTime string
	Status       valueobject.BidStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewBid(jobID, vendorID uuid.UUID, amount decimal.Decimal, message, deliveryTime string) (*Bid, error) {
	amount, err := valueobject.NewAmount(amount)
	if err != nil {
		return nil, err
	}
	message = strings.TrimSpace(message)
	if utf8.RuneCountInString(message) > MaxBidMessageLength {
		return nil, apperror.Newf(apperror.ErrCodeValidation, "сообщение не должно превышать %d символов", MaxBidMessageLength)
	}
	deliveryTime = strings.TrimSpace(deliveryTime)
	if utf8.RuneCountInString(deliveryTime) > MaxBidDeliveryTimeLength {
		return nil, apperror.New(apperror.ErrCodeValidation, "слишком длинный срок выполнения")
	}

	now := time.Now()
	return &Bid{
		ID:           uuid.New(),
		JobID:        jobID,
		VendorID:     vendorID,
		Amount:       amount,
		Message:      message,
		DeliveryTime: deliveryTime,
		Status:       valueobject.BidStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (b *Bid) IsOwnedBy(userID uuid.UUID) bool {
	return b.VendorID == userID
}

func (b *Bid) IsPending() bool {
	return b.Status == valueobject.BidStatusPending
}

// IsActive: отклик ещё может быть принят или отозван.
func (b *Bid) IsActive() bool {
	return !b.Status.IsTerminal()
}

func (b *Bid) Accept() error {
	return b.transition(valueobject.BidStatusAccepted)
}

func (b *Bid) Reject() error {
	return b.transition(valueobject.BidStatusRejected)
}

func (b *Bid) transition(target valueobject.BidStatus) error {
	if !b.IsPending() {
		return apperror.ErrBidNotPending
	}
	b.Status = target
	b.UpdatedAt = time.Now()
	return nil
}
