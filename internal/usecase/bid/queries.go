package bid

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/labour-market/internal/domain/entity"
	"github.com/ignatzorin/labour-market/internal/domain/repository"
	"github.com/ignatzorin/labour-market/internal/pkg/authz"
)

type ListJobBidsUseCase struct {
	store repository.Store
}

func NewListJobBidsUseCase(store repository.Store) *ListJobBidsUseCase {
	return &ListJobBidsUseCase{store: store}
}

// Execute: владелец заказа и модераторы видят все отклики, исполнитель только свои.
func (uc *ListJobBidsUseCase) Execute(ctx context.Context, jobID uuid.UUID, viewer authz.Actor) ([]*entity.Bid, error) {
	job, err := uc.store.Jobs().FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	bids, err := uc.store.Bids().ListByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.IsOwnedBy(viewer.UserID) || authz.RequireModerator(viewer) == nil {
		return bids, nil
	}

	own := make([]*entity.Bid, 0, 1)
	for _, b := range bids {
		if b.IsOwnedBy(viewer.UserID) {
			own = append(own, b)
		}
	}
	return own, nil
}

type ListVendorBidsUseCase struct {
	bids repository.BidRepository
}

func NewListVendorBidsUseCase(bids repository.BidRepository) *ListVendorBidsUseCase {
	return &ListVendorBidsUseCase{bids: bids}
}

func (uc *ListVendorBidsUseCase) Execute(ctx context.Context, vendorID uuid.UUID) ([]*entity.Bid, error) {
	return uc.bids.ListByVendor(ctx, vendorID)
}
