package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/labour-market/internal/domain/entity"
)

type CreateJobRequest struct {
	Title       string           `json:"title" binding:"required"`
	Description string           `json:"description" binding:"required"`
	Category    string           `json:"category" binding:"required"`
	BudgetMin   *decimal.Decimal `json:"budget_min"`
	BudgetMax   *decimal.Decimal `json:"budget_max"`
	Timeline    *string          `json:"timeline"`
	Urgency     string           `json:"urgency" binding:"omitempty,oneof=normal urgent"`
	City        *string          `json:"city"`
}

type JobResponse struct {
	ID               uuid.UUID        `json:"id"`
	OwnerID          uuid.UUID        `json:"owner_id"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	Category         string           `json:"category"`
	BudgetMin        *decimal.Decimal `json:"budget_min"`
	BudgetMax        *decimal.Decimal `json:"budget_max"`
	Timeline         *string          `json:"timeline"`
	Urgency          string           `json:"urgency"`
	City             *string          `json:"city"`
	Status           string           `json:"status"`
	AssignedVendorID *uuid.UUID       `json:"assigned_vendor_id"`
	BidCount         int              `json:"bid_count"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func ToJobResponse(j *entity.Job) JobResponse {
	return JobResponse{
		ID:               j.ID,
		OwnerID:          j.OwnerID,
		Title:            j.Title,
		Description:      j.Description,
		Category:         j.Category,
		BudgetMin:        j.Budget.Min,
		BudgetMax:        j.Budget.Max,
		Timeline:         j.Timeline,
		Urgency:          j.Urgency,
		City:             j.City,
		Status:           string(j.Status),
		AssignedVendorID: j.AssignedVendorID,
		BidCount:         j.BidCount,
		CreatedAt:        j.CreatedAt,
		UpdatedAt:        j.UpdatedAt,
	}
}

func ToJobResponses(jobs []*entity.Job) []JobResponse {
	out := make([]JobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, ToJobResponse(j))
	}
	return out
}

type CompleteJobResponse struct {
	Job            JobResponse     `json:"job"`
	ReleasedAmount decimal.Decimal `json:"released_amount"`
}

type CancelJobResponse struct {
	Job            JobResponse      `json:"job"`
	RefundedAmount *decimal.Decimal `json:"refunded_amount,omitempty"`
	RejectedBids   int              `json:"rejected_bids"`
}

type SubmitBidRequest struct {
	Amount       decimal.Decimal `json:"amount"`
	Message      string          `json:"message" binding:"max=2000"`
	DeliveryTime string          `json:"delivery_time" binding:"max=100"`
}

type BidResponse struct {
	ID           uuid.UUID       `json:"id"`
	JobID        uuid.UUID       `json:"job_id"`
	VendorID     uuid.UUID       `json:"vendor_id"`
	Amount       decimal.Decimal `json:"amount"`
	Message      string          `json:"message"`
	DeliveryTime string          `json:"delivery_time"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func ToBidResponse(b *entity.Bid) BidResponse {
	return BidResponse{
		ID:           b.ID,
		JobID:        b.JobID,
		VendorID:     b.VendorID,
		Amount:       b.Amount,
		Message:      b.Message,
		DeliveryTime: b.DeliveryTime,
		Status:       string(b.Status),
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func ToBidResponses(bids []*entity.Bid) []BidResponse {
	out := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		out = append(out, ToBidResponse(b))
	}
	return out
}

type AcceptBidResponse struct {
	Job          JobResponse   `json:"job"`
	AcceptedBid  BidResponse   `json:"accepted_bid"`
	RejectedBids []BidResponse `json:"rejected_bids"`
}
