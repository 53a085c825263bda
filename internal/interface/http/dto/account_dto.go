package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/labour-market/internal/domain/entity"
	"github.com/ignatzorin/labour-market/internal/usecase/ledger"
)

// WalletOperationRequest — пополнение или списание своего кошелька.
type WalletOperationRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" binding:"max=500"`
}

// LedgerOperationRequest — админская операция над чужим кошельком.
type LedgerOperationRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description" binding:"max=500"`
	JobID         *string         `json:"job_id" binding:"omitempty,uuid"`
	DestinationID *string         `json:"destination_id" binding:"omitempty,uuid"`
}

type AccountResponse struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Available decimal.Decimal `json:"available_balance"`
	Escrow    decimal.Decimal `json:"escrow_balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func ToAccountResponse(a *entity.Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID,
		UserID:    a.UserID,
		Available: a.Available,
		Escrow:    a.Escrow,
		UpdatedAt: a.UpdatedAt,
	}
}

type TransactionResponse struct {
	ID             uuid.UUID       `json:"id"`
	Type           string          `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description"`
	RelatedJobID   *uuid.UUID      `json:"related_job_id"`
	CounterpartyID *uuid.UUID      `json:"counterparty_id"`
	CreatedAt      time.Time       `json:"created_at"`
}

func ToTransactionResponse(t *entity.LedgerTransaction) TransactionResponse {
	return TransactionResponse{
		ID:             t.ID,
		Type:           string(t.Type),
		Amount:         t.Amount,
		Description:    t.Description,
		RelatedJobID:   t.RelatedJobID,
		CounterpartyID: t.CounterpartyID,
		CreatedAt:      t.CreatedAt,
	}
}

func ToTransactionResponses(txs []entity.LedgerTransaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for i := range txs {
		out = append(out, ToTransactionResponse(&txs[i]))
	}
	return out
}

type OperationResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Account     AccountResponse     `json:"account"`
}

func ToOperationResponse(res *ledger.OperationResult) OperationResponse {
	return OperationResponse{
		Transaction: ToTransactionResponse(res.Transaction),
		Account:     ToAccountResponse(res.Account),
	}
}

type ReconcileResponse struct {
	UserID            uuid.UUID       `json:"user_id"`
	CachedAvailable   decimal.Decimal `json:"cached_available"`
	CachedEscrow      decimal.Decimal `json:"cached_escrow"`
	ReplayedAvailable decimal.Decimal `json:"replayed_available"`
	ReplayedEscrow    decimal.Decimal `json:"replayed_escrow"`
	Transactions      int             `json:"transactions"`
	Consistent        bool            `json:"consistent"`
}

func ToReconcileResponse(r *ledger.ReconcileReport) ReconcileResponse {
	return ReconcileResponse{
		UserID:            r.UserID,
		CachedAvailable:   r.CachedAvailable,
		CachedEscrow:      r.CachedEscrow,
		ReplayedAvailable: r.ReplayedAvailable,
		ReplayedEscrow:    r.ReplayedEscrow,
		Transactions:      r.Transactions,
		Consistent:        r.Consistent,
	}
}

type CreateReportRequest struct {
	TargetType  string  `json:"target_type" binding:"required,oneof=user job bid listing review"`
	TargetID    string  `json:"target_id" binding:"required,uuid"`
	Reason      string  `json:"reason" binding:"required,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

type ResolveReportRequest struct {
	Outcome string `json:"outcome" binding:"required,oneof=reviewed resolved dismissed"`
	Note    string `json:"note" binding:"max=2000"`
}

type ReportResponse struct {
	ID          uuid.UUID  `json:"id"`
	ReporterID  uuid.UUID  `json:"reporter_id"`
	TargetType  string     `json:"target_type"`
	TargetID    uuid.UUID  `json:"target_id"`
	Reason      string     `json:"reason"`
	Description *string    `json:"description"`
	Status      string     `json:"status"`
	Resolution  *string    `json:"resolution"`
	ResolvedBy  *uuid.UUID `json:"resolved_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func ToReportResponse(r *entity.Report) ReportResponse {
	return ReportResponse{
		ID:          r.ID,
		ReporterID:  r.ReporterID,
		TargetType:  r.TargetType,
		TargetID:    r.TargetID,
		Reason:      r.Reason,
		Description: r.Description,
		Status:      string(r.Status),
		Resolution:  r.Resolution,
		ResolvedBy:  r.ResolvedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func ToReportResponses(reports []*entity.Report) []ReportResponse {
	out := make([]ReportResponse, 0, len(reports))
	for _, r := range reports {
		out = append(out, ToReportResponse(r))
	}
	return out
}

type SyncUserRequest struct {
	Email       string  `json:"email" binding:"required,email"`
	Name        string  `json:"name" binding:"max=100"`
	ExternalUID string  `json:"external_uid" binding:"max=128"`
	Avatar      *string `json:"avatar" binding:"omitempty,url"`
}

type BanUserRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Avatar     *string   `json:"avatar"`
	City       *string   `json:"city"`
	Role       string    `json:"role"`
	IsBanned   bool      `json:"is_banned"`
	BanReason  *string   `json:"ban_reason,omitempty"`
	LastActive time.Time `json:"last_active"`
	CreatedAt  time.Time `json:"created_at"`
}

func ToUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Avatar:     u.Avatar,
		City:       u.City,
		Role:       string(u.Role),
		IsBanned:   u.IsBanned,
		BanReason:  u.BanReason,
		LastActive: u.LastActive,
		CreatedAt:  u.CreatedAt,
	}
}

type NotificationResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func ToNotificationResponses(items []*entity.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, NotificationResponse{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Type:      n.Type,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}
	return out
}
