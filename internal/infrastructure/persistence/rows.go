package persistence

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/labour-market/internal/domain/entity"
	"github.com/ignatzorin/labour-market/internal/domain/valueobject"
)

const (
	jobColumns = `id, owner_id, title, description, category, budget_min, budget_max, timeline,
		urgency, city, status, assigned_vendor_id, bid_count, created_at, updated_at`
	bidColumns          = `id, job_id, vendor_id, amount, message, delivery_time, status, created_at, updated_at`
	accountColumns      = `id, user_id, available, escrow, created_at, updated_at`
	transactionColumns  = `id, account_id, type, amount, description, related_job_id, counterparty_id, created_at`
	reportColumns       = `id, reporter_id, target_type, target_id, reason, description, status, resolution, resolved_by, created_at, updated_at`
	userColumns         = `id, external_uid, email, name, phone, avatar, role, is_online, is_banned, ban_reason, city, last_active, created_at, updated_at`
	notificationColumns = `id, user_id, title, message, type, is_read, created_at`
)

type jobRow struct {
	ID               uuid.UUID        `db:"id"`
	OwnerID          uuid.UUID        `db:"owner_id"`
	Title            string           `db:"title"`
	Description      string           `db:"description"`
	Category         string           `db:"category"`
	BudgetMin        *decimal.Decimal `db:"budget_min"`
	BudgetMax        *decimal.Decimal `db:"budget_max"`
	Timeline         *string          `db:"timeline"`
	Urgency          string           `db:"urgency"`
	City             *string          `db:"city"`
	Status           string           `db:"status"`
	AssignedVendorID *uuid.UUID       `db:"assigned_vendor_id"`
	BidCount         int              `db:"bid_count"`
	CreatedAt        time.Time        `db:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at"`
}

func (r *jobRow) toEntity() *entity.Job {
	return &entity.Job{
		ID:               r.ID,
		OwnerID:          r.OwnerID,
		Title:            r.Title,
		Description:      r.Description,
		Category:         r.Category,
		Budget:           valueobject.Budget{Min: r.BudgetMin, Max: r.BudgetMax},
		Timeline:         r.Timeline,
		Urgency:          r.Urgency,
		City:             r.City,
		Status:           valueobject.JobStatus(r.Status),
		AssignedVendorID: r.AssignedVendorID,
		BidCount:         r.BidCount,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

type bidRow struct {
	ID           uuid.UUID       `db:"id"`
	JobID        uuid.UUID       `db:"job_id"`
	VendorID     uuid.UUID       `db:"vendor_id"`
	Amount       decimal.Decimal `db:"amount"`
	Message      string          `db:"message"`
	DeliveryTime string          `db:"delivery_time"`
	Status       string          `db:"status"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

func (r *bidRow) toEntity() *entity.Bid {
	return &entity.Bid{
		ID:           r.ID,
		JobID:        r.JobID,
		VendorID:     r.VendorID,
		Amount:       r.Amount,
		Message:      r.Message,
		DeliveryTime: r.DeliveryTime,
		Status:       valueobject.BidStatus(r.Status),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func toBidEntities(rows []bidRow) []*entity.Bid {
	result := make([]*entity.Bid, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result
}

type accountRow struct {
	ID        uuid.UUID       `db:"id"`
	UserID    uuid.UUID       `db:"user_id"`
	Available decimal.Decimal `db:"available"`
	Escrow    decimal.Decimal `db:"escrow"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (r *accountRow) toEntity() *entity.Account {
	return &entity.Account{
		ID:        r.ID,
		UserID:    r.UserID,
		Available: r.Available,
		Escrow:    r.Escrow,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type transactionRow struct {
	ID             uuid.UUID       `db:"id"`
	AccountID      uuid.UUID       `db:"account_id"`
	Type           string          `db:"type"`
	Amount         decimal.Decimal `db:"amount"`
	Description    string          `db:"description"`
	RelatedJobID   *uuid.UUID      `db:"related_job_id"`
	CounterpartyID *uuid.UUID      `db:"counterparty_id"`
	CreatedAt      time.Time       `db:"created_at"`
}

func toTransactionEntities(rows []transactionRow) []entity.LedgerTransaction {
	result := make([]entity.LedgerTransaction, len(rows))
	for i, r := range rows {
		result[i] = entity.LedgerTransaction{
			ID:             r.ID,
			AccountID:      r.AccountID,
			Type:           valueobject.TransactionType(r.Type),
			Amount:         r.Amount,
			Description:    r.Description,
			RelatedJobID:   r.RelatedJobID,
			CounterpartyID: r.CounterpartyID,
			CreatedAt:      r.CreatedAt,
		}
	}
	return result
}

type reportRow struct {
	ID          uuid.UUID  `db:"id"`
	ReporterID  uuid.UUID  `db:"reporter_id"`
	TargetType  string     `db:"target_type"`
	TargetID    uuid.UUID  `db:"target_id"`
	Reason      string     `db:"reason"`
	Description *string    `db:"description"`
	Status      string     `db:"status"`
	Resolution  *string    `db:"resolution"`
	ResolvedBy  *uuid.UUID `db:"resolved_by"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

func (r *reportRow) toEntity() *entity.Report {
	return &entity.Report{
		ID:          r.ID,
		ReporterID:  r.ReporterID,
		TargetType:  r.TargetType,
		TargetID:    r.TargetID,
		Reason:      r.Reason,
		Description: r.Description,
		Status:      valueobject.ReportStatus(r.Status),
		Resolution:  r.Resolution,
		ResolvedBy:  r.ResolvedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type userRow struct {
	ID          uuid.UUID `db:"id"`
	ExternalUID *string   `db:"external_uid"`
	Email       string    `db:"email"`
	Name        string    `db:"name"`
	Phone       *string   `db:"phone"`
	Avatar      *string   `db:"avatar"`
	Role        string    `db:"role"`
	IsOnline    bool      `db:"is_online"`
	IsBanned    bool      `db:"is_banned"`
	BanReason   *string   `db:"ban_reason"`
	City        *string   `db:"city"`
	LastActive  time.Time `db:"last_active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r *userRow) toEntity() *entity.User {
	return &entity.User{
		ID:          r.ID,
		ExternalUID: r.ExternalUID,
		Email:       r.Email,
		Name:        r.Name,
		Phone:       r.Phone,
		Avatar:      r.Avatar,
		Role:        valueobject.Role(r.Role),
		IsOnline:    r.IsOnline,
		IsBanned:    r.IsBanned,
		BanReason:   r.BanReason,
		City:        r.City,
		LastActive:  r.LastActive,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type notificationRow struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	Title     string    `db:"title"`
	Message   string    `db:"message"`
	Type      string    `db:"type"`
	IsRead    bool      `db:"is_read"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *notificationRow) toEntity() *entity.Notification {
	return &entity.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Title:     r.Title,
		Message:   r.Message,
		Type:      r.Type,
		IsRead:    r.IsRead,
		CreatedAt: r.CreatedAt,
	}
}

func detailsJSON(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return []byte(`{}`)
	}
	return raw
}
