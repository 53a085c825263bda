package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/labour-market/internal/domain/entity"
	"github.com/ignatzorin/labour-market/internal/domain/valueobject"
)

type JobRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Job, error)
	List(ctx context.Context, filter JobFilter) ([]*entity.Job, int, error)
}

type JobFilter struct {
	Status   *valueobject.JobStatus
	Category string
	OwnerID  *uuid.UUID
	Limit    int
	Offset   int
}

type BidRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Bid, error)
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]*entity.Bid, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]*entity.Bid, error)
}

type LedgerRepository interface {
	FindAccountByUser(ctx context.Context, userID uuid.UUID) (*entity.Account, error)
	ListTransactions(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]entity.LedgerTransaction, int, error)
}

type ReportRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Report, error)
	List(ctx context.Context, filter ReportFilter) ([]*entity.Report, int, error)
}

type ReportFilter struct {
	Status     *valueobject.ReportStatus
	ReporterID *uuid.UUID
	Limit      int
	Offset     int
}

type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Notification, int, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}
