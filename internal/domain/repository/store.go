package repository

import (
	"bytes"
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/labour-market/internal/domain/entity"
)

// Store — точка входа в хранилище. Все изменения проходят через WithinTx,
// чтения вне транзакции идут через репозитории.
type Store interface {
	// WithinTx выполняет fn в одной транзакции. Ошибка fn или истёкший ctx
	// откатывают все изменения.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	Jobs() JobRepository
	Bids() BidRepository
	Ledger() LedgerRepository
	Reports() ReportRepository
	Users() UserRepository
	Notifications() NotificationRepository

	Ping(ctx context.Context) error
}

// Locker захватывает агрегаты до конца транзакции.
// Порядок: сначала заказ, затем кошельки по возрастанию id пользователя.
type Locker interface {
	LockJob(ctx context.Context, id uuid.UUID) (*entity.Job, error)
	// LockAccount создаёт кошелёк при первом обращении.
	LockAccount(ctx context.Context, userID uuid.UUID) (*entity.Account, error)
	LockAccounts(ctx context.Context, userIDs ...uuid.UUID) (map[uuid.UUID]*entity.Account, error)
	LockReport(ctx context.Context, id uuid.UUID) (*entity.Report, error)
	LockUser(ctx context.Context, id uuid.UUID) (*entity.User, error)
	// LockUserByEmail возвращает ErrUserNotFound, но удерживает блокировку email,
	// чтобы параллельный вход не создал дубликат.
	LockUserByEmail(ctx context.Context, email string) (*entity.User, error)
}

type Tx interface {
	Locker

	CreateJob(ctx context.Context, job *entity.Job) error
	UpdateJob(ctx context.Context, job *entity.Job) error

	FindBid(ctx context.Context, id uuid.UUID) (*entity.Bid, error)
	ListBidsByJob(ctx context.Context, jobID uuid.UUID) ([]*entity.Bid, error)
	CreateBid(ctx context.Context, bid *entity.Bid) error
	UpdateBid(ctx context.Context, bid *entity.Bid) error

	UpdateAccount(ctx context.Context, account *entity.Account) error
	AppendTransaction(ctx context.Context, tx *entity.LedgerTransaction) error
	EscrowForJob(ctx context.Context, accountID, jobID uuid.UUID) (decimal.Decimal, error)
	AccountTransactions(ctx context.Context, accountID uuid.UUID) ([]entity.LedgerTransaction, error)

	CreateReport(ctx context.Context, report *entity.Report) error
	UpdateReport(ctx context.Context, report *entity.Report) error

	CreateUser(ctx context.Context, user *entity.User) error
	UpdateUser(ctx context.Context, user *entity.User) error

	RecordAdminAction(ctx context.Context, action *entity.AdminAction) error
}

// LockOrder убирает повторы и сортирует id по возрастанию, в порядке захвата кошельков.
func LockOrder(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}
