// Package memory — хранилище в памяти процесса для тестов и локального запуска
// (STORAGE_DRIVER=memory). Семантика блокировок совпадает с Postgres.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ignatzorin/labour-market/internal/domain/entity"
	"github.com/ignatzorin/labour-market/internal/domain/repository"
	"github.com/ignatzorin/labour-market/internal/pkg/apperror"
)

type Store struct {
	mu sync.RWMutex

	jobs          map[uuid.UUID]entity.Job
	bids          map[uuid.UUID]entity.Bid
	accounts      map[uuid.UUID]entity.Account // ключ — id пользователя
	transactions  []entity.LedgerTransaction
	reports       map[uuid.UUID]entity.Report
	users         map[uuid.UUID]entity.User
	notifications []entity.Notification
	adminActions  []entity.AdminAction

	locks *keyedLocks
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		jobs:     make(map[uuid.UUID]entity.Job),
		bids:     make(map[uuid.UUID]entity.Bid),
		accounts: make(map[uuid.UUID]entity.Account),
		reports:  make(map[uuid.UUID]entity.Report),
		users:    make(map[uuid.UUID]entity.User),
		locks:    newKeyedLocks(),
	}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t := newTx(s)
	defer t.releaseAll()

	if err := fn(ctx, t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t.commit()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// AdminActions возвращает журнал действий модераторов.
func (s *Store) AdminActions() []entity.AdminAction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.AdminAction(nil), s.adminActions...)
}

func (s *Store) Jobs() repository.JobRepository                   { return jobReader{s} }
func (s *Store) Bids() repository.BidRepository                   { return bidReader{s} }
func (s *Store) Ledger() repository.LedgerRepository             { return ledgerReader{s} }
func (s *Store) Reports() repository.ReportRepository             { return reportReader{s} }
func (s *Store) Users() repository.UserRepository                 { return userReader{s} }
func (s *Store) Notifications() repository.NotificationRepository { return notificationRepo{s} }

type jobReader struct{ s *Store }

func (r jobReader) FindByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	job, ok := r.s.jobs[id]
	if !ok {
		return nil, apperror.ErrJobNotFound
	}
	return &job, nil
}

func (r jobReader) List(ctx context.Context, filter repository.JobFilter) ([]*entity.Job, int, error) {
	r.s.mu.RLock()
	var jobs []*entity.Job
	for _, job := range r.s.jobs {
		if filter.Status != nil && job.Status != *filter.Status {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(job.Category, filter.Category) {
			continue
		}
		if filter.OwnerID != nil && job.OwnerID != *filter.OwnerID {
			continue
		}
		job := job
		jobs = append(jobs, &job)
	}
	r.s.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.After(jobs[j].CreatedAt) })
	return paginate(jobs, filter.Limit, filter.Offset), len(jobs), nil
}

type bidReader struct{ s *Store }

func (r bidReader) FindByID(ctx context.Context, id uuid.UUID) (*entity.Bid, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	bid, ok := r.s.bids[id]
	if !ok {
		return nil, apperror.ErrBidNotFound
	}
	return &bid, nil
}

func (r bidReader) ListByJob(ctx context.Context, jobID uuid.UUID) ([]*entity.Bid, error) {
	return r.filter(func(b entity.Bid) bool { return b.JobID == jobID }), nil
}

func (r bidReader) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]*entity.Bid, error) {
	return r.filter(func(b entity.Bid) bool { return b.VendorID == vendorID }), nil
}

func (r bidReader) filter(match func(entity.Bid) bool) []*entity.Bid {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	bids := make([]*entity.Bid, 0)
	for _, bid := range r.s.bids {
		if match(bid) {
			bid := bid
			bids = append(bids, &bid)
		}
	}
	sortBids(bids)
	return bids
}

type ledgerReader struct{ s *Store }

func (r ledgerReader) FindAccountByUser(ctx context.Context, userID uuid.UUID) (*entity.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	account, ok := r.s.accounts[userID]
	if !ok {
		return nil, apperror.ErrAccountNotFound
	}
	return &account, nil
}

func (r ledgerReader) ListTransactions(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]entity.LedgerTransaction, int, error) {
	r.s.mu.RLock()
	var txs []entity.LedgerTransaction
	for i := len(r.s.transactions) - 1; i >= 0; i-- {
		if r.s.transactions[i].AccountID == accountID {
			txs = append(txs, r.s.transactions[i])
		}
	}
	r.s.mu.RUnlock()
	return paginate(txs, limit, offset), len(txs), nil
}

type reportReader struct{ s *Store }

func (r reportReader) FindByID(ctx context.Context, id uuid.UUID) (*entity.Report, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	report, ok := r.s.reports[id]
	if !ok {
		return nil, apperror.ErrReportNotFound
	}
	return &report, nil
}

func (r reportReader) List(ctx context.Context, filter repository.ReportFilter) ([]*entity.Report, int, error) {
	r.s.mu.RLock()
	var reports []*entity.Report
	for _, report := range r.s.reports {
		if filter.Status != nil && report.Status != *filter.Status {
			continue
		}
		if filter.ReporterID != nil && report.ReporterID != *filter.ReporterID {
			continue
		}
		report := report
		reports = append(reports, &report)
	}
	r.s.mu.RUnlock()

	sort.Slice(reports, func(i, j int) bool { return reports[i].CreatedAt.After(reports[j].CreatedAt) })
	return paginate(reports, filter.Limit, filter.Offset), len(reports), nil
}

type userReader struct{ s *Store }

func (r userReader) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, apperror.ErrUserNotFound
	}
	return &user, nil
}

func (r userReader) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if user, ok := r.s.userByEmail(email); ok {
		return &user, nil
	}
	return nil, apperror.ErrUserNotFound
}

func (s *Store) userByEmail(email string) (entity.User, bool) {
	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return user, true
		}
	}
	return entity.User{}, false
}

type notificationRepo struct{ s *Store }

func (r notificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.notifications = append(r.s.notifications, *n)
	return nil
}

func (r notificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Notification, int, error) {
	r.s.mu.RLock()
	var result []*entity.Notification
	for i := len(r.s.notifications) - 1; i >= 0; i-- {
		if n := r.s.notifications[i]; n.UserID == userID {
			result = append(result, &n)
		}
	}
	r.s.mu.RUnlock()
	return paginate(result, limit, offset), len(result), nil
}

func (r notificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	count := 0
	for _, n := range r.s.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r notificationRepo) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.notifications {
		if r.s.notifications[i].ID == id && r.s.notifications[i].UserID == userID {
			r.s.notifications[i].IsRead = true
			return nil
		}
	}
	return apperror.ErrNotificationNotFound
}

func (r notificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.notifications {
		if r.s.notifications[i].UserID == userID {
			r.s.notifications[i].IsRead = true
		}
	}
	return nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func sortBids(bids []*entity.Bid) {
	sort.Slice(bids, func(i, j int) bool { return bids[i].CreatedAt.Before(bids[j].CreatedAt) })
}
