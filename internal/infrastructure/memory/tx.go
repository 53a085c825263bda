package memory

import (
	"bytes"
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/labour-market/internal/domain/entity"
	"github.com/ignatzorin/labour-market/internal/domain/repository"
	"github.com/ignatzorin/labour-market/internal/pkg/apperror"
)

// tx копит изменения и применяет их к Store при коммите.
type tx struct {
	s    *Store
	held []string

	lockedJobs     map[uuid.UUID]bool
	lockedAccounts map[uuid.UUID]bool
	maxAccount     *uuid.UUID

	jobs         map[uuid.UUID]entity.Job
	bids         map[uuid.UUID]entity.Bid
	accounts     map[uuid.UUID]entity.Account
	transactions []entity.LedgerTransaction
	reports      map[uuid.UUID]entity.Report
	users        map[uuid.UUID]entity.User
	adminActions []entity.AdminAction
}

var _ repository.Tx = (*tx)(nil)

func newTx(s *Store) *tx {
	return &tx{
		s:              s,
		lockedJobs:     make(map[uuid.UUID]bool),
		lockedAccounts: make(map[uuid.UUID]bool),
		jobs:           make(map[uuid.UUID]entity.Job),
		bids:           make(map[uuid.UUID]entity.Bid),
		accounts:       make(map[uuid.UUID]entity.Account),
		reports:        make(map[uuid.UUID]entity.Report),
		users:          make(map[uuid.UUID]entity.User),
	}
}

func (t *tx) lock(ctx context.Context, key string) error {
	for _, k := range t.held {
		if k == key {
			return nil
		}
	}
	if err := t.s.locks.acquire(ctx, key); err != nil {
		return err
	}
	t.held = append(t.held, key)
	return nil
}

func (t *tx) releaseAll() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.s.locks.release(t.held[i])
	}
	t.held = nil
}

func (t *tx) commit() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	for id, job := range t.jobs {
		t.s.jobs[id] = job
	}
	for id, bid := range t.bids {
		t.s.bids[id] = bid
	}
	for userID, account := range t.accounts {
		t.s.accounts[userID] = account
	}
	t.s.transactions = append(t.s.transactions, t.transactions...)
	for id, report := range t.reports {
		t.s.reports[id] = report
	}
	for id, user := range t.users {
		t.s.users[id] = user
	}
	t.s.adminActions = append(t.s.adminActions, t.adminActions...)
}

func (t *tx) LockJob(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	if !t.lockedJobs[id] && len(t.lockedAccounts) > 0 {
		return nil, apperror.ErrLockOrder
	}
	if err := t.lock(ctx, "job:"+id.String()); err != nil {
		return nil, err
	}
	t.lockedJobs[id] = true
	return t.findJob(id)
}

func (t *tx) findJob(id uuid.UUID) (*entity.Job, error) {
	if job, ok := t.jobs[id]; ok {
		return &job, nil
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	job, ok := t.s.jobs[id]
	if !ok {
		return nil, apperror.ErrJobNotFound
	}
	return &job, nil
}

func (t *tx) LockAccount(ctx context.Context, userID uuid.UUID) (*entity.Account, error) {
	if !t.lockedAccounts[userID] {
		if t.maxAccount != nil && bytes.Compare(userID[:], t.maxAccount[:]) < 0 {
			return nil, apperror.ErrLockOrder
		}
		if err := t.lock(ctx, "account:"+userID.String()); err != nil {
			return nil, err
		}
		t.lockedAccounts[userID] = true
		id := userID
		t.maxAccount = &id
	}

	if account, ok := t.accounts[userID]; ok {
		return &account, nil
	}
	t.s.mu.RLock()
	account, ok := t.s.accounts[userID]
	t.s.mu.RUnlock()
	if !ok {
		account = *entity.NewAccount(userID)
		t.accounts[userID] = account
	}
	return &account, nil
}

func (t *tx) LockAccounts(ctx context.Context, userIDs ...uuid.UUID) (map[uuid.UUID]*entity.Account, error) {
	result := make(map[uuid.UUID]*entity.Account, len(userIDs))
	for _, userID := range repository.LockOrder(userIDs) {
		account, err := t.LockAccount(ctx, userID)
		if err != nil {
			return nil, err
		}
		result[userID] = account
	}
	return result, nil
}

func (t *tx) LockReport(ctx context.Context, id uuid.UUID) (*entity.Report, error) {
	if err := t.lock(ctx, "report:"+id.String()); err != nil {
		return nil, err
	}
	if report, ok := t.reports[id]; ok {
		return &report, nil
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	report, ok := t.s.reports[id]
	if !ok {
		return nil, apperror.ErrReportNotFound
	}
	return &report, nil
}

func (t *tx) LockUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	if err := t.lock(ctx, "user:"+id.String()); err != nil {
		return nil, err
	}
	if user, ok := t.users[id]; ok {
		return &user, nil
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	user, ok := t.s.users[id]
	if !ok {
		return nil, apperror.ErrUserNotFound
	}
	return &user, nil
}

func (t *tx) LockUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	email = strings.ToLower(email)
	if err := t.lock(ctx, "user-email:"+email); err != nil {
		return nil, err
	}
	t.s.mu.RLock()
	user, ok := t.s.userByEmail(email)
	t.s.mu.RUnlock()
	if !ok {
		return nil, apperror.ErrUserNotFound
	}
	return t.LockUser(ctx, user.ID)
}

func (t *tx) CreateJob(ctx context.Context, job *entity.Job) error {
	t.jobs[job.ID] = *job
	t.lockedJobs[job.ID] = true
	return nil
}

func (t *tx) UpdateJob(ctx context.Context, job *entity.Job) error {
	if !t.lockedJobs[job.ID] {
		return apperror.ErrLockOrder
	}
	t.jobs[job.ID] = *job
	return nil
}

func (t *tx) FindBid(ctx context.Context, id uuid.UUID) (*entity.Bid, error) {
	if bid, ok := t.bids[id]; ok {
		return &bid, nil
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	bid, ok := t.s.bids[id]
	if !ok {
		return nil, apperror.ErrBidNotFound
	}
	return &bid, nil
}

func (t *tx) ListBidsByJob(ctx context.Context, jobID uuid.UUID) ([]*entity.Bid, error) {
	merged := make(map[uuid.UUID]entity.Bid)
	t.s.mu.RLock()
	for id, bid := range t.s.bids {
		if bid.JobID == jobID {
			merged[id] = bid
		}
	}
	t.s.mu.RUnlock()
	for id, bid := range t.bids {
		if bid.JobID == jobID {
			merged[id] = bid
		}
	}

	bids := make([]*entity.Bid, 0, len(merged))
	for _, bid := range merged {
		bid := bid
		bids = append(bids, &bid)
	}
	sortBids(bids)
	return bids, nil
}

// Отклики меняются только под блокировкой своего заказа.
func (t *tx) CreateBid(ctx context.Context, bid *entity.Bid) error {
	if !t.lockedJobs[bid.JobID] {
		return apperror.ErrLockOrder
	}
	t.bids[bid.ID] = *bid
	return nil
}

func (t *tx) UpdateBid(ctx context.Context, bid *entity.Bid) error {
	return t.CreateBid(ctx, bid)
}

func (t *tx) UpdateAccount(ctx context.Context, account *entity.Account) error {
	if !t.lockedAccounts[account.UserID] {
		return apperror.ErrLockOrder
	}
	t.accounts[account.UserID] = *account
	return nil
}

func (t *tx) AppendTransaction(ctx context.Context, ltx *entity.LedgerTransaction) error {
	t.transactions = append(t.transactions, *ltx)
	return nil
}

func (t *tx) EscrowForJob(ctx context.Context, accountID, jobID uuid.UUID) (decimal.Decimal, error) {
	txs, err := t.AccountTransactions(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return entity.EscrowHeldForJob(txs, jobID), nil
}

func (t *tx) AccountTransactions(ctx context.Context, accountID uuid.UUID) ([]entity.LedgerTransaction, error) {
	var txs []entity.LedgerTransaction
	t.s.mu.RLock()
	for _, ltx := range t.s.transactions {
		if ltx.AccountID == accountID {
			txs = append(txs, ltx)
		}
	}
	t.s.mu.RUnlock()
	for _, ltx := range t.transactions {
		if ltx.AccountID == accountID {
			txs = append(txs, ltx)
		}
	}
	return txs, nil
}

func (t *tx) CreateReport(ctx context.Context, report *entity.Report) error {
	t.reports[report.ID] = *report
	return nil
}

func (t *tx) UpdateReport(ctx context.Context, report *entity.Report) error {
	t.reports[report.ID] = *report
	return nil
}

func (t *tx) CreateUser(ctx context.Context, user *entity.User) error {
	t.s.mu.RLock()
	_, exists := t.s.userByEmail(user.Email)
	t.s.mu.RUnlock()
	if exists {
		return apperror.New(apperror.ErrCodeConflict, "пользователь с таким email уже существует")
	}
	t.users[user.ID] = *user
	return nil
}

func (t *tx) UpdateUser(ctx context.Context, user *entity.User) error {
	t.users[user.ID] = *user
	return nil
}

func (t *tx) RecordAdminAction(ctx context.Context, action *entity.AdminAction) error {
	t.adminActions = append(t.adminActions, *action)
	return nil
}
