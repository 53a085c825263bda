package persistence

import (
	"bytes"
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/labour-market/internal/domain/entity"
	"github.com/ignatzorin/labour-market/internal/domain/repository"
	"github.com/ignatzorin/labour-market/internal/pkg/apperror"
	"github.com/ignatzorin/labour-market/internal/repository/common"
)

// tx — единица работы на sqlx.Tx. Блокировки строк держатся до коммита.
type tx struct {
	tx *sqlx.Tx

	lockedJobs     map[uuid.UUID]bool
	lockedAccounts map[uuid.UUID]bool
	maxAccount     uuid.UUID
}

var _ repository.Tx = (*tx)(nil)

func newTx(sqlTx *sqlx.Tx) *tx {
	return &tx{
		tx:             sqlTx,
		lockedJobs:     make(map[uuid.UUID]bool),
		lockedAccounts: make(map[uuid.UUID]bool),
	}
}

func (t *tx) LockJob(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	if !t.lockedJobs[id] && len(t.lockedAccounts) > 0 {
		return nil, apperror.ErrLockOrder
	}
	var row jobRow
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1 FOR UPDATE`
	if err := common.GetOne(ctx, t.tx, &row, apperror.ErrJobNotFound, query, id); err != nil {
		return nil, err
	}
	t.lockedJobs[id] = true
	return row.toEntity(), nil
}

func (t *tx) LockAccount(ctx context.Context, userID uuid.UUID) (*entity.Account, error) {
	if !t.lockedAccounts[userID] && len(t.lockedAccounts) > 0 && bytes.Compare(userID[:], t.maxAccount[:]) < 0 {
		return nil, apperror.ErrLockOrder
	}

	// Кошелёк создаётся при первом обращении; конфликт значит, что он уже есть.
	if _, err := t.tx.ExecContext(ctx, `
		INSERT INTO ledger_accounts (id, user_id, available, escrow)
		VALUES ($1, $2, 0, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, uuid.New(), userID); err != nil {
		return nil, writeError(err)
	}

	var row accountRow
	query := `SELECT ` + accountColumns + ` FROM ledger_accounts WHERE user_id = $1 FOR UPDATE`
	if err := common.GetOne(ctx, t.tx, &row, apperror.ErrAccountNotFound, query, userID); err != nil {
		return nil, err
	}

	t.lockedAccounts[userID] = true
	if bytes.Compare(userID[:], t.maxAccount[:]) > 0 {
		t.maxAccount = userID
	}
	return row.toEntity(), nil
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
	var row reportRow
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1 FOR UPDATE`
	if err := common.GetOne(ctx, t.tx, &row, apperror.ErrReportNotFound, query, id); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (t *tx) LockUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var row userRow
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	if err := common.GetOne(ctx, t.tx, &row, apperror.ErrUserNotFound, query, id); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

// LockUserByEmail: при отсутствии строки дубликат отсечёт уникальный индекс на email.
func (t *tx) LockUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	var row userRow
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1) FOR UPDATE`
	if err := common.GetOne(ctx, t.tx, &row, apperror.ErrUserNotFound, query, email); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (t *tx) CreateJob(ctx context.Context, job *entity.Job) error {
	query := `
		INSERT INTO jobs (` + jobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := t.tx.ExecContext(ctx, query,
		job.ID, job.OwnerID, job.Title, job.Description, job.Category,
		job.Budget.Min, job.Budget.Max, job.Timeline, job.Urgency, job.City,
		string(job.Status), job.AssignedVendorID, job.BidCount, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return writeError(err)
	}
	return nil
}

func (t *tx) UpdateJob(ctx context.Context, job *entity.Job) error {
	query := `
		UPDATE jobs SET status = $2, assigned_vendor_id = $3, bid_count = $4, updated_at = $5
		WHERE id = $1
	`
	if _, err := t.tx.ExecContext(ctx, query, job.ID, string(job.Status), job.AssignedVendorID, job.BidCount, job.UpdatedAt); err != nil {
		return common.DatabaseError(err)
	}
	return nil
}

func (t *tx) FindBid(ctx context.Context, id uuid.UUID) (*entity.Bid, error) {
	var row bidRow
	query := `SELECT ` + bidColumns + ` FROM bids WHERE id = $1`
	if err := common.GetOne(ctx, t.tx, &row, apperror.ErrBidNotFound, query, id); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (t *tx) ListBidsByJob(ctx context.Context, jobID uuid.UUID) ([]*entity.Bid, error) {
	return selectBids(ctx, t.tx, `SELECT `+bidColumns+` FROM bids WHERE job_id = $1 ORDER BY created_at`, jobID)
}

func (t *tx) CreateBid(ctx context.Context, bid *entity.Bid) error {
	query := `INSERT INTO bids (` + bidColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := t.tx.ExecContext(ctx, query,
		bid.ID, bid.JobID, bid.VendorID, bid.Amount, bid.Message, bid.DeliveryTime,
		string(bid.Status), bid.CreatedAt, bid.UpdatedAt,
	)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return apperror.ErrDuplicateBid
		}
		return writeError(err)
	}
	return nil
}

func (t *tx) UpdateBid(ctx context.Context, bid *entity.Bid) error {
	query := `UPDATE bids SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := t.tx.ExecContext(ctx, query, bid.ID, string(bid.Status), bid.UpdatedAt); err != nil {
		return common.DatabaseError(err)
	}
	return nil
}

func (t *tx) UpdateAccount(ctx context.Context, account *entity.Account) error {
	query := `UPDATE ledger_accounts SET available = $2, escrow = $3, updated_at = $4 WHERE id = $1`
	if _, err := t.tx.ExecContext(ctx, query, account.ID, account.Available, account.Escrow, account.UpdatedAt); err != nil {
		if common.IsCheckViolation(err) {
			return apperror.ErrInsufficientFunds
		}
		return writeError(err)
	}
	return nil
}

func (t *tx) AppendTransaction(ctx context.Context, ltx *entity.LedgerTransaction) error {
	query := `INSERT INTO ledger_transactions (` + transactionColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := t.tx.ExecContext(ctx, query,
		ltx.ID, ltx.AccountID, string(ltx.Type), ltx.Amount, ltx.Description,
		ltx.RelatedJobID, ltx.CounterpartyID, ltx.CreatedAt,
	)
	if err != nil {
		return writeError(err)
	}
	return nil
}

func (t *tx) EscrowForJob(ctx context.Context, accountID, jobID uuid.UUID) (decimal.Decimal, error) {
	var held decimal.Decimal
	query := `
		SELECT COALESCE(SUM(CASE type
			WHEN 'escrow_hold' THEN amount
			WHEN 'escrow_release' THEN -amount
			WHEN 'refund' THEN -amount
			ELSE 0 END), 0)
		FROM ledger_transactions
		WHERE account_id = $1 AND related_job_id = $2
	`
	if err := t.tx.GetContext(ctx, &held, query, accountID, jobID); err != nil {
		return decimal.Zero, common.DatabaseError(err)
	}
	return held, nil
}

func (t *tx) AccountTransactions(ctx context.Context, accountID uuid.UUID) ([]entity.LedgerTransaction, error) {
	var rows []transactionRow
	query := `SELECT ` + transactionColumns + ` FROM ledger_transactions WHERE account_id = $1 ORDER BY seq`
	if err := t.tx.SelectContext(ctx, &rows, query, accountID); err != nil {
		return nil, common.DatabaseError(err)
	}
	return toTransactionEntities(rows), nil
}

func (t *tx) CreateReport(ctx context.Context, report *entity.Report) error {
	query := `INSERT INTO reports (` + reportColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := t.tx.ExecContext(ctx, query,
		report.ID, report.ReporterID, report.TargetType, report.TargetID, report.Reason,
		report.Description, string(report.Status), report.Resolution, report.ResolvedBy,
		report.CreatedAt, report.UpdatedAt,
	)
	if err != nil {
		return writeError(err)
	}
	return nil
}

func (t *tx) UpdateReport(ctx context.Context, report *entity.Report) error {
	query := `UPDATE reports SET status = $2, resolution = $3, resolved_by = $4, updated_at = $5 WHERE id = $1`
	if _, err := t.tx.ExecContext(ctx, query, report.ID, string(report.Status), report.Resolution, report.ResolvedBy, report.UpdatedAt); err != nil {
		return common.DatabaseError(err)
	}
	return nil
}

func (t *tx) CreateUser(ctx context.Context, user *entity.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := t.tx.ExecContext(ctx, query,
		user.ID, user.ExternalUID, user.Email, user.Name, user.Phone, user.Avatar, string(user.Role),
		user.IsOnline, user.IsBanned, user.BanReason, user.City, user.LastActive, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return apperror.New(apperror.ErrCodeConflict, "пользователь с таким email уже существует")
		}
		return common.DatabaseError(err)
	}
	return nil
}

func (t *tx) UpdateUser(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users SET external_uid = $2, name = $3, avatar = $4, role = $5, is_online = $6,
		is_banned = $7, ban_reason = $8, last_active = $9, updated_at = $10
		WHERE id = $1
	`
	_, err := t.tx.ExecContext(ctx, query,
		user.ID, user.ExternalUID, user.Name, user.Avatar, string(user.Role), user.IsOnline,
		user.IsBanned, user.BanReason, user.LastActive, user.UpdatedAt,
	)
	if err != nil {
		return common.DatabaseError(err)
	}
	return nil
}

func (t *tx) RecordAdminAction(ctx context.Context, action *entity.AdminAction) error {
	query := `
		INSERT INTO admin_actions (id, admin_id, action, target_type, target_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := t.tx.ExecContext(ctx, query,
		action.ID, action.AdminID, action.Action, action.TargetType, action.TargetID,
		detailsJSON(action.Details), action.CreatedAt,
	)
	if err != nil {
		return writeError(err)
	}
	return nil
}

var errBalanceOverflow = apperror.New(apperror.ErrCodeValidation, "баланс превышает допустимый предел")

// writeError переводит нарушения ссылок и переполнение сумм в ошибки домена.
// Все внешние ключи, которые может нарушить запись, указывают на users.
func writeError(err error) error {
	switch {
	case common.IsForeignKeyViolation(err):
		return apperror.ErrUserNotFound
	case common.IsNumericOverflow(err):
		return errBalanceOverflow
	default:
		return common.DatabaseError(err)
	}
}
