package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/labour-market/internal/domain/entity"
	"github.com/ignatzorin/labour-market/internal/domain/repository"
	"github.com/ignatzorin/labour-market/internal/pkg/apperror"
	"github.com/ignatzorin/labour-market/internal/repository/common"
)

// Store реализует repository.Store поверх PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ repository.Store = (*Store)(nil)

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return common.WithTransaction(ctx, s.db, func(sqlTx *sqlx.Tx) error {
		return fn(ctx, newTx(sqlTx))
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Jobs() repository.JobRepository                   { return &jobRepository{db: s.db} }
func (s *Store) Bids() repository.BidRepository                   { return &bidRepository{db: s.db} }
func (s *Store) Ledger() repository.LedgerRepository             { return &ledgerRepository{db: s.db} }
func (s *Store) Reports() repository.ReportRepository             { return &reportRepository{db: s.db} }
func (s *Store) Users() repository.UserRepository                 { return &userRepository{db: s.db} }
func (s *Store) Notifications() repository.NotificationRepository { return &notificationRepository{db: s.db} }

type jobRepository struct {
	db *sqlx.DB
}

func (r *jobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	var row jobRow
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	if err := common.GetOne(ctx, r.db, &row, apperror.ErrJobNotFound, query, id); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *jobRepository) List(ctx context.Context, filter repository.JobFilter) ([]*entity.Job, int, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("LOWER(category) = LOWER($%d)", len(args)))
	}
	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM jobs`+where, args...); err != nil {
		return nil, 0, common.DatabaseError(err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM jobs%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		jobColumns, where, len(args)-1, len(args))

	var rows []jobRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, common.DatabaseError(err)
	}
	jobs := make([]*entity.Job, len(rows))
	for i := range rows {
		jobs[i] = rows[i].toEntity()
	}
	return jobs, total, nil
}

type bidRepository struct {
	db *sqlx.DB
}

func (r *bidRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Bid, error) {
	var row bidRow
	query := `SELECT ` + bidColumns + ` FROM bids WHERE id = $1`
	if err := common.GetOne(ctx, r.db, &row, apperror.ErrBidNotFound, query, id); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *bidRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]*entity.Bid, error) {
	return selectBids(ctx, r.db, `SELECT `+bidColumns+` FROM bids WHERE job_id = $1 ORDER BY created_at`, jobID)
}

func (r *bidRepository) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]*entity.Bid, error) {
	return selectBids(ctx, r.db, `SELECT `+bidColumns+` FROM bids WHERE vendor_id = $1 ORDER BY created_at DESC`, vendorID)
}

func selectBids(ctx context.Context, q sqlx.QueryerContext, query string, args ...any) ([]*entity.Bid, error) {
	var rows []bidRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, common.DatabaseError(err)
	}
	return toBidEntities(rows), nil
}

type ledgerRepository struct {
	db *sqlx.DB
}

func (r *ledgerRepository) FindAccountByUser(ctx context.Context, userID uuid.UUID) (*entity.Account, error) {
	var row accountRow
	query := `SELECT ` + accountColumns + ` FROM ledger_accounts WHERE user_id = $1`
	if err := common.GetOne(ctx, r.db, &row, apperror.ErrAccountNotFound, query, userID); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *ledgerRepository) ListTransactions(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]entity.LedgerTransaction, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM ledger_transactions WHERE account_id = $1`, accountID); err != nil {
		return nil, 0, common.DatabaseError(err)
	}

	var rows []transactionRow
	query := `SELECT ` + transactionColumns + ` FROM ledger_transactions
		WHERE account_id = $1 ORDER BY seq DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, accountID, limit, offset); err != nil {
		return nil, 0, common.DatabaseError(err)
	}
	return toTransactionEntities(rows), total, nil
}

type reportRepository struct {
	db *sqlx.DB
}

func (r *reportRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Report, error) {
	var row reportRow
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`
	if err := common.GetOne(ctx, r.db, &row, apperror.ErrReportNotFound, query, id); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *reportRepository) List(ctx context.Context, filter repository.ReportFilter) ([]*entity.Report, int, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.ReporterID != nil {
		args = append(args, *filter.ReporterID)
		conditions = append(conditions, fmt.Sprintf("reporter_id = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM reports`+where, args...); err != nil {
		return nil, 0, common.DatabaseError(err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM reports%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		reportColumns, where, len(args)-1, len(args))

	var rows []reportRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, common.DatabaseError(err)
	}
	reports := make([]*entity.Report, len(rows))
	for i := range rows {
		reports[i] = rows[i].toEntity()
	}
	return reports, total, nil
}

type userRepository struct {
	db *sqlx.DB
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var row userRow
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := common.GetOne(ctx, r.db, &row, apperror.ErrUserNotFound, query, id); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var row userRow
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	if err := common.GetOne(ctx, r.db, &row, apperror.ErrUserNotFound, query, email); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

type notificationRepository struct {
	db *sqlx.DB
}

func (r *notificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	query := `INSERT INTO notifications (` + notificationColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.db.ExecContext(ctx, query, n.ID, n.UserID, n.Title, n.Message, n.Type, n.IsRead, n.CreatedAt); err != nil {
		return writeError(err)
	}
	return nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Notification, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID); err != nil {
		return nil, 0, common.DatabaseError(err)
	}

	var rows []notificationRow
	query := `SELECT ` + notificationColumns + ` FROM notifications
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, 0, common.DatabaseError(err)
	}
	result := make([]*entity.Notification, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result, total, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, common.DatabaseError(err)
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return common.DatabaseError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.ErrNotificationNotFound
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID); err != nil {
		return common.DatabaseError(err)
	}
	return nil
}
