package report

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/labour-market/internal/domain/entity"
	"github.com/ignatzorin/labour-market/internal/domain/repository"
	"github.com/ignatzorin/labour-market/internal/domain/valueobject"
	"github.com/ignatzorin/labour-market/internal/logger"
	"github.com/ignatzorin/labour-market/internal/pkg/authz"
	"github.com/ignatzorin/labour-market/internal/usecase/notification"
)

type CreateCommand struct {
	ReporterID  uuid.UUID
	TargetType  string
	TargetID    uuid.UUID
	Reason      string
	Description *string
}

type CreateReportUseCase struct {
	store repository.Store
}

func NewCreateReportUseCase(store repository.Store) *CreateReportUseCase {
	return &CreateReportUseCase{store: store}
}

func (uc *CreateReportUseCase) Execute(ctx context.Context, cmd CreateCommand) (*entity.Report, error) {
	report, err := entity.NewReport(cmd.ReporterID, cmd.TargetType, cmd.TargetID, cmd.Reason, cmd.Description)
	if err != nil {
		return nil, err
	}
	if err := uc.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.CreateReport(ctx, report)
	}); err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"report_id":   report.ID,
		"target_type": report.TargetType,
		"target_id":   report.TargetID,
	}).Info("report: жалоба создана")
	return report, nil
}

type ResolveCommand struct {
	Actor    authz.Actor
	ReportID uuid.UUID
	Outcome  string
	Note     string
}

type ResolveReportUseCase struct {
	store    repository.Store
	notifier notification.Notifier
}

func NewResolveReportUseCase(store repository.Store, notifier notification.Notifier) *ResolveReportUseCase {
	return &ResolveReportUseCase{store: store, notifier: notifier}
}

// Execute переводит жалобу из pending/reviewed в итоговый статус.
func (uc *ResolveReportUseCase) Execute(ctx context.Context, cmd ResolveCommand) (*entity.Report, error) {
	entry := logger.Log.WithFields(logrus.Fields{"report_id": cmd.ReportID, "actor_id": cmd.Actor.UserID})
	if err := authz.RequireModerator(cmd.Actor); err != nil {
		logger.Failure(entry, err, "report: модерация недоступна")
		return nil, err
	}
	outcome, err := valueobject.NewReportStatus(cmd.Outcome)
	if err != nil {
		return nil, err
	}

	var (
		outbox notification.Outbox
		report *entity.Report
	)
	err = uc.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		report, err = tx.LockReport(ctx, cmd.ReportID)
		if err != nil {
			return err
		}
		if err := report.Resolve(outcome, cmd.Note, cmd.Actor.UserID); err != nil {
			return err
		}
		if err := tx.UpdateReport(ctx, report); err != nil {
			return err
		}

		action := entity.NewAdminAction(cmd.Actor.UserID, entity.AdminActionResolveReport, "report", report.ID, map[string]any{
			"outcome": string(outcome),
			"note":    report.Resolution,
		})
		if err := tx.RecordAdminAction(ctx, action); err != nil {
			return err
		}

		if outcome.IsTerminal() {
			outbox.Add(report.ReporterID, "Жалоба рассмотрена",
				fmt.Sprintf("Ваша жалоба рассмотрена, итог: %s", outcome),
				entity.NotificationReportResolved)
		}
		return nil
	})
	if err != nil {
		logger.Failure(entry, err, "report: не удалось закрыть жалобу")
		return nil, err
	}
	entry.WithField("outcome", outcome).Info("report: жалоба рассмотрена")

	outbox.Flush(ctx, uc.notifier)
	return report, nil
}

type ListQuery struct {
	Status string
	Limit  int
	Offset int
}

type ListReportsUseCase struct {
	reports repository.ReportRepository
}

func NewListReportsUseCase(reports repository.ReportRepository) *ListReportsUseCase {
	return &ListReportsUseCase{reports: reports}
}

// Execute — очередь модерации. Без фильтра возвращает ожидающие жалобы.
func (uc *ListReportsUseCase) Execute(ctx context.Context, actor authz.Actor, q ListQuery) ([]*entity.Report, int, error) {
	if err := authz.RequireModerator(actor); err != nil {
		return nil, 0, err
	}
	status := valueobject.ReportStatusPending
	if q.Status != "" {
		parsed, err := valueobject.NewReportStatus(q.Status)
		if err != nil {
			return nil, 0, err
		}
		status = parsed
	}
	return uc.reports.List(ctx, repository.ReportFilter{
		Status: &status,
		Limit:  pageLimit(q.Limit),
		Offset: max(q.Offset, 0),
	})
}

type ListMineUseCase struct {
	reports repository.ReportRepository
}

func NewListMineUseCase(reports repository.ReportRepository) *ListMineUseCase {
	return &ListMineUseCase{reports: reports}
}

func (uc *ListMineUseCase) Execute(ctx context.Context, reporterID uuid.UUID, limit, offset int) ([]*entity.Report, int, error) {
	return uc.reports.List(ctx, repository.ReportFilter{
		ReporterID: &reporterID,
		Limit:      pageLimit(limit),
		Offset:     max(offset, 0),
	})
}

func pageLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}
