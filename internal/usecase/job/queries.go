package job

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/labour-market/internal/domain/entity"
	"github.com/ignatzorin/labour-market/internal/domain/repository"
	"github.com/ignatzorin/labour-market/internal/domain/valueobject"
	"github.com/ignatzorin/labour-market/internal/logger"
)

// CreateJobCommand — данные формы публикации заказа.
type CreateJobCommand struct {
	OwnerID     uuid.UUID
	Title       string
	Description string
	Category    string
	BudgetMin   *decimal.Decimal
	BudgetMax   *decimal.Decimal
	Timeline    *string
	Urgency     string
	City        *string
}

type CreateJobUseCase struct {
	store repository.Store
}

func NewCreateJobUseCase(store repository.Store) *CreateJobUseCase {
	return &CreateJobUseCase{store: store}
}

func (uc *CreateJobUseCase) Execute(ctx context.Context, cmd CreateJobCommand) (*entity.Job, error) {
	job, err := entity.NewJob(entity.NewJobParams{
		OwnerID:     cmd.OwnerID,
		Title:       cmd.Title,
		Description: cmd.Description,
		Category:    cmd.Category,
		BudgetMin:   cmd.BudgetMin,
		BudgetMax:   cmd.BudgetMax,
		Timeline:    cmd.Timeline,
		Urgency:     cmd.Urgency,
		City:        cmd.City,
	})
	if err != nil {
		return nil, err
	}

	if err := uc.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.CreateJob(ctx, job)
	}); err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{"job_id": job.ID, "owner_id": job.OwnerID}).Info("job: заказ опубликован")
	return job, nil
}

type GetJobUseCase struct {
	jobs repository.JobRepository
}

func NewGetJobUseCase(jobs repository.JobRepository) *GetJobUseCase {
	return &GetJobUseCase{jobs: jobs}
}

func (uc *GetJobUseCase) Execute(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	return uc.jobs.FindByID(ctx, id)
}

type ListJobsQuery struct {
	Status   string
	Category string
	OwnerID  *uuid.UUID
	Limit    int
	Offset   int
}

type ListJobsUseCase struct {
	jobs repository.JobRepository
}

func NewListJobsUseCase(jobs repository.JobRepository) *ListJobsUseCase {
	return &ListJobsUseCase{jobs: jobs}
}

// Execute без явного статуса показывает только открытые заказы, кроме выборки по владельцу.
func (uc *ListJobsUseCase) Execute(ctx context.Context, q ListJobsQuery) ([]*entity.Job, int, error) {
	filter := repository.JobFilter{
		Category: strings.TrimSpace(q.Category),
		OwnerID:  q.OwnerID,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	switch {
	case q.Status != "":
		status, err := valueobject.NewJobStatus(q.Status)
		if err != nil {
			return nil, 0, err
		}
		filter.Status = &status
	case q.OwnerID == nil:
		open := valueobject.JobStatusOpen
		filter.Status = &open
	}

	return uc.jobs.List(ctx, filter)
}
