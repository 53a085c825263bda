package entity

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/labour-market/internal/domain/valueobject"
	"github.com/ignatzorin/labour-market/internal/pkg/apperror"
)

const (
	MinJobTitleLength       = 3
	MaxJobTitleLength       = 200
	MinJobDescriptionLength = 10
	MaxJobDescriptionLength = 5000
	MaxCategoryLength       = 100
)

// Urgency заказа, как в форме публикации.
const (
	UrgencyNormal = "normal"
	UrgencyUrgent = "urgent"
)

type Job struct {
	ID               uuid.UUID
	OwnerID          uuid.UUID
	Title            string
	Description      string
	Category         string
	Budget           valueobject.Budget
	Timeline         *string
	Urgency          string
	City             *string
	Status           valueobject.JobStatus
	AssignedVendorID *uuid.UUID
	BidCount         int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type NewJobParams struct {
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

func NewJob(p NewJobParams) (*Job, error) {
	title := strings.TrimSpace(p.Title)
	if n := utf8.RuneCountInString(title); n < MinJobTitleLength || n > MaxJobTitleLength {
		return nil, apperror.Newf(apperror.ErrCodeValidation, "название заказа должно быть от %d до %d символов", MinJobTitleLength, MaxJobTitleLength)
	}
	description := strings.TrimSpace(p.Description)
	if n := utf8.RuneCountInString(description); n < MinJobDescriptionLength || n > MaxJobDescriptionLength {
		return nil, apperror.Newf(apperror.ErrCodeValidation, "описание заказа должно быть от %d до %d символов", MinJobDescriptionLength, MaxJobDescriptionLength)
	}
	category := strings.TrimSpace(p.Category)
	if category == "" || utf8.RuneCountInString(category) > MaxCategoryLength {
		return nil, apperror.New(apperror.ErrCodeValidation, "категория заказа обязательна")
	}

	budget, err := valueobject.NewBudget(p.BudgetMin, p.BudgetMax)
	if err != nil {
		return nil, err
	}

	urgency := p.Urgency
	switch urgency {
	case "":
		urgency = UrgencyNormal
	case UrgencyNormal, UrgencyUrgent:
	default:
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректная срочность заказа")
	}

	now := time.Now()
	return &Job{
		ID:          uuid.New(),
		OwnerID:     p.OwnerID,
		Title:       title,
		Description: description,
		Category:    category,
		Budget:      budget,
		Timeline:    p.Timeline,
		Urgency:     urgency,
		City:        p.City,
		Status:      valueobject.JobStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (j *Job) IsOwnedBy(userID uuid.UUID) bool {
	return j.OwnerID == userID
}

func (j *Job) IsOpen() bool {
	return j.Status == valueobject.JobStatusOpen
}

// RegisterBid учитывает новый отклик.
func (j *Job) RegisterBid() error {
	if !j.IsOpen() {
		return apperror.ErrJobNotOpen
	}
	j.BidCount++
	j.UpdatedAt = time.Now()
	return nil
}

// Assign переводит заказ в работу с выбранным исполнителем.
func (j *Job) Assign(vendorID uuid.UUID) error {
	if !j.IsOpen() {
		return apperror.ErrJobNotOpen
	}
	j.Status = valueobject.JobStatusInProgress
	j.AssignedVendorID = &vendorID
	j.UpdatedAt = time.Now()
	return nil
}

func (j *Job) Complete() error {
	if !j.Status.CanTransitionTo(valueobject.JobStatusCompleted) {
		return apperror.InvalidJobState(string(j.Status), string(valueobject.JobStatusCompleted))
	}
	j.Status = valueobject.JobStatusCompleted
	j.UpdatedAt = time.Now()
	return nil
}

// Cancel отменяет заказ и возвращает статус, из которого он был отменён.
func (j *Job) Cancel() (valueobject.JobStatus, error) {
	previous := j.Status
	if !j.Status.CanTransitionTo(valueobject.JobStatusCancelled) {
		return previous, apperror.InvalidJobState(string(j.Status), string(valueobject.JobStatusCancelled))
	}
	j.Status = valueobject.JobStatusCancelled
	j.UpdatedAt = time.Now()
	return previous, nil
}
