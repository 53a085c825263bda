package entity

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ignatzorin/labour-market/internal/domain/valueobject"
	"github.com/ignatzorin/labour-market/internal/pkg/apperror"
)

const (
	ReportTargetUser    = "user"
	ReportTargetJob     = "job"
	ReportTargetBid     = "bid"
	ReportTargetListing = "listing"
	ReportTargetReview  = "review"

	MaxReportReasonLength      = 200
	MaxReportDescriptionLength = 2000
	MaxResolutionNoteLength    = 2000
)

var validReportTargets = map[string]struct{}{
	ReportTargetUser:    {},
	ReportTargetJob:     {},
	ReportTargetBid:     {},
	ReportTargetListing: {},
	ReportTargetReview:  {},
}

type Report struct {
	ID          uuid.UUID
	ReporterID  uuid.UUID
	TargetType  string
	TargetID    uuid.UUID
	Reason      string
	Description *string
	Status      valueobject.ReportStatus
	Resolution  *string
	ResolvedBy  *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewReport(reporterID uuid.UUID, targetType string, targetID uuid.UUID, reason string, description *string) (*Report, error) {
	if _, ok := validReportTargets[targetType]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный тип объекта жалобы")
	}
	if targetID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "объект жалобы обязателен")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" || utf8.RuneCountInString(reason) > MaxReportReasonLength {
		return nil, apperror.New(apperror.ErrCodeValidation, "причина жалобы обязательна")
	}
	if description != nil && utf8.RuneCountInString(*description) > MaxReportDescriptionLength {
		return nil, apperror.New(apperror.ErrCodeValidation, "описание жалобы слишком длинное")
	}

	now := time.Now()
	return &Report{
		ID:          uuid.New(),
		ReporterID:  reporterID,
		TargetType:  targetType,
		TargetID:    targetID,
		Reason:      reason,
		Description: description,
		Status:      valueobject.ReportStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Resolve фиксирует итог модерации. Права модератора проверяются до вызова.
func (r *Report) Resolve(outcome valueobject.ReportStatus, note string, moderatorID uuid.UUID) error {
	if r.Status.IsTerminal() {
		return apperror.ErrAlreadyResolved
	}
	if !outcome.IsOutcome() {
		return apperror.New(apperror.ErrCodeValidation, "некорректный итог рассмотрения жалобы")
	}
	note = strings.TrimSpace(note)
	if utf8.RuneCountInString(note) > MaxResolutionNoteLength {
		return apperror.New(apperror.ErrCodeValidation, "комментарий модератора слишком длинный")
	}

	r.Status = outcome
	if note != "" {
		r.Resolution = &note
	}
	r.ResolvedBy = &moderatorID
	r.UpdatedAt = time.Now()
	return nil
}
