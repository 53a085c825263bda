package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Типы уведомлений.
const (
	NotificationBidReceived     = "bid_received"
	NotificationBidAccepted     = "bid_accepted"
	NotificationBidRejected     = "bid_rejected"
	NotificationBidWithdrawn    = "bid_withdrawn"
	NotificationJobCompleted    = "job_completed"
	NotificationJobCancelled    = "job_cancelled"
	NotificationPaymentReceived = "payment_received"
	NotificationPaymentRefunded = "payment_refunded"
	NotificationReportResolved  = "report_resolved"
	NotificationAccountBanned   = "account_banned"
)

type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Title     string
	Message   string
	Type      string
	IsRead    bool
	CreatedAt time.Time
}

// AdminAction — запись журнала действий модераторов.
type AdminAction struct {
	ID         uuid.UUID
	AdminID    uuid.UUID
	Action     string
	TargetType string
	TargetID   uuid.UUID
	Details    json.RawMessage
	CreatedAt  time.Time
}

const (
	AdminActionResolveReport = "resolve_report"
	AdminActionBanUser       = "ban_user"
	AdminActionUnbanUser     = "unban_user"
	AdminActionLedgerAdjust  = "ledger_adjust"
)

func NewAdminAction(adminID uuid.UUID, action, targetType string, targetID uuid.UUID, details any) *AdminAction {
	raw, err := json.Marshal(details)
	if err != nil || details == nil {
		raw = json.RawMessage(`{}`)
	}
	return &AdminAction{
		ID:         uuid.New(),
		AdminID:    adminID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    raw,
		CreatedAt:  time.Now(),
	}
}
