package models

import (
	"time"

	"gorm.io/datatypes"
)

type WebhookEventLogStatus string

const (
	WebhookEventLogStatusReceived     WebhookEventLogStatus = "received"
	WebhookEventLogStatusHandled      WebhookEventLogStatus = "handled"
	WebhookEventLogStatusHandleFailed WebhookEventLogStatus = "handle_failed"
)

// WebhookEventLog keeps every gateway webhook delivery alongside its handling
// result. Deliveries are at-least-once, so the same provider event may appear
// more than once.
type WebhookEventLog struct {
	ID      string  `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Event   string  `gorm:"column:event;type:varchar(64);not null" json:"event"`
	UserID  *string `gorm:"column:user_id;type:varchar(64)" json:"user_id"`
	TraceID string  `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	// EntityID is the provider order/subscription id the event refers to.
	EntityID  string                `gorm:"column:entity_id;type:varchar(128)" json:"entity_id"`
	PaymentID string                `gorm:"column:payment_id;type:varchar(128)" json:"payment_id"`
	Payload   datatypes.JSON        `gorm:"column:payload;type:jsonb" json:"payload"`
	Result    *datatypes.JSON       `gorm:"column:result;type:jsonb" json:"result"`
	Status    WebhookEventLogStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

func (WebhookEventLog) TableName() string { return "webhook_event_log" }
