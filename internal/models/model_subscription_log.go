package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/tradelab/billing/pkg/types"
)

// SubscriptionLog records every mutation of a subscription row.
// Use case: troubleshooting out-of-order or replayed gateway events.
type SubscriptionLog struct {
	ID     string `gorm:"column:id;type:uuid;primary_key"`
	UserID string `gorm:"column:user_id;type:varchar(64);index:idx_sublog_user_id_id,priority:1;not null"`
	// Reason is the change reason.
	Reason types.SubscriptionChangeReason `gorm:"column:reason;type:varchar(32);not null"`
	// Before stores the row before the change in JSON format; null on insert.
	Before datatypes.JSONType[*Subscription] `gorm:"column:before;type:jsonb;default:'null'"`
	// After stores the row after the change in JSON format.
	After datatypes.JSONType[*Subscription] `gorm:"column:after;type:jsonb;default:'null'"`
	// Extra stores additional context such as the triggering event name.
	Extra     datatypes.JSONMap `gorm:"column:extra;type:jsonb;default:'{}'"`
	CreatedAt time.Time
}

func (SubscriptionLog) TableName() string {
	return "subscription_log"
}
