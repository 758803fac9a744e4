package models

import (
	"time"

	"github.com/tradelab/billing/pkg/types"
)

// Subscription is one user-initiated billing relationship. Exactly one of
// RazorpayOrderID (one-time order flow) or RazorpaySubscriptionID (recurring
// flow) identifies it at the gateway; lookups filter by whichever matches the
// action being processed.
type Subscription struct {
	ID     string                   `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID string                   `gorm:"column:user_id;type:varchar(64);not null;index" json:"user_id"`
	Status types.SubscriptionStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`

	PlanType types.PlanType `gorm:"column:plan_type;type:varchar(16);not null" json:"plan_type"`
	// Amount is in major currency units (rupees, not paise).
	Amount   float64 `gorm:"column:amount;not null" json:"amount"`
	Currency string  `gorm:"column:currency;type:varchar(8);not null" json:"currency"`

	RazorpayOrderID        *string `gorm:"column:razorpay_order_id;type:varchar(64);uniqueIndex" json:"razorpay_order_id"`
	RazorpaySubscriptionID *string `gorm:"column:razorpay_subscription_id;type:varchar(64);uniqueIndex" json:"razorpay_subscription_id"`
	// RazorpayPaymentID holds the last payment applied to this row. For the
	// recurring flow it doubles as the charge-dedup marker: a
	// subscription.charged webhook carrying the same payment id is a replay.
	RazorpayPaymentID *string `gorm:"column:razorpay_payment_id;type:varchar(64)" json:"razorpay_payment_id"`
	RazorpaySignature *string `gorm:"column:razorpay_signature;type:varchar(128)" json:"razorpay_signature"`

	StartDate       *time.Time `gorm:"column:start_date;default:null" json:"start_date"`
	EndDate         *time.Time `gorm:"column:end_date;default:null" json:"end_date"`
	NextBillingDate *time.Time `gorm:"column:next_billing_date;default:null" json:"next_billing_date"`

	// BillingCycle counts successful charges on monthly plans, starting at 1.
	// It never exceeds TotalCycles; the provider stops charging beyond that.
	BillingCycle int  `gorm:"column:billing_cycle;not null;default:1" json:"billing_cycle"`
	TotalCycles  int  `gorm:"column:total_cycles;not null" json:"total_cycles"`
	AutoRenew    bool `gorm:"column:auto_renew;not null;default:true" json:"auto_renew"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// Valid reports whether the subscription currently grants access.
func (s *Subscription) Valid() bool {
	return s != nil &&
		s.Status == types.SubscriptionStatusActive &&
		s.EndDate != nil &&
		s.EndDate.After(time.Now())
}

// OrderBased reports whether the row belongs to the one-time order flow.
func (s *Subscription) OrderBased() bool {
	return s != nil && s.RazorpayOrderID != nil && *s.RazorpayOrderID != ""
}
