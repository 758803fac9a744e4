package types

type PlanType string

const (
	PlanTypeMonthly PlanType = "monthly"
	PlanTypeYearly  PlanType = "yearly"
)

func (p PlanType) Valid() bool {
	return p == PlanTypeMonthly || p == PlanTypeYearly
}

// TotalCycles is the number of provider billing cycles for a plan: monthly
// plans bill twelve times, yearly plans once.
func (p PlanType) TotalCycles() int {
	if p == PlanTypeMonthly {
		return 12
	}
	return 1
}

type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusCreated   SubscriptionStatus = "created"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusFailed    SubscriptionStatus = "failed"
	SubscriptionStatusCompleted SubscriptionStatus = "completed"
)

type SubscriptionChangeReason string

const (
	SubscriptionChangeReasonCheckout    SubscriptionChangeReason = "checkout"
	SubscriptionChangeReasonVerified    SubscriptionChangeReason = "verified"
	SubscriptionChangeReasonWebhook     SubscriptionChangeReason = "webhook"
	SubscriptionChangeReasonCancelRenew SubscriptionChangeReason = "cancelRenew"
)

// BillingAction is the closed set of operations dispatched by the billing
// endpoint. Unknown values are rejected before any business logic runs.
type BillingAction string

const (
	ActionCreateOrder        BillingAction = "create-order"
	ActionCreateSubscription BillingAction = "create-subscription"
	ActionVerifyPayment      BillingAction = "verify-payment"
	ActionVerifySubscription BillingAction = "verify-subscription"
	ActionCancelSubscription BillingAction = "cancel-subscription"
	ActionWebhook            BillingAction = "webhook"
)

// WebhookEvent names the provider events the reconciler understands.
type WebhookEvent string

const (
	WebhookEventPaymentCaptured       WebhookEvent = "payment.captured"
	WebhookEventPaymentFailed         WebhookEvent = "payment.failed"
	WebhookEventSubscriptionActivated WebhookEvent = "subscription.activated"
	WebhookEventSubscriptionCharged   WebhookEvent = "subscription.charged"
	WebhookEventSubscriptionCompleted WebhookEvent = "subscription.completed"
	WebhookEventSubscriptionCancelled WebhookEvent = "subscription.cancelled"
)
