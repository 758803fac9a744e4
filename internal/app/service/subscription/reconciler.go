package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/tradelab/billing/internal/models"
	"github.com/tradelab/billing/pkg/logctx"
	"github.com/tradelab/billing/pkg/types"
)

// orderValidityDays is the access window granted by a verified one-time
// order payment.
const (
	orderValidityDaysMonthly = 30
	orderValidityDaysYearly  = 365
)

// Reconciler applies verified events to subscription rows. Every transition
// is written as an idempotent update: re-applying an already-applied event
// leaves the row unchanged, since webhook delivery is at-least-once.
type Reconciler struct {
	store Store
	log   *zap.SugaredLogger
	now   func() time.Time
}

func NewReconciler(store Store, log *zap.SugaredLogger) *Reconciler {
	return &Reconciler{store: store, log: log, now: time.Now}
}

// ActivateOrder marks an order-based row paid: used by the verify-payment
// action and, defensively, by the payment.captured webhook when the client
// confirmation never reached us.
func (r *Reconciler) ActivateOrder(ctx context.Context, sub *models.Subscription, paymentID, signature string) error {
	if sub.Status == types.SubscriptionStatusActive && sub.RazorpayPaymentID != nil && *sub.RazorpayPaymentID == paymentID {
		logctx.FromCtx(ctx, r.log).Infow("order activation replayed, skipping", "subscription_id", sub.ID, "payment_id", paymentID)
		return nil
	}

	now := r.now()
	start, end := OrderValidity(sub.PlanType, now)
	sub.Status = types.SubscriptionStatusActive
	sub.StartDate = &start
	sub.EndDate = &end
	sub.RazorpayPaymentID = lo.ToPtr(paymentID)
	if signature != "" {
		sub.RazorpaySignature = lo.ToPtr(signature)
	}
	if err := r.store.Save(ctx, sub, types.SubscriptionChangeReasonVerified, map[string]any{"payment_id": paymentID}); err != nil {
		return fmt.Errorf("failed to activate order subscription: %w", err)
	}
	return nil
}

// ActivateRecurring marks a recurring-flow row paid after its first charge
// is signature-verified.
func (r *Reconciler) ActivateRecurring(ctx context.Context, sub *models.Subscription, paymentID, signature string) error {
	if sub.Status == types.SubscriptionStatusActive && sub.RazorpayPaymentID != nil && *sub.RazorpayPaymentID == paymentID {
		logctx.FromCtx(ctx, r.log).Infow("recurring activation replayed, skipping", "subscription_id", sub.ID, "payment_id", paymentID)
		return nil
	}

	now := r.now()
	end, next := RecurringValidity(sub.PlanType, now)
	sub.Status = types.SubscriptionStatusActive
	sub.StartDate = &now
	sub.EndDate = &end
	sub.NextBillingDate = next
	sub.RazorpayPaymentID = lo.ToPtr(paymentID)
	if signature != "" {
		sub.RazorpaySignature = lo.ToPtr(signature)
	}
	if err := r.store.Save(ctx, sub, types.SubscriptionChangeReasonVerified, map[string]any{"payment_id": paymentID}); err != nil {
		return fmt.Errorf("failed to activate recurring subscription: %w", err)
	}
	return nil
}

// MarkActivated applies subscription.activated: status only, dates are owned
// by the charge/verify paths.
func (r *Reconciler) MarkActivated(ctx context.Context, sub *models.Subscription) error {
	if sub.Status == types.SubscriptionStatusActive {
		return nil
	}
	sub.Status = types.SubscriptionStatusActive
	return r.store.Save(ctx, sub, types.SubscriptionChangeReasonWebhook, map[string]any{"event": string(types.WebhookEventSubscriptionActivated)})
}

// MarkFailed applies payment.failed.
func (r *Reconciler) MarkFailed(ctx context.Context, sub *models.Subscription) error {
	if sub.Status == types.SubscriptionStatusFailed {
		return nil
	}
	sub.Status = types.SubscriptionStatusFailed
	return r.store.Save(ctx, sub, types.SubscriptionChangeReasonWebhook, map[string]any{"event": string(types.WebhookEventPaymentFailed)})
}

// ApplyCharge applies subscription.charged. The payment id recorded on the
// row dedups replays: delivering the same charge twice advances the cycle
// once. Returns whether the charge changed the row.
func (r *Reconciler) ApplyCharge(ctx context.Context, sub *models.Subscription, paymentID string) (bool, error) {
	if paymentID != "" && sub.RazorpayPaymentID != nil && *sub.RazorpayPaymentID == paymentID {
		logctx.FromCtx(ctx, r.log).Infow("charge replayed, skipping", "subscription_id", sub.ID, "payment_id", paymentID)
		return false, nil
	}

	sub.Status = types.SubscriptionStatusActive
	if paymentID != "" {
		sub.RazorpayPaymentID = lo.ToPtr(paymentID)
	}

	if sub.PlanType == types.PlanTypeMonthly {
		AdvanceCycle(sub, r.now())
	}

	err := r.store.Save(ctx, sub, types.SubscriptionChangeReasonWebhook, map[string]any{
		"event":      string(types.WebhookEventSubscriptionCharged),
		"payment_id": paymentID,
	})
	if err != nil {
		return false, fmt.Errorf("failed to apply charge: %w", err)
	}
	return true, nil
}

// MarkCompleted applies subscription.completed: all cycles charged, renewal
// stops.
func (r *Reconciler) MarkCompleted(ctx context.Context, sub *models.Subscription) error {
	if sub.Status == types.SubscriptionStatusCompleted && !sub.AutoRenew {
		return nil
	}
	sub.Status = types.SubscriptionStatusCompleted
	sub.AutoRenew = false
	return r.store.Save(ctx, sub, types.SubscriptionChangeReasonWebhook, map[string]any{"event": string(types.WebhookEventSubscriptionCompleted)})
}

// DisableAutoRenew applies subscription.cancelled and the cancel action. The
// row keeps its status: access runs until the natural expiry, never deleted.
func (r *Reconciler) DisableAutoRenew(ctx context.Context, sub *models.Subscription, reason types.SubscriptionChangeReason) error {
	if !sub.AutoRenew {
		return nil
	}
	sub.AutoRenew = false
	return r.store.Save(ctx, sub, reason, nil)
}

// OrderValidity computes the access window of a verified one-time order:
// 30 days for monthly, 365 for yearly, from now.
func OrderValidity(plan types.PlanType, now time.Time) (start, end time.Time) {
	days := orderValidityDaysMonthly
	if plan == types.PlanTypeYearly {
		days = orderValidityDaysYearly
	}
	return now, now.AddDate(0, 0, days)
}

// RecurringValidity computes end and next billing dates of a verified
// recurring subscription. Monthly plans bill one month after the current
// period ends; yearly plans have a single cycle and no next billing date.
func RecurringValidity(plan types.PlanType, now time.Time) (end time.Time, next *time.Time) {
	if plan == types.PlanTypeMonthly {
		end = now.AddDate(0, 1, 0)
		return end, lo.ToPtr(end.AddDate(0, 1, 0))
	}
	return now.AddDate(1, 0, 0), nil
}

// AdvanceCycle moves a monthly subscription one paid cycle forward, clamped
// at TotalCycles. Dates derive from the anchor start date rather than
// incremental arithmetic, so re-deriving them is safe.
func AdvanceCycle(sub *models.Subscription, now time.Time) {
	if sub.BillingCycle < sub.TotalCycles {
		sub.BillingCycle++
	}

	anchor := now
	if sub.StartDate != nil {
		anchor = *sub.StartDate
	} else {
		sub.StartDate = &anchor
	}

	end := anchor.AddDate(0, sub.BillingCycle, 0)
	sub.EndDate = &end
	if sub.BillingCycle < sub.TotalCycles {
		sub.NextBillingDate = lo.ToPtr(end.AddDate(0, 1, 0))
	} else {
		sub.NextBillingDate = nil
	}
}
