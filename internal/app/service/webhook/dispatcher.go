package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/tradelab/billing/internal/app/service/subscription"
	"github.com/tradelab/billing/internal/app/service/webhooklog"
	"github.com/tradelab/billing/internal/models"
	"github.com/tradelab/billing/pkg/logctx"
	"github.com/tradelab/billing/pkg/types"
)

// EventRecorder persists webhook delivery records. Satisfied by
// webhooklog.Service.
type EventRecorder interface {
	Save(ctx context.Context, entry *models.WebhookEventLog)
}

// Dispatcher routes verified gateway events to the reconciler and records
// every delivery in the webhook event log. Signature verification happens
// before Handle is invoked; processing errors here are returned for logging
// but the HTTP layer still acks the delivery.
type Dispatcher struct {
	store subscription.Store
	rec   *subscription.Reconciler
	elog  EventRecorder
	log   *zap.SugaredLogger
}

func NewDispatcher(store subscription.Store, rec *subscription.Reconciler, elog EventRecorder, log *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{store: store, rec: rec, elog: elog, log: log}
}

func (d *Dispatcher) Handle(ctx context.Context, raw []byte, traceID string) (resErr error) {
	ev, err := ParseEvent(raw)
	if err != nil {
		return err
	}

	var userID *string

	d.elog.Save(ctx, &models.WebhookEventLog{
		Event:     ev.Event,
		TraceID:   traceID,
		EntityID:  ev.EntityID(),
		PaymentID: ev.PaymentID(),
		Payload:   datatypes.JSON(raw),
		Status:    models.WebhookEventLogStatusReceived,
	})

	defer func() {
		resMap := map[string]any{}
		if resErr != nil {
			resMap["error"] = resErr.Error()
		}
		resBytes, _ := json.Marshal(resMap)
		status := models.WebhookEventLogStatusHandled
		if resErr != nil {
			status = models.WebhookEventLogStatusHandleFailed
		}
		d.elog.Save(ctx, &models.WebhookEventLog{
			Event:     ev.Event,
			UserID:    userID,
			TraceID:   traceID,
			EntityID:  ev.EntityID(),
			PaymentID: ev.PaymentID(),
			Payload:   datatypes.JSON(raw),
			Result:    func() *datatypes.JSON { j := datatypes.JSON(resBytes); return &j }(),
			Status:    status,
		})
	}()

	sub, resErr := d.lookup(ctx, ev)
	if resErr != nil {
		if errors.Is(resErr, subscription.ErrNotFound) {
			// Events can refer to rows this service never created, e.g. a
			// charge for a subscription made before a data migration. Ack
			// and move on.
			logctx.FromCtx(ctx, d.log).Warnw("webhook for unknown subscription",
				"event", ev.Event, "entity_id", ev.EntityID())
			resErr = nil
			return nil
		}
		return resErr
	}
	userID = lo.ToPtr(sub.UserID)

	switch types.WebhookEvent(ev.Event) {
	case types.WebhookEventPaymentCaptured:
		// Defensive activation: the client-side verify call may never have
		// reached us. Only a still-pending order row is touched.
		if sub.OrderBased() && sub.Status == types.SubscriptionStatusPending {
			resErr = d.rec.ActivateOrder(ctx, sub, ev.PaymentID(), "")
		}
	case types.WebhookEventPaymentFailed:
		resErr = d.rec.MarkFailed(ctx, sub)
	case types.WebhookEventSubscriptionActivated:
		resErr = d.rec.MarkActivated(ctx, sub)
	case types.WebhookEventSubscriptionCharged:
		_, resErr = d.rec.ApplyCharge(ctx, sub, ev.PaymentID())
	case types.WebhookEventSubscriptionCompleted:
		resErr = d.rec.MarkCompleted(ctx, sub)
	case types.WebhookEventSubscriptionCancelled:
		resErr = d.rec.DisableAutoRenew(ctx, sub, types.SubscriptionChangeReasonWebhook)
	default:
		logctx.FromCtx(ctx, d.log).Infow("ignoring unhandled webhook event", "event", ev.Event)
	}
	return resErr
}

// lookup resolves the row an event refers to. The subscription id wins when
// both entities are present: on subscription.charged the payment's order_id
// points at the cycle invoice order, which is not a row we hold.
func (d *Dispatcher) lookup(ctx context.Context, ev *Event) (*models.Subscription, error) {
	if subID := ev.Payload.Subscription.Entity.ID; subID != "" {
		return d.store.FindBySubscriptionID(ctx, subID)
	}
	if orderID := ev.Payload.Payment.Entity.OrderID; orderID != "" {
		return d.store.FindByOrderID(ctx, orderID)
	}
	return nil, fmt.Errorf("webhook event %q carries no order or subscription id", ev.Event)
}

// Module exposes the webhook dispatcher via Fx.
var Module = fx.Options(
	fx.Provide(func(s *webhooklog.Service) EventRecorder { return s }),
	fx.Provide(NewDispatcher),
)
