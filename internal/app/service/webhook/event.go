package webhook

import (
	"encoding/json"
	"fmt"
)

// PaymentEntity is the payment object embedded in gateway events.
type PaymentEntity struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Amount  int64  `json:"amount"`
	Email   string `json:"email"`
}

// SubscriptionEntity is the provider subscription object embedded in
// subscription.* events.
type SubscriptionEntity struct {
	ID         string `json:"id"`
	PlanID     string `json:"plan_id"`
	Status     string `json:"status"`
	PaidCount  int    `json:"paid_count"`
	TotalCount int    `json:"total_count"`
}

// Event is the gateway webhook envelope. Either payload entity may be absent
// depending on the event kind.
type Event struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity PaymentEntity `json:"entity"`
		} `json:"payment"`
		Subscription struct {
			Entity SubscriptionEntity `json:"entity"`
		} `json:"subscription"`
	} `json:"payload"`
	CreatedAt int64 `json:"created_at"`
}

// ParseEvent decodes a raw webhook body.
func ParseEvent(raw []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("failed to decode webhook payload: %w", err)
	}
	if ev.Event == "" {
		return nil, fmt.Errorf("webhook payload has no event field")
	}
	return &ev, nil
}

// EntityID names the provider id the event is about: the subscription id for
// subscription.* events, the payment's order id otherwise.
func (e *Event) EntityID() string {
	if e.Payload.Subscription.Entity.ID != "" {
		return e.Payload.Subscription.Entity.ID
	}
	return e.Payload.Payment.Entity.OrderID
}

// PaymentID is the payment attached to the event, empty if none.
func (e *Event) PaymentID() string {
	return e.Payload.Payment.Entity.ID
}
