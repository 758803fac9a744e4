package razorpay

import "fmt"

// APIError is returned for any non-2xx gateway response. It carries the raw
// body so callers can log upstream diagnostics verbatim.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("razorpay: status %d: %s", e.StatusCode, e.Body)
}

// Order is a one-time payment order. Amount is in minor units (paise).
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// MajorUnits reports the order amount in major currency units.
func (o *Order) MajorUnits() float64 {
	return float64(o.Amount) / 100
}

type Customer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

type customerList struct {
	Count int         `json:"count"`
	Items []*Customer `json:"items"`
}

type PlanItem struct {
	Name        string `json:"name"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description,omitempty"`
}

type CreatePlanRequest struct {
	Period   string            `json:"period"`
	Interval int               `json:"interval"`
	Item     PlanItem          `json:"item"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type Plan struct {
	ID       string   `json:"id"`
	Period   string   `json:"period"`
	Interval int      `json:"interval"`
	Item     PlanItem `json:"item"`
}

// Subscription is the provider-side recurring billing entity.
type Subscription struct {
	ID         string `json:"id"`
	PlanID     string `json:"plan_id"`
	CustomerID string `json:"customer_id"`
	Status     string `json:"status"`
	TotalCount int    `json:"total_count"`
	PaidCount  int    `json:"paid_count"`
	ShortURL   string `json:"short_url"`
}

type createOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type createCustomerRequest struct {
	Name    string            `json:"name"`
	Email   string            `json:"email"`
	Contact string            `json:"contact,omitempty"`
	Notes   map[string]string `json:"notes,omitempty"`
}

// createSubscriptionRequest deliberately has no callback_url/callback_method
// fields: the subscriptions API rejects payloads carrying them.
type createSubscriptionRequest struct {
	PlanID         string            `json:"plan_id"`
	CustomerID     string            `json:"customer_id,omitempty"`
	TotalCount     int               `json:"total_count"`
	CustomerNotify int               `json:"customer_notify"`
	Notes          map[string]string `json:"notes,omitempty"`
}

type cancelSubscriptionRequest struct {
	CancelAtCycleEnd int `json:"cancel_at_cycle_end"`
}
