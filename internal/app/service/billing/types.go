package billing

import (
	"context"

	"github.com/tradelab/billing/internal/models"
	"github.com/tradelab/billing/internal/platform/razorpay"
	"github.com/tradelab/billing/pkg/types"
)

// Gateway is the slice of the Razorpay client the orchestrator needs,
// abstracted for test doubles.
type Gateway interface {
	CreateOrder(ctx context.Context, amount float64, currency, receipt string, notes map[string]string) (*razorpay.Order, error)
	CreateCustomer(ctx context.Context, name, email, contact string, notes map[string]string) (*razorpay.Customer, error)
	CreatePlan(ctx context.Context, req *razorpay.CreatePlanRequest) (*razorpay.Plan, error)
	CreateSubscription(ctx context.Context, planID, customerID string, totalCount int, notes map[string]string) (*razorpay.Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string, cancelAtCycleEnd bool) (*razorpay.Subscription, error)
}

type CreateOrderRequest struct {
	PlanType types.PlanType `json:"planType"`
	Amount   float64        `json:"amount"`
	Currency string         `json:"currency"`
}

type CreateOrderResult struct {
	OrderID        string  `json:"order_id"`
	SubscriptionID string  `json:"subscription_id"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	KeyID          string  `json:"key_id"`
}

type CreateSubscriptionRequest struct {
	PlanType types.PlanType `json:"planType"`
	Amount   float64        `json:"amount"`
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Contact  string         `json:"contact"`
	Currency string         `json:"currency"`
}

type CreateSubscriptionResult struct {
	RazorpaySubscriptionID string `json:"razorpay_subscription_id"`
	SubscriptionID         string `json:"subscription_id"`
	CustomerID             string `json:"customer_id"`
	ShortURL               string `json:"short_url,omitempty"`
	KeyID                  string `json:"key_id"`
}

type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

type VerifySubscriptionRequest struct {
	RazorpaySubscriptionID string `json:"razorpay_subscription_id"`
	RazorpayPaymentID      string `json:"razorpay_payment_id"`
	RazorpaySignature      string `json:"razorpay_signature"`
}

type CancelSubscriptionRequest struct {
	RazorpaySubscriptionID string `json:"razorpay_subscription_id"`
}

// Manager is the action-level billing API consumed by the HTTP layer.
type Manager interface {
	CreateOrder(ctx context.Context, userID string, req *CreateOrderRequest) (*CreateOrderResult, error)
	CreateSubscription(ctx context.Context, userID string, req *CreateSubscriptionRequest) (*CreateSubscriptionResult, error)
	VerifyPayment(ctx context.Context, userID string, req *VerifyPaymentRequest) (*models.Subscription, error)
	VerifySubscription(ctx context.Context, userID string, req *VerifySubscriptionRequest) (*models.Subscription, error)
	CancelSubscription(ctx context.Context, userID string, req *CancelSubscriptionRequest) (*models.Subscription, error)
}
