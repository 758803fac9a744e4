package billing

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/tradelab/billing/internal/app/service/subscription"
	"github.com/tradelab/billing/internal/models"
	"github.com/tradelab/billing/internal/platform/razorpay"
	"github.com/tradelab/billing/pkg/config"
	"github.com/tradelab/billing/pkg/logctx"
	"github.com/tradelab/billing/pkg/tool"
	"github.com/tradelab/billing/pkg/types"
)

const defaultCurrency = "INR"

// Service orchestrates the billing actions: gateway resources first, then the
// local row. The two sides span separate network boundaries, so a gateway
// success followed by a store failure leaves an orphaned provider resource;
// that window is logged, not compensated.
type Service struct {
	cfg   *config.Config
	gw    Gateway
	store subscription.Store
	rec   *subscription.Reconciler
	log   *zap.SugaredLogger
}

func NewService(cfg *config.Config, gw Gateway, store subscription.Store, rec *subscription.Reconciler, log *zap.SugaredLogger) Manager {
	return &Service{cfg: cfg, gw: gw, store: store, rec: rec, log: log}
}

func (s *Service) CreateOrder(ctx context.Context, userID string, req *CreateOrderRequest) (*CreateOrderResult, error) {
	if req == nil || !req.PlanType.Valid() || req.Amount <= 0 {
		return nil, errValidation("planType and amount are required")
	}
	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	receipt := "rcpt_" + strings.ReplaceAll(tool.GenerateUUIDV7(), "-", "")
	order, err := s.gw.CreateOrder(ctx, req.Amount, currency, receipt, map[string]string{
		"user_id":   userID,
		"plan_type": string(req.PlanType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	sub := &models.Subscription{
		UserID:          userID,
		Status:          types.SubscriptionStatusPending,
		PlanType:        req.PlanType,
		Amount:          order.MajorUnits(),
		Currency:        currency,
		RazorpayOrderID: &order.ID,
		BillingCycle:    1,
		TotalCycles:     req.PlanType.TotalCycles(),
		AutoRenew:       true,
	}
	if err := s.store.Create(ctx, sub); err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("order created at gateway but local insert failed",
			"order_id", order.ID, "user_id", userID, "error", err.Error())
		return nil, fmt.Errorf("failed to record order: %w", err)
	}

	return &CreateOrderResult{
		OrderID:        order.ID,
		SubscriptionID: sub.ID,
		Amount:         order.MajorUnits(),
		Currency:       order.Currency,
		KeyID:          s.cfg.Razorpay.KeyID,
	}, nil
}

func (s *Service) CreateSubscription(ctx context.Context, userID string, req *CreateSubscriptionRequest) (*CreateSubscriptionResult, error) {
	if req == nil || !req.PlanType.Valid() || req.Amount <= 0 || req.Name == "" || req.Email == "" {
		return nil, errValidation("planType, amount, name and email are required")
	}
	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	customer, err := s.gw.CreateCustomer(ctx, req.Name, req.Email, req.Contact, map[string]string{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	plan, err := s.gw.CreatePlan(ctx, &razorpay.CreatePlanRequest{
		Period:   string(req.PlanType),
		Interval: 1,
		Item: razorpay.PlanItem{
			Name:        fmt.Sprintf("Trading journal %s plan", req.PlanType),
			Amount:      int64(math.Round(req.Amount * 100)),
			Currency:    currency,
			Description: fmt.Sprintf("%s access to the trading journal", req.PlanType),
		},
		Notes: map[string]string{"user_id": userID},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	remote, err := s.gw.CreateSubscription(ctx, plan.ID, customer.ID, req.PlanType.TotalCycles(), map[string]string{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	sub := &models.Subscription{
		UserID:                 userID,
		Status:                 types.SubscriptionStatusCreated,
		PlanType:               req.PlanType,
		Amount:                 req.Amount,
		Currency:               currency,
		RazorpaySubscriptionID: &remote.ID,
		BillingCycle:           1,
		TotalCycles:            req.PlanType.TotalCycles(),
		AutoRenew:              true,
	}
	if err := s.store.Create(ctx, sub); err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("subscription created at gateway but local insert failed",
			"razorpay_subscription_id", remote.ID, "user_id", userID, "error", err.Error())
		return nil, fmt.Errorf("failed to record subscription: %w", err)
	}

	return &CreateSubscriptionResult{
		RazorpaySubscriptionID: remote.ID,
		SubscriptionID:         sub.ID,
		CustomerID:             customer.ID,
		ShortURL:               remote.ShortURL,
		KeyID:                  s.cfg.Razorpay.KeyID,
	}, nil
}

func (s *Service) VerifyPayment(ctx context.Context, userID string, req *VerifyPaymentRequest) (*models.Subscription, error) {
	if req == nil || req.RazorpayOrderID == "" || req.RazorpayPaymentID == "" || req.RazorpaySignature == "" {
		return nil, errValidation("razorpay_order_id, razorpay_payment_id and razorpay_signature are required")
	}
	if !razorpay.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature, s.cfg.Razorpay.KeySecret) {
		return nil, ErrInvalidSignature
	}

	sub, err := s.store.FindByOrderID(ctx, req.RazorpayOrderID)
	if err != nil {
		return nil, err
	}

	if err := s.rec.ActivateOrder(ctx, sub, req.RazorpayPaymentID, req.RazorpaySignature); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Service) VerifySubscription(ctx context.Context, userID string, req *VerifySubscriptionRequest) (*models.Subscription, error) {
	if req == nil || req.RazorpaySubscriptionID == "" || req.RazorpayPaymentID == "" || req.RazorpaySignature == "" {
		return nil, errValidation("razorpay_subscription_id, razorpay_payment_id and razorpay_signature are required")
	}
	if !razorpay.VerifySignature(req.RazorpaySubscriptionID, req.RazorpayPaymentID, req.RazorpaySignature, s.cfg.Razorpay.KeySecret) {
		return nil, ErrInvalidSignature
	}

	sub, err := s.store.FindBySubscriptionID(ctx, req.RazorpaySubscriptionID)
	if err != nil {
		return nil, err
	}
	if !sub.PlanType.Valid() {
		return nil, errValidation("unknown plan_type: %s", sub.PlanType)
	}

	if err := s.rec.ActivateRecurring(ctx, sub, req.RazorpayPaymentID, req.RazorpaySignature); err != nil {
		return nil, err
	}
	return sub, nil
}

// CancelSubscription flips auto-renew off after cancelling at the gateway.
// The row is never deleted and access continues until end_date passes. A row
// owned by a different user is reported as not found, before any gateway
// call.
func (s *Service) CancelSubscription(ctx context.Context, userID string, req *CancelSubscriptionRequest) (*models.Subscription, error) {
	if req == nil || req.RazorpaySubscriptionID == "" {
		return nil, errValidation("razorpay_subscription_id is required")
	}

	sub, err := s.store.FindBySubscriptionID(ctx, req.RazorpaySubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, subscription.ErrNotFound
	}

	if _, err := s.gw.CancelSubscription(ctx, req.RazorpaySubscriptionID, true); err != nil {
		return nil, fmt.Errorf("failed to cancel at gateway: %w", err)
	}

	if err := s.rec.DisableAutoRenew(ctx, sub, types.SubscriptionChangeReasonCancelRenew); err != nil {
		return nil, err
	}
	return sub, nil
}
