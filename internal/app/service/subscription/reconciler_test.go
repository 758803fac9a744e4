package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tradelab/billing/internal/models"
	"github.com/tradelab/billing/pkg/types"
)

type stubStore struct {
	byOrderID map[string]*models.Subscription
	bySubID   map[string]*models.Subscription

	createCalls int
	saveCalls   int
	lastReason  types.SubscriptionChangeReason
	saveErr     error
}

func newStubStore() *stubStore {
	return &stubStore{
		byOrderID: map[string]*models.Subscription{},
		bySubID:   map[string]*models.Subscription{},
	}
}

func (s *stubStore) Create(_ context.Context, sub *models.Subscription) error {
	s.createCalls++
	if sub.RazorpayOrderID != nil {
		s.byOrderID[*sub.RazorpayOrderID] = sub
	}
	if sub.RazorpaySubscriptionID != nil {
		s.bySubID[*sub.RazorpaySubscriptionID] = sub
	}
	return nil
}

func (s *stubStore) FindByOrderID(_ context.Context, orderID string) (*models.Subscription, error) {
	if sub, ok := s.byOrderID[orderID]; ok {
		return sub, nil
	}
	return nil, ErrNotFound
}

func (s *stubStore) FindBySubscriptionID(_ context.Context, subscriptionID string) (*models.Subscription, error) {
	if sub, ok := s.bySubID[subscriptionID]; ok {
		return sub, nil
	}
	return nil, ErrNotFound
}

func (s *stubStore) Save(_ context.Context, _ *models.Subscription, reason types.SubscriptionChangeReason, _ map[string]any) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saveCalls++
	s.lastReason = reason
	return nil
}

func (s *stubStore) Scan(_ context.Context, _ *ScanRequest) (*ScanResponse, error) {
	return &ScanResponse{}, nil
}

func newTestReconciler(store Store, now time.Time) *Reconciler {
	rec := NewReconciler(store, zap.NewNop().Sugar())
	rec.now = func() time.Time { return now }
	return rec
}

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func TestActivateOrder_SetsValidityWindow(t *testing.T) {
	store := newStubStore()
	rec := newTestReconciler(store, testNow)

	sub := &models.Subscription{
		ID:              "s-1",
		Status:          types.SubscriptionStatusPending,
		PlanType:        types.PlanTypeMonthly,
		RazorpayOrderID: lo.ToPtr("order_1"),
	}
	require.NoError(t, rec.ActivateOrder(context.Background(), sub, "pay_1", "sig"))

	require.Equal(t, types.SubscriptionStatusActive, sub.Status)
	require.Equal(t, testNow, *sub.StartDate)
	require.Equal(t, testNow.AddDate(0, 0, 30), *sub.EndDate)
	require.Equal(t, "pay_1", *sub.RazorpayPaymentID)
	require.Equal(t, types.SubscriptionChangeReasonVerified, store.lastReason)
	require.Equal(t, 1, store.saveCalls)
}

func TestActivateOrder_YearlyGets365Days(t *testing.T) {
	rec := newTestReconciler(newStubStore(), testNow)

	sub := &models.Subscription{ID: "s-1", PlanType: types.PlanTypeYearly, RazorpayOrderID: lo.ToPtr("order_1")}
	require.NoError(t, rec.ActivateOrder(context.Background(), sub, "pay_1", ""))
	require.Equal(t, testNow.AddDate(0, 0, 365), *sub.EndDate)
}

func TestActivateOrder_ReplayIsNoop(t *testing.T) {
	store := newStubStore()
	rec := newTestReconciler(store, testNow)

	end := testNow.AddDate(0, 0, 30)
	sub := &models.Subscription{
		ID:                "s-1",
		Status:            types.SubscriptionStatusActive,
		PlanType:          types.PlanTypeMonthly,
		RazorpayPaymentID: lo.ToPtr("pay_1"),
		EndDate:           &end,
	}
	require.NoError(t, rec.ActivateOrder(context.Background(), sub, "pay_1", "sig"))
	require.Zero(t, store.saveCalls)
	require.Equal(t, end, *sub.EndDate)
}

func TestActivateRecurring_MonthlyDates(t *testing.T) {
	store := newStubStore()
	rec := newTestReconciler(store, testNow)

	sub := &models.Subscription{ID: "s-1", Status: types.SubscriptionStatusCreated, PlanType: types.PlanTypeMonthly}
	require.NoError(t, rec.ActivateRecurring(context.Background(), sub, "pay_1", "sig"))

	require.Equal(t, types.SubscriptionStatusActive, sub.Status)
	require.Equal(t, testNow, *sub.StartDate)
	require.Equal(t, testNow.AddDate(0, 1, 0), *sub.EndDate)
	require.NotNil(t, sub.NextBillingDate)
	require.Equal(t, sub.EndDate.AddDate(0, 1, 0), *sub.NextBillingDate)
}

func TestActivateRecurring_YearlyHasNoNextBilling(t *testing.T) {
	rec := newTestReconciler(newStubStore(), testNow)

	sub := &models.Subscription{ID: "s-1", Status: types.SubscriptionStatusCreated, PlanType: types.PlanTypeYearly}
	require.NoError(t, rec.ActivateRecurring(context.Background(), sub, "pay_1", "sig"))

	require.Equal(t, testNow.AddDate(1, 0, 0), *sub.EndDate)
	require.Nil(t, sub.NextBillingDate)
}

func TestApplyCharge_AdvancesMonthlyCycle(t *testing.T) {
	store := newStubStore()
	rec := newTestReconciler(store, testNow)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sub := &models.Subscription{
		ID:                "s-1",
		Status:            types.SubscriptionStatusActive,
		PlanType:          types.PlanTypeMonthly,
		StartDate:         &start,
		BillingCycle:      1,
		TotalCycles:       12,
		RazorpayPaymentID: lo.ToPtr("pay_1"),
	}
	changed, err := rec.ApplyCharge(context.Background(), sub, "pay_2")
	require.NoError(t, err)
	require.True(t, changed)

	require.Equal(t, 2, sub.BillingCycle)
	require.Equal(t, "pay_2", *sub.RazorpayPaymentID)
	// end date derives from the start anchor, not from the previous end
	require.Equal(t, start.AddDate(0, 2, 0), *sub.EndDate)
	require.Equal(t, start.AddDate(0, 3, 0), *sub.NextBillingDate)
}

func TestApplyCharge_ReplayDoesNotAdvanceTwice(t *testing.T) {
	store := newStubStore()
	rec := newTestReconciler(store, testNow)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sub := &models.Subscription{
		ID:           "s-1",
		Status:       types.SubscriptionStatusActive,
		PlanType:     types.PlanTypeMonthly,
		StartDate:    &start,
		BillingCycle: 1,
		TotalCycles:  12,
	}

	changed, err := rec.ApplyCharge(context.Background(), sub, "pay_2")
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, 2, sub.BillingCycle)

	changed, err = rec.ApplyCharge(context.Background(), sub, "pay_2")
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, 2, sub.BillingCycle)
	require.Equal(t, 1, store.saveCalls)
}

func TestApplyCharge_ClampsAtTotalCycles(t *testing.T) {
	rec := newTestReconciler(newStubStore(), testNow)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sub := &models.Subscription{
		ID:           "s-1",
		Status:       types.SubscriptionStatusActive,
		PlanType:     types.PlanTypeMonthly,
		StartDate:    &start,
		BillingCycle: 12,
		TotalCycles:  12,
	}
	changed, err := rec.ApplyCharge(context.Background(), sub, "pay_13")
	require.NoError(t, err)
	require.True(t, changed)

	require.Equal(t, 12, sub.BillingCycle)
	require.Nil(t, sub.NextBillingDate)
}

func TestApplyCharge_FinalCycleClearsNextBilling(t *testing.T) {
	rec := newTestReconciler(newStubStore(), testNow)

	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	next := start.AddDate(0, 12, 0)
	sub := &models.Subscription{
		ID:              "s-1",
		Status:          types.SubscriptionStatusActive,
		PlanType:        types.PlanTypeMonthly,
		StartDate:       &start,
		NextBillingDate: &next,
		BillingCycle:    11,
		TotalCycles:     12,
	}
	_, err := rec.ApplyCharge(context.Background(), sub, "pay_12")
	require.NoError(t, err)

	require.Equal(t, 12, sub.BillingCycle)
	require.Equal(t, start.AddDate(0, 12, 0), *sub.EndDate)
	require.Nil(t, sub.NextBillingDate)
}

func TestMarkFailed_Idempotent(t *testing.T) {
	store := newStubStore()
	rec := newTestReconciler(store, testNow)

	sub := &models.Subscription{ID: "s-1", Status: types.SubscriptionStatusPending}
	require.NoError(t, rec.MarkFailed(context.Background(), sub))
	require.NoError(t, rec.MarkFailed(context.Background(), sub))

	require.Equal(t, types.SubscriptionStatusFailed, sub.Status)
	require.Equal(t, 1, store.saveCalls)
}

func TestMarkCompleted_DisablesRenewal(t *testing.T) {
	store := newStubStore()
	rec := newTestReconciler(store, testNow)

	sub := &models.Subscription{ID: "s-1", Status: types.SubscriptionStatusActive, AutoRenew: true}
	require.NoError(t, rec.MarkCompleted(context.Background(), sub))

	require.Equal(t, types.SubscriptionStatusCompleted, sub.Status)
	require.False(t, sub.AutoRenew)
}

func TestDisableAutoRenew_KeepsStatusAndDates(t *testing.T) {
	store := newStubStore()
	rec := newTestReconciler(store, testNow)

	end := testNow.AddDate(0, 1, 0)
	sub := &models.Subscription{ID: "s-1", Status: types.SubscriptionStatusActive, AutoRenew: true, EndDate: &end}
	require.NoError(t, rec.DisableAutoRenew(context.Background(), sub, types.SubscriptionChangeReasonCancelRenew))

	require.False(t, sub.AutoRenew)
	require.Equal(t, types.SubscriptionStatusActive, sub.Status)
	require.Equal(t, end, *sub.EndDate)

	// second cancel is a no-op
	require.NoError(t, rec.DisableAutoRenew(context.Background(), sub, types.SubscriptionChangeReasonCancelRenew))
	require.Equal(t, 1, store.saveCalls)
}
