package razorpay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("rzp_test_key", "rzp_test_secret", WithBaseURL(srv.URL))
}

func TestCreateOrder_AmountOnWireIsMinorUnits(t *testing.T) {
	var got createOrderRequest
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "rzp_test_key", user)
		require.Equal(t, "rzp_test_secret", pass)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(Order{
			ID:       "order_test1",
			Amount:   got.Amount,
			Currency: got.Currency,
			Receipt:  got.Receipt,
			Status:   "created",
		})
	}))

	order, err := client.CreateOrder(context.Background(), 1999.00, "INR", "rcpt_1", map[string]string{"user_id": "u-1"})
	require.NoError(t, err)
	require.Equal(t, int64(199900), got.Amount)
	require.Equal(t, "INR", got.Currency)
	require.Equal(t, "u-1", got.Notes["user_id"])
	require.Equal(t, "order_test1", order.ID)
	require.Equal(t, 1999.00, order.MajorUnits())
}

func TestCreateOrder_APIErrorCarriesStatusAndBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"description":"amount must be at least 100"}}`))
	}))

	_, err := client.CreateOrder(context.Background(), 0.5, "INR", "rcpt_1", nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Contains(t, apiErr.Body, "amount must be at least 100")
}

func TestFindCustomerByEmail_CaseInsensitiveMatch(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/customers", r.URL.Path)
		require.Equal(t, "100", r.URL.Query().Get("count"))
		_ = json.NewEncoder(w).Encode(customerList{
			Count: 2,
			Items: []*Customer{
				{ID: "cust_other", Email: "other@example.com"},
				{ID: "cust_match", Email: "Trader@Example.com"},
			},
		})
	}))

	cust, err := client.FindCustomerByEmail(context.Background(), "trader@example.com")
	require.NoError(t, err)
	require.NotNil(t, cust)
	require.Equal(t, "cust_match", cust.ID)
}

func TestFindCustomerByEmail_MissIsNilNil(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(customerList{Count: 0})
	}))

	cust, err := client.FindCustomerByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	require.Nil(t, cust)
}

func TestCreateCustomer_AlreadyExistsRetriesLookup(t *testing.T) {
	listCalls := 0
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			listCalls++
			items := []*Customer{}
			// customer becomes visible only after the failed create
			if listCalls > 1 {
				items = append(items, &Customer{ID: "cust_existing", Email: "trader@example.com"})
			}
			_ = json.NewEncoder(w).Encode(customerList{Count: len(items), Items: items})
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"description":"Customer already exists for the merchant"}}`))
	}))

	cust, err := client.CreateCustomer(context.Background(), "Trader", "trader@example.com", "", nil)
	require.NoError(t, err)
	require.Equal(t, "cust_existing", cust.ID)
	require.Equal(t, 2, listCalls)
}

func TestCreateCustomer_LookupHitSkipsCreate(t *testing.T) {
	createCalls := 0
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			createCalls++
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(customerList{
			Count: 1,
			Items: []*Customer{{ID: "cust_hit", Email: "trader@example.com"}},
		})
	}))

	cust, err := client.CreateCustomer(context.Background(), "Trader", "trader@example.com", "", nil)
	require.NoError(t, err)
	require.Equal(t, "cust_hit", cust.ID)
	require.Zero(t, createCalls)
}

func TestCreateSubscription_PayloadHasNoCallbackFields(t *testing.T) {
	var raw map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &raw))
		_ = json.NewEncoder(w).Encode(Subscription{ID: "sub_test1", Status: "created", ShortURL: "https://rzp.io/i/x"})
	}))

	sub, err := client.CreateSubscription(context.Background(), "plan_1", "cust_1", 12, map[string]string{"user_id": "u-1"})
	require.NoError(t, err)
	require.Equal(t, "sub_test1", sub.ID)

	require.NotContains(t, raw, "callback_url")
	require.NotContains(t, raw, "callback_method")
	require.Equal(t, float64(12), raw["total_count"])
	require.Equal(t, float64(1), raw["customer_notify"])
}

func TestCancelSubscription_AtCycleEnd(t *testing.T) {
	var got cancelSubscriptionRequest
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/subscriptions/sub_test1/cancel", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(Subscription{ID: "sub_test1", Status: "active"})
	}))

	_, err := client.CancelSubscription(context.Background(), "sub_test1", true)
	require.NoError(t, err)
	require.Equal(t, 1, got.CancelAtCycleEnd)
}
