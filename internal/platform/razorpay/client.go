package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

// customerLookupPageSize bounds the best-effort email lookup to one page.
const customerLookupPageSize = 100

// Client talks to the Razorpay REST API using HTTP Basic auth built from the
// key id/secret pair. It is a leaf: no logging, no retries; callers own both.
type Client struct {
	keyID      string
	keySecret  string
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithBaseURL overrides the API base URL, used by tests to point the client
// at a local server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func NewClient(keyID, keySecret string, opts ...Option) *Client {
	c := &Client{
		keyID:      keyID,
		keySecret:  keySecret,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call razorpay: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read razorpay response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode razorpay response: %w", err)
		}
	}
	return nil
}

// CreateOrder creates a one-time order. amount is in major currency units;
// the API expects minor units, so it is multiplied by 100 on the wire.
func (c *Client) CreateOrder(ctx context.Context, amount float64, currency, receipt string, notes map[string]string) (*Order, error) {
	req := &createOrderRequest{
		Amount:   int64(math.Round(amount * 100)),
		Currency: currency,
		Receipt:  receipt,
		Notes:    notes,
	}
	var order Order
	if err := c.do(ctx, http.MethodPost, "/orders", req, &order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return &order, nil
}

// FindCustomerByEmail scans the first page of the customer list for a
// case-insensitive email match. A miss is (nil, nil); only transport/API
// failures return an error. This is best effort, callers fall back to
// creation.
func (c *Client) FindCustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	var list customerList
	path := fmt.Sprintf("/customers?count=%d", customerLookupPageSize)
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	for _, cust := range list.Items {
		if strings.EqualFold(cust.Email, email) {
			return cust, nil
		}
	}
	return nil, nil
}

// CreateCustomer returns the existing customer for email when the lookup
// finds one, otherwise creates a new one. When creation fails because the
// provider reports the customer already exists, the lookup is retried once
// before giving up.
func (c *Client) CreateCustomer(ctx context.Context, name, email, contact string, notes map[string]string) (*Customer, error) {
	if existing, err := c.FindCustomerByEmail(ctx, email); err == nil && existing != nil {
		return existing, nil
	}

	req := &createCustomerRequest{Name: name, Email: email, Contact: contact, Notes: notes}
	var cust Customer
	err := c.do(ctx, http.MethodPost, "/customers", req, &cust)
	if err == nil {
		return &cust, nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && strings.Contains(strings.ToLower(apiErr.Body), "already exists") {
		existing, lookupErr := c.FindCustomerByEmail(ctx, email)
		if lookupErr == nil && existing != nil {
			return existing, nil
		}
	}
	return nil, fmt.Errorf("create customer: %w", err)
}

// CreatePlan creates a billing plan. The item amount must already be in
// minor units by the time this is called.
func (c *Client) CreatePlan(ctx context.Context, req *CreatePlanRequest) (*Plan, error) {
	var plan Plan
	if err := c.do(ctx, http.MethodPost, "/plans", req, &plan); err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}
	return &plan, nil
}

func (c *Client) CreateSubscription(ctx context.Context, planID, customerID string, totalCount int, notes map[string]string) (*Subscription, error) {
	req := &createSubscriptionRequest{
		PlanID:         planID,
		CustomerID:     customerID,
		TotalCount:     totalCount,
		CustomerNotify: 1,
		Notes:          notes,
	}
	var sub Subscription
	if err := c.do(ctx, http.MethodPost, "/subscriptions", req, &sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	return &sub, nil
}

// CancelSubscription cancels at the end of the current billing period when
// cancelAtCycleEnd is true; the subscription stays chargeable until then.
func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string, cancelAtCycleEnd bool) (*Subscription, error) {
	req := &cancelSubscriptionRequest{}
	if cancelAtCycleEnd {
		req.CancelAtCycleEnd = 1
	}
	var sub Subscription
	path := fmt.Sprintf("/subscriptions/%s/cancel", url.PathEscape(subscriptionID))
	if err := c.do(ctx, http.MethodPost, path, req, &sub); err != nil {
		return nil, fmt.Errorf("cancel subscription: %w", err)
	}
	return &sub, nil
}
