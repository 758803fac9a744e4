package handlers

// SwaggerBillingRequest documents the discriminated billing request body.
// Only the fields relevant to the chosen action are read.
type SwaggerBillingRequest struct {
	Action string `json:"action" example:"create-order"`

	// create-order / create-subscription
	PlanType string  `json:"planType,omitempty" example:"monthly"`
	Amount   float64 `json:"amount,omitempty" example:"1000"`
	Name     string  `json:"name,omitempty"`
	Email    string  `json:"email,omitempty"`
	Contact  string  `json:"contact,omitempty"`

	// verify-payment / verify-subscription / cancel-subscription
	RazorpayOrderID        string `json:"razorpay_order_id,omitempty"`
	RazorpaySubscriptionID string `json:"razorpay_subscription_id,omitempty"`
	RazorpayPaymentID      string `json:"razorpay_payment_id,omitempty"`
	RazorpaySignature      string `json:"razorpay_signature,omitempty"`
}
