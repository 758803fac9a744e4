package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	mw "github.com/tradelab/billing/internal/app/api/middleware"
	"github.com/tradelab/billing/internal/app/service/auth"
	"github.com/tradelab/billing/internal/app/service/billing"
	"github.com/tradelab/billing/internal/app/service/subscription"
	"github.com/tradelab/billing/internal/platform/razorpay"
	"github.com/tradelab/billing/pkg/config"
	"github.com/tradelab/billing/pkg/logctx"
	"github.com/tradelab/billing/pkg/response"
	"github.com/tradelab/billing/pkg/types"
)

// WebhookHandler processes a signature-verified webhook delivery. Satisfied
// by webhook.Dispatcher.
type WebhookHandler interface {
	Handle(ctx context.Context, raw []byte, traceID string) error
}

// BillingDeps bundles what the billing endpoint needs. Constructed once at
// route registration; everything is injected so tests can swap doubles in.
type BillingDeps struct {
	Manager  billing.Manager
	Verifier auth.TokenVerifier
	Hooks    WebhookHandler
	Cfg      *config.Config
	Log      *zap.SugaredLogger
}

type actionEnvelope struct {
	Action types.BillingAction `json:"action"`
}

type actionHandler func(d *BillingDeps, c *gin.Context, userID string, raw []byte)

// userActionHandlers is the closed dispatch table for caller-initiated
// actions. The webhook action is routed separately because it authenticates
// with the gateway signature rather than a bearer token.
var userActionHandlers = map[types.BillingAction]actionHandler{
	types.ActionCreateOrder:        handleCreateOrder,
	types.ActionCreateSubscription: handleCreateSubscription,
	types.ActionVerifyPayment:      handleVerifyPayment,
	types.ActionVerifySubscription: handleVerifySubscription,
	types.ActionCancelSubscription: handleCancelSubscription,
}

// @Summary      Billing action endpoint
// @Description  Single entry point for billing operations, discriminated by the action field: create-order, create-subscription, verify-payment, verify-subscription, cancel-subscription, webhook.
// @Tags         Billing
// @Accept       json
// @Produce      json
// @Param        request body handlers.SwaggerBillingRequest true "Billing action request"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  response.Err
// @Failure      401  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Router       /api/v1/billing [post]
func ApiBillingAction(d *BillingDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error("failed to read request body"))
			return
		}

		var env actionEnvelope
		if err := json.Unmarshal(raw, &env); err != nil || env.Action == "" {
			c.JSON(http.StatusBadRequest, response.Error("action is required"))
			return
		}

		if env.Action == types.ActionWebhook {
			handleWebhook(d, c, raw)
			return
		}

		handler, ok := userActionHandlers[env.Action]
		if !ok {
			c.JSON(http.StatusBadRequest, response.Error("unknown action: "+string(env.Action)))
			return
		}

		// Bearer auth runs before any field validation or remote call.
		userID, err := mw.Authenticate(c, d.Verifier)
		if err != nil {
			logctx.FromGin(c, d.Log).Warnw("billing_unauthorized", "action", env.Action)
			c.JSON(http.StatusUnauthorized, response.Error("unauthorized"))
			return
		}

		handler(d, c, userID, raw)
	}
}

func handleCreateOrder(d *BillingDeps, c *gin.Context, userID string, raw []byte) {
	var req billing.CreateOrderRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("invalid request body"))
		return
	}
	res, err := d.Manager.CreateOrder(c.Request.Context(), userID, &req)
	if err != nil {
		respondBillingError(d, c, "create-order", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func handleCreateSubscription(d *BillingDeps, c *gin.Context, userID string, raw []byte) {
	var req billing.CreateSubscriptionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("invalid request body"))
		return
	}
	res, err := d.Manager.CreateSubscription(c.Request.Context(), userID, &req)
	if err != nil {
		respondBillingError(d, c, "create-subscription", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func handleVerifyPayment(d *BillingDeps, c *gin.Context, userID string, raw []byte) {
	var req billing.VerifyPaymentRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("invalid request body"))
		return
	}
	sub, err := d.Manager.VerifyPayment(c.Request.Context(), userID, &req)
	if err != nil {
		respondBillingError(d, c, "verify-payment", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

func handleVerifySubscription(d *BillingDeps, c *gin.Context, userID string, raw []byte) {
	var req billing.VerifySubscriptionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("invalid request body"))
		return
	}
	sub, err := d.Manager.VerifySubscription(c.Request.Context(), userID, &req)
	if err != nil {
		respondBillingError(d, c, "verify-subscription", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

func handleCancelSubscription(d *BillingDeps, c *gin.Context, userID string, raw []byte) {
	var req billing.CancelSubscriptionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("invalid request body"))
		return
	}
	sub, err := d.Manager.CancelSubscription(c.Request.Context(), userID, &req)
	if err != nil {
		respondBillingError(d, c, "cancel-subscription", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

// handleWebhook authenticates the delivery with the gateway signature over
// the raw body. Once the signature checks out the delivery is always acked
// with 200: the provider retries forever on anything else, and processing
// failures are logged and reconciled from the event log instead.
func handleWebhook(d *BillingDeps, c *gin.Context, raw []byte) {
	sig := c.GetHeader("x-razorpay-signature")
	if !razorpay.VerifyWebhookSignature(raw, sig, d.Cfg.Razorpay.WebhookSecret) {
		logctx.FromGin(c, d.Log).Warnw("webhook_signature_invalid")
		c.JSON(http.StatusBadRequest, response.Error("invalid webhook signature"))
		return
	}

	traceID := c.GetString("traceID")
	if err := d.Hooks.Handle(c.Request.Context(), raw, traceID); err != nil {
		logctx.FromGin(c, d.Log).Errorw("webhook_handle_error", "error", err.Error())
	}
	c.JSON(http.StatusOK, response.Ack())
}

func respondBillingError(d *BillingDeps, c *gin.Context, action string, err error) {
	log := logctx.FromGin(c, d.Log)

	var vErr *billing.ValidationError
	var apiErr *razorpay.APIError
	switch {
	case errors.As(err, &vErr):
		log.Warnw("billing_validation_failed", "action", action, "error", vErr.Error())
		c.JSON(http.StatusBadRequest, response.Error(vErr.Error()))
	case errors.Is(err, subscription.ErrNotFound):
		log.Warnw("billing_subscription_not_found", "action", action)
		c.JSON(http.StatusNotFound, response.Error("subscription not found"))
	case errors.As(err, &apiErr):
		log.Errorw("billing_gateway_error", "action", action, "status", apiErr.StatusCode, "body", apiErr.Body)
		c.JSON(http.StatusBadGateway, response.ErrorWithDetails("payment gateway error", err.Error()))
	default:
		log.Errorw("billing_internal_error", "action", action, "error", err.Error())
		c.JSON(http.StatusInternalServerError, response.ErrorWithDetails("internal error", err.Error()))
	}
}

func RegisterBillingRoutes(r gin.IRouter, d *BillingDeps) {
	r.POST("/billing", ApiBillingAction(d))
}
