package billing

import (
	"go.uber.org/fx"

	"github.com/tradelab/billing/internal/platform/razorpay"
	"github.com/tradelab/billing/pkg/config"
)

func newGateway(cfg *config.Config) Gateway {
	return razorpay.NewClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
}

// Module exposes the billing orchestrator and its gateway client via Fx.
var Module = fx.Options(
	fx.Provide(newGateway),
	fx.Provide(NewService),
)
