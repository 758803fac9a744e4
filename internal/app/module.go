package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/tradelab/billing/internal/app/api/server"
	"github.com/tradelab/billing/internal/app/service/auth"
	"github.com/tradelab/billing/internal/app/service/billing"
	"github.com/tradelab/billing/internal/app/service/statistics"
	"github.com/tradelab/billing/internal/app/service/subscription"
	"github.com/tradelab/billing/internal/app/service/webhook"
	"github.com/tradelab/billing/internal/app/service/webhooklog"
	"github.com/tradelab/billing/internal/platform/db"
	"github.com/tradelab/billing/pkg/config"
	"github.com/tradelab/billing/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	server.Module,
	auth.Module,
	subscription.Module,
	billing.Module,
	webhooklog.Module,
	webhook.Module,
	statistics.Module,
)
