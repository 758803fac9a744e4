package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tradelab/billing/docs"
	"github.com/tradelab/billing/internal/app/api/handlers"
	mw "github.com/tradelab/billing/internal/app/api/middleware"
	"github.com/tradelab/billing/internal/app/service/auth"
	"github.com/tradelab/billing/internal/app/service/billing"
	"github.com/tradelab/billing/internal/app/service/statistics"
	"github.com/tradelab/billing/internal/app/service/subscription"
	"github.com/tradelab/billing/internal/app/service/webhook"
	cfgpkg "github.com/tradelab/billing/pkg/config"
	metrics "github.com/tradelab/billing/pkg/metrics"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Tracing and CORS apply to every route; request logger & access log are
	// attached per group in registerRoutes. The checkout frontend calls the
	// billing endpoint cross-origin, so preflight must answer permissively.
	r.Use(mw.TraceMiddleware())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Authorization", "Content-Type", "X-Request-ID", "x-razorpay-signature"},
		MaxAge:          12 * time.Hour,
	}))
	return r
}

func registerRoutes(
	r *gin.Engine,
	log *zap.SugaredLogger,
	cfg *cfgpkg.Config,
	mgr billing.Manager,
	verifier auth.TokenVerifier,
	hooks *webhook.Dispatcher,
	store subscription.Store,
	stats *statistics.Service,
) {
	// Prometheus metrics
	if cfg != nil && cfg.MetricsAddr != "" {
		p := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			ReqCntURLLabelMappingFn: func(c *gin.Context) string {
				if fp := c.FullPath(); fp != "" {
					return fp
				}
				return c.Request.URL.Path
			},
			Logger: log,
		})
		p.SetListenAddress(cfg.MetricsAddr)
		p.Use(r)

		log.Infow("metrics started", "addr", cfg.MetricsAddr)
	}

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Billing endpoint: does its own auth because the webhook action shares
	// the route but authenticates with the gateway signature instead.
	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterBillingRoutes(apiV1, &handlers.BillingDeps{
		Manager:  mgr,
		Verifier: verifier,
		Hooks:    hooks,
		Cfg:      cfg,
		Log:      log,
	})

	// Admin APIs behind bearer auth
	admin := apiV1.Group("/admin")
	admin.Use(mw.AuthMiddleware(verifier, log))
	handlers.RegisterAdminRoutes(admin, store, stats, log)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
