package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tradelab/billing/internal/app/service/statistics"
	"github.com/tradelab/billing/internal/app/service/subscription"
	"github.com/tradelab/billing/pkg/logctx"
	"github.com/tradelab/billing/pkg/response"
)

// @Summary      List Subscriptions (Admin)
// @Description  Retrieves a paginated and filterable list of subscriptions.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body subscription.ScanRequest true "List request with filters, pagination, and sorting"
// @Success      200  {object}  subscription.ScanResponse
// @Failure      500  {object}  response.Err
// @Router       /api/v1/admin/subscription/list [post]
func ApiListSubscriptions(store subscription.Store, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req subscription.ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(err.Error()))
			return
		}
		res, err := store.Scan(c.Request.Context(), &req)
		if err != nil {
			logctx.FromGin(c, log).Errorw("admin_list_subscriptions_failed", "error", err.Error())
			c.JSON(http.StatusInternalServerError, response.ErrorWithDetails("failed to list subscriptions", err.Error()))
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// @Summary      Subscription Overview (Admin)
// @Description  Returns aggregate counts and revenue across all subscriptions.
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  statistics.Overview
// @Failure      500  {object}  response.Err
// @Router       /api/v1/admin/subscription/overview [get]
func ApiSubscriptionOverview(stats *statistics.Service, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := stats.Overview(c.Request.Context())
		if err != nil {
			logctx.FromGin(c, log).Errorw("admin_overview_failed", "error", err.Error())
			c.JSON(http.StatusInternalServerError, response.ErrorWithDetails("failed to load overview", err.Error()))
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// @Summary      Daily Subscription Statistics (Admin)
// @Description  Buckets new subscriptions and revenue by creation day within the requested range.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body statistics.DailyRequest true "Statistic request with range and filters"
// @Success      200  {array}  statistics.DailyItem
// @Failure      500  {object}  response.Err
// @Router       /api/v1/admin/subscription/daily [post]
func ApiSubscriptionDaily(stats *statistics.Service, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.DailyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(err.Error()))
			return
		}
		res, err := stats.Daily(c.Request.Context(), &req)
		if err != nil {
			logctx.FromGin(c, log).Errorw("admin_daily_failed", "error", err.Error())
			c.JSON(http.StatusInternalServerError, response.ErrorWithDetails("failed to load daily statistics", err.Error()))
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func RegisterAdminRoutes(r gin.IRouter, store subscription.Store, stats *statistics.Service, log *zap.SugaredLogger) {
	r.POST("/subscription/list", ApiListSubscriptions(store, log))
	r.GET("/subscription/overview", ApiSubscriptionOverview(stats, log))
	r.POST("/subscription/daily", ApiSubscriptionDaily(stats, log))
}
