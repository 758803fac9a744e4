package statistics

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tradelab/billing/internal/models"
	"github.com/tradelab/billing/pkg/types"
)

// filterableFields are the subscription columns admin statistics may filter
// by; anything else is rejected before touching the store.
var filterableFields = []string{"status", "plan_type", "currency", "auto_renew", "user_id"}

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

type Overview struct {
	TotalSubscriptions int64            `json:"total_subscriptions"`
	ActiveCount        int64            `json:"active_count"`
	AutoRenewCount     int64            `json:"auto_renew_count"`
	ByStatus           map[string]int64 `json:"by_status"`
	ByPlan             map[string]int64 `json:"by_plan"`
	// Revenue sums the major-unit amounts of rows that have been paid at
	// least once (active or completed).
	Revenue float64 `json:"revenue"`
}

type DailyRequest struct {
	From    time.Time             `json:"from"`
	To      time.Time             `json:"to"`
	Filters []*types.CommonFilter `json:"filters"`
}

// ValidateFilters rejects filters on non-whitelisted fields.
func (r *DailyRequest) ValidateFilters() error {
	for _, f := range r.Filters {
		if !lo.Contains(filterableFields, f.Field) {
			return fmt.Errorf("unsupported filter field: %s", f.Field)
		}
	}
	return nil
}

type DailyItem struct {
	Date             string  `json:"date"`
	NewSubscriptions int64   `json:"new_subscriptions"`
	Revenue          float64 `json:"revenue"`
}

type statusCount struct {
	Status string
	Count  int64
}

type planCount struct {
	PlanType string
	Count    int64
}

func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	out := &Overview{ByStatus: map[string]int64{}, ByPlan: map[string]int64{}}

	model := func() *gorm.DB { return s.db.WithContext(ctx).Model(&models.Subscription{}) }

	if err := model().Count(&out.TotalSubscriptions).Error; err != nil {
		return nil, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	var byStatus []statusCount
	if err := model().Select("status, count(*) as count").Group("status").Scan(&byStatus).Error; err != nil {
		return nil, fmt.Errorf("failed to group by status: %w", err)
	}
	for _, row := range byStatus {
		out.ByStatus[row.Status] = row.Count
	}
	out.ActiveCount = out.ByStatus[string(types.SubscriptionStatusActive)]

	var byPlan []planCount
	if err := model().Select("plan_type, count(*) as count").Group("plan_type").Scan(&byPlan).Error; err != nil {
		return nil, fmt.Errorf("failed to group by plan: %w", err)
	}
	for _, row := range byPlan {
		out.ByPlan[row.PlanType] = row.Count
	}

	if err := model().Where("auto_renew = ?", true).Count(&out.AutoRenewCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count auto-renew: %w", err)
	}

	var revenue *float64
	err := model().
		Where("status IN ?", []string{string(types.SubscriptionStatusActive), string(types.SubscriptionStatusCompleted)}).
		Select("sum(amount)").Scan(&revenue).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	if revenue != nil {
		out.Revenue = *revenue
	}
	return out, nil
}

// Daily buckets new subscriptions and their revenue by creation day.
func (s *Service) Daily(ctx context.Context, req *DailyRequest) ([]*DailyItem, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if err := req.ValidateFilters(); err != nil {
		return nil, err
	}
	if req.To.IsZero() {
		req.To = time.Now()
	}
	if req.From.IsZero() {
		req.From = req.To.AddDate(0, -1, 0)
	}

	q := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Select("to_char(created_at, 'YYYY-MM-DD') as date, count(*) as new_subscriptions, coalesce(sum(amount), 0) as revenue").
		Where("created_at >= ? AND created_at < ?", req.From, req.To).
		Group("date").Order("date")

	if len(req.Filters) > 0 {
		q = q.Where(clause.Where{Exprs: []clause.Expression{statisticFilters{filters: req.Filters}}})
	}

	var items []*DailyItem
	if err := q.Scan(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to load daily statistics: %w", err)
	}
	return items, nil
}

// statisticFilters AND-combines common filters.
type statisticFilters struct{ filters []*types.CommonFilter }

func (w statisticFilters) Build(builder clause.Builder) {
	if len(w.filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	for i, f := range w.filters {
		if i > 0 {
			builder.WriteString(" AND ")
		}
		f.Build(builder)
	}
}

// Module exposes the statistics service via Fx.
var Module = fx.Options(
	fx.Provide(New),
)
