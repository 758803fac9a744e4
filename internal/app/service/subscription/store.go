package subscription

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tradelab/billing/internal/models"
	"github.com/tradelab/billing/pkg/logctx"
	"github.com/tradelab/billing/pkg/tool"
	"github.com/tradelab/billing/pkg/types"
)

// ErrNotFound is returned when no subscription row matches a lookup.
var ErrNotFound = errors.New("subscription not found")

// Store abstracts subscription persistence so the reconciler and the billing
// orchestrator can run against test doubles.
type Store interface {
	Create(ctx context.Context, sub *models.Subscription) error
	FindByOrderID(ctx context.Context, orderID string) (*models.Subscription, error)
	FindBySubscriptionID(ctx context.Context, subscriptionID string) (*models.Subscription, error)
	// Save persists a mutated row and writes a change-log entry carrying the
	// mutation reason and optional context.
	Save(ctx context.Context, sub *models.Subscription, reason types.SubscriptionChangeReason, extra map[string]any) error
	Scan(ctx context.Context, req *ScanRequest) (*ScanResponse, error)
}

// ScanRequest is an admin listing query.
type ScanRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanResponse struct {
	Items []*models.Subscription `json:"items"`
	Total int64                  `json:"total"`
}

type gormStore struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewStore(db *gorm.DB, log *zap.SugaredLogger) Store {
	return &gormStore{db: db, log: log}
}

func (s *gormStore) Create(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == "" {
		sub.ID = tool.GenerateUUIDV7()
	}
	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	s.writeLog(ctx, nil, sub, types.SubscriptionChangeReasonCheckout, nil)
	return nil
}

func (s *gormStore) FindByOrderID(ctx context.Context, orderID string) (*models.Subscription, error) {
	return s.findOne(ctx, "razorpay_order_id = ?", orderID)
}

func (s *gormStore) FindBySubscriptionID(ctx context.Context, subscriptionID string) (*models.Subscription, error) {
	return s.findOne(ctx, "razorpay_subscription_id = ?", subscriptionID)
}

func (s *gormStore) findOne(ctx context.Context, query string, arg any) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).Where(query, arg).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	return &sub, nil
}

func (s *gormStore) Save(ctx context.Context, sub *models.Subscription, reason types.SubscriptionChangeReason, extra map[string]any) error {
	var original models.Subscription
	var before *models.Subscription
	err := s.db.WithContext(ctx).Where("id = ?", sub.ID).First(&original).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to load original subscription: %w", err)
	}
	if err == nil {
		cp := original
		before = &cp
		sub.CreatedAt = original.CreatedAt
	}

	if err := s.db.WithContext(ctx).Save(sub).Error; err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	s.writeLog(ctx, before, sub, reason, extra)
	return nil
}

// writeLog records the change asynchronously; errors are logged, not returned.
func (s *gormStore) writeLog(ctx context.Context, before, after *models.Subscription, reason types.SubscriptionChangeReason, extra map[string]any) {
	go func() {
		entry := &models.SubscriptionLog{
			ID:     tool.GenerateUUIDV7(),
			UserID: after.UserID,
			Reason: reason,
			Before: datatypes.NewJSONType(before),
			After:  datatypes.NewJSONType(after),
			Extra:  datatypes.JSONMap(extra),
		}
		if entry.Extra == nil {
			entry.Extra = datatypes.JSONMap{}
		}
		if err := s.db.Save(entry).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save subscription log: %v", err)
		}
	}()
}

func (s *gormStore) Scan(ctx context.Context, req *ScanRequest) (*ScanResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if req.Size <= 0 {
		req.Size = 10
	}
	if req.From < 0 {
		req.From = 0
	}

	tx := s.db.WithContext(ctx).Model(&models.Subscription{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{filtersAnd{filters: req.Filters}}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	q := tx.Limit(req.Size)
	if req.From > 0 {
		q = q.Offset(req.From)
	}
	if req.SortBy != "" {
		q = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: req.SortBy}, Desc: req.SortOrder != "asc"}}})
	}

	var rows []*models.Subscription
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return &ScanResponse{Items: rows, Total: total}, nil
}

// filtersAnd combines multiple CommonFilter into a single clause.Expression.
type filtersAnd struct{ filters []*types.CommonFilter }

func (w filtersAnd) Build(builder clause.Builder) {
	if len(w.filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	exprs := make([]clause.Expression, 0, len(w.filters))
	for _, f := range w.filters {
		exprs = append(exprs, f)
	}
	clause.And(exprs...).Build(builder)
}
