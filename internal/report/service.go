// Package report serves aggregate series over the transaction store,
// memoizing each (report kind, filter) pair so that redrawing a chart
// under an unchanged filter costs nothing.
package report

import (
	"context"
	"fmt"

	"github.com/mmex-tools/mmexplore/internal/cache"
	"github.com/mmex-tools/mmexplore/internal/model"
	"github.com/mmex-tools/mmexplore/internal/storage"
)

// Report kinds, also used as the async slot prefix for chart loads.
const (
	KindCategories = "categories"
	KindSpending   = "spending"
	KindIncome     = "income"
	KindPayees     = "payees"
	KindCashflow   = "cashflow"
	KindSummary    = "summary"
)

// Service answers report queries, consulting the cache before the
// store. Cached series are treated as immutable; callers must not
// modify returned slices.
type Service struct {
	store *storage.Store
	cache *cache.Cache
}

// NewService wraps store with the given result cache. A nil cache
// disables memoization.
func NewService(store *storage.Store, c *cache.Cache) *Service {
	return &Service{store: store, cache: c}
}

// SpendingByCategory returns per-category withdrawal totals, largest
// first, at most limit rows.
func (s *Service) SpendingByCategory(ctx context.Context, f model.Filter, limit int) ([]storage.CategorySpend, error) {
	key := f.Fingerprint("report:"+KindCategories, fmt.Sprintf("%d", limit))
	if hit, ok := s.lookup(key); ok {
		return hit.([]storage.CategorySpend), nil
	}
	series, err := s.store.SpendingByCategory(ctx, f, limit)
	if err != nil {
		return nil, err
	}
	s.remember(key, series)
	return series, nil
}

// SpendingOverTime returns per-month withdrawal totals.
func (s *Service) SpendingOverTime(ctx context.Context, f model.Filter) ([]storage.MonthlySpend, error) {
	key := f.Fingerprint("report:" + KindSpending)
	if hit, ok := s.lookup(key); ok {
		return hit.([]storage.MonthlySpend), nil
	}
	series, err := s.store.SpendingOverTime(ctx, f)
	if err != nil {
		return nil, err
	}
	s.remember(key, series)
	return series, nil
}

// IncomeVsExpenses returns per-month deposit and withdrawal totals.
func (s *Service) IncomeVsExpenses(ctx context.Context, f model.Filter) ([]storage.MonthlyFlow, error) {
	key := f.Fingerprint("report:" + KindIncome)
	if hit, ok := s.lookup(key); ok {
		return hit.([]storage.MonthlyFlow), nil
	}
	series, err := s.store.IncomeVsExpenses(ctx, f)
	if err != nil {
		return nil, err
	}
	s.remember(key, series)
	return series, nil
}

// TopPayees returns per-payee withdrawal totals, largest first, at
// most limit rows.
func (s *Service) TopPayees(ctx context.Context, f model.Filter, limit int) ([]storage.PayeeSpend, error) {
	key := f.Fingerprint("report:"+KindPayees, fmt.Sprintf("%d", limit))
	if hit, ok := s.lookup(key); ok {
		return hit.([]storage.PayeeSpend), nil
	}
	series, err := s.store.TopPayees(ctx, f, limit)
	if err != nil {
		return nil, err
	}
	s.remember(key, series)
	return series, nil
}

// Cashflow returns monthly net flow with a running cumulative.
func (s *Service) Cashflow(ctx context.Context, f model.Filter) ([]storage.CashflowPoint, error) {
	key := f.Fingerprint("report:" + KindCashflow)
	if hit, ok := s.lookup(key); ok {
		return hit.([]storage.CashflowPoint), nil
	}
	points, err := s.store.Cashflow(ctx, f)
	if err != nil {
		return nil, err
	}
	s.remember(key, points)
	return points, nil
}

// Summary returns headline statistics for the filtered window.
func (s *Service) Summary(ctx context.Context, f model.Filter) (storage.SummaryStats, error) {
	key := f.Fingerprint("report:" + KindSummary)
	if hit, ok := s.lookup(key); ok {
		return hit.(storage.SummaryStats), nil
	}
	stats, err := s.store.Summary(ctx, f)
	if err != nil {
		return storage.SummaryStats{}, err
	}
	s.remember(key, stats)
	return stats, nil
}

// Invalidate drops every memoized series, forcing the next request of
// each kind back to the store.
func (s *Service) Invalidate() {
	if s.cache != nil {
		s.cache.Clear()
	}
}

func (s *Service) lookup(key string) (any, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(key)
}

func (s *Service) remember(key string, value any) {
	if s.cache != nil {
		s.cache.Set(key, value)
	}
}
