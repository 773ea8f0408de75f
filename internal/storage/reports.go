package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/mmex-tools/mmexplore/internal/common"
	"github.com/mmex-tools/mmexplore/internal/model"
)

// Report row types. Each is an immutable snapshot suitable for
// caching.

// CategorySpend is total withdrawals for one category.
type CategorySpend struct {
	Category string
	Total    float64
	Count    int64
}

// MonthlySpend is total withdrawals for one calendar month.
type MonthlySpend struct {
	Month string // YYYY-MM
	Total float64
}

// MonthlyFlow is income and expenses for one calendar month.
type MonthlyFlow struct {
	Month    string // YYYY-MM
	Income   float64
	Expenses float64
}

// PayeeSpend is total withdrawals for one payee.
type PayeeSpend struct {
	Payee string
	Total float64
	Count int64
}

// CashflowPoint is one month's net flow with the running cumulative.
type CashflowPoint struct {
	Month      string // YYYY-MM
	Net        float64
	Cumulative float64
}

// SummaryStats aggregates the filtered window into headline numbers.
type SummaryStats struct {
	FirstDate      string
	LastDate       string
	Count          int64
	TotalIncome    float64
	TotalExpenses  float64
	Net            float64
	AverageAmount  float64
	LargestExpense float64
	LargestIncome  float64
}

var monthExpr = goqu.L("strftime('%Y-%m', t.TRANSDATE)")

// SpendingByCategory sums withdrawals per category over the filter's
// window, largest first, at most limit rows.
func (s *Store) SpendingByCategory(ctx context.Context, f model.Filter, limit int) ([]CategorySpend, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	preds, err := basePredicates(f)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	categ := goqu.L("COALESCE(c.CATEGNAME, 'Uncategorized')")
	query, args, err := s.dialect.From(transactionTable).
		LeftJoin(categoryTable, goqu.On(goqu.I("c.CATEGID").Eq(goqu.I("t.CATEGID")))).
		Select(
			categ.As("category"),
			goqu.SUM(colTransAmount).As("total"),
			goqu.COUNT(goqu.Star()).As("cnt"),
		).
		Where(append(preds, colTransCode.Eq(model.TypeWithdrawal))...).
		GroupBy(categ).
		Order(goqu.I("total").Desc()).
		Limit(uint(limit)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("%w: building category report: %v", common.ErrQueryFailed, err)
	}

	var series []CategorySpend
	err = s.withConn(ctx, func(conn *sql.Conn) error {
		rows, queryErr := conn.QueryContext(ctx, query, args...)
		if queryErr != nil {
			return fmt.Errorf("%w: category report: %v", common.ErrQueryFailed, queryErr)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var row CategorySpend
			if scanErr := rows.Scan(&row.Category, &row.Total, &row.Count); scanErr != nil {
				return fmt.Errorf("%w: scanning category report: %v", common.ErrQueryFailed, scanErr)
			}
			series = append(series, row)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return series, nil
}

// SpendingOverTime sums withdrawals per calendar month.
func (s *Store) SpendingOverTime(ctx context.Context, f model.Filter) ([]MonthlySpend, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	preds, err := basePredicates(f)
	if err != nil {
		return nil, err
	}

	query, args, err := s.dialect.From(transactionTable).
		Select(
			monthExpr.As("month"),
			goqu.SUM(colTransAmount).As("total"),
		).
		Where(append(preds, colTransCode.Eq(model.TypeWithdrawal))...).
		GroupBy(monthExpr).
		Order(goqu.I("month").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("%w: building spending report: %v", common.ErrQueryFailed, err)
	}

	var series []MonthlySpend
	err = s.withConn(ctx, func(conn *sql.Conn) error {
		rows, queryErr := conn.QueryContext(ctx, query, args...)
		if queryErr != nil {
			return fmt.Errorf("%w: spending report: %v", common.ErrQueryFailed, queryErr)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var row MonthlySpend
			if scanErr := rows.Scan(&row.Month, &row.Total); scanErr != nil {
				return fmt.Errorf("%w: scanning spending report: %v", common.ErrQueryFailed, scanErr)
			}
			series = append(series, row)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return series, nil
}

// IncomeVsExpenses returns deposits and withdrawals per calendar
// month. Transfers contribute to neither side.
func (s *Store) IncomeVsExpenses(ctx context.Context, f model.Filter) ([]MonthlyFlow, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	preds, err := basePredicates(f)
	if err != nil {
		return nil, err
	}

	query, args, err := s.dialect.From(transactionTable).
		Select(
			monthExpr.As("month"),
			goqu.L("COALESCE(SUM(CASE WHEN t.TRANSCODE = 'Deposit' THEN t.TRANSAMOUNT ELSE 0 END), 0)").As("income"),
			goqu.L("COALESCE(SUM(CASE WHEN t.TRANSCODE = 'Withdrawal' THEN t.TRANSAMOUNT ELSE 0 END), 0)").As("expenses"),
		).
		Where(preds...).
		GroupBy(monthExpr).
		Order(goqu.I("month").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("%w: building income report: %v", common.ErrQueryFailed, err)
	}

	var series []MonthlyFlow
	err = s.withConn(ctx, func(conn *sql.Conn) error {
		rows, queryErr := conn.QueryContext(ctx, query, args...)
		if queryErr != nil {
			return fmt.Errorf("%w: income report: %v", common.ErrQueryFailed, queryErr)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var row MonthlyFlow
			if scanErr := rows.Scan(&row.Month, &row.Income, &row.Expenses); scanErr != nil {
				return fmt.Errorf("%w: scanning income report: %v", common.ErrQueryFailed, scanErr)
			}
			series = append(series, row)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return series, nil
}

// TopPayees sums withdrawals per payee, largest first, at most limit
// rows.
func (s *Store) TopPayees(ctx context.Context, f model.Filter, limit int) ([]PayeeSpend, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	preds, err := basePredicates(f)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	payee := goqu.L("COALESCE(p.PAYEENAME, 'Unknown')")
	query, args, err := s.dialect.From(transactionTable).
		LeftJoin(payeeTable, goqu.On(goqu.I("p.PAYEEID").Eq(goqu.I("t.PAYEEID")))).
		Select(
			payee.As("payee"),
			goqu.SUM(colTransAmount).As("total"),
			goqu.COUNT(goqu.Star()).As("cnt"),
		).
		Where(append(preds, colTransCode.Eq(model.TypeWithdrawal))...).
		GroupBy(payee).
		Order(goqu.I("total").Desc()).
		Limit(uint(limit)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("%w: building payee report: %v", common.ErrQueryFailed, err)
	}

	var series []PayeeSpend
	err = s.withConn(ctx, func(conn *sql.Conn) error {
		rows, queryErr := conn.QueryContext(ctx, query, args...)
		if queryErr != nil {
			return fmt.Errorf("%w: payee report: %v", common.ErrQueryFailed, queryErr)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var row PayeeSpend
			if scanErr := rows.Scan(&row.Payee, &row.Total, &row.Count); scanErr != nil {
				return fmt.Errorf("%w: scanning payee report: %v", common.ErrQueryFailed, scanErr)
			}
			series = append(series, row)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return series, nil
}

// Cashflow derives monthly net flow from IncomeVsExpenses and adds a
// running cumulative.
func (s *Store) Cashflow(ctx context.Context, f model.Filter) ([]CashflowPoint, error) {
	flows, err := s.IncomeVsExpenses(ctx, f)
	if err != nil {
		return nil, err
	}

	points := make([]CashflowPoint, 0, len(flows))
	var cumulative float64
	for _, flow := range flows {
		net := flow.Income - flow.Expenses
		cumulative += net
		points = append(points, CashflowPoint{
			Month:      flow.Month,
			Net:        net,
			Cumulative: cumulative,
		})
	}
	return points, nil
}

// Summary aggregates the filtered window into headline statistics.
func (s *Store) Summary(ctx context.Context, f model.Filter) (SummaryStats, error) {
	var stats SummaryStats

	if err := validateContext(ctx); err != nil {
		return stats, err
	}
	preds, err := basePredicates(f)
	if err != nil {
		return stats, err
	}

	query, args, err := s.dialect.From(transactionTable).
		Select(
			goqu.COUNT(goqu.Star()),
			goqu.L("COALESCE(SUM(CASE WHEN t.TRANSCODE = 'Deposit' THEN t.TRANSAMOUNT ELSE 0 END), 0)"),
			goqu.L("COALESCE(SUM(CASE WHEN t.TRANSCODE = 'Withdrawal' THEN t.TRANSAMOUNT ELSE 0 END), 0)"),
			goqu.L("COALESCE(AVG(t.TRANSAMOUNT), 0)"),
			goqu.L("COALESCE(MAX(CASE WHEN t.TRANSCODE = 'Withdrawal' THEN t.TRANSAMOUNT END), 0)"),
			goqu.L("COALESCE(MAX(CASE WHEN t.TRANSCODE = 'Deposit' THEN t.TRANSAMOUNT END), 0)"),
			goqu.MIN(colTransDate),
			goqu.MAX(colTransDate),
		).
		Where(preds...).
		Prepared(true).ToSQL()
	if err != nil {
		return stats, fmt.Errorf("%w: building summary: %v", common.ErrQueryFailed, err)
	}

	err = s.withConn(ctx, func(conn *sql.Conn) error {
		var first, last sql.NullString
		if scanErr := conn.QueryRowContext(ctx, query, args...).Scan(
			&stats.Count,
			&stats.TotalIncome,
			&stats.TotalExpenses,
			&stats.AverageAmount,
			&stats.LargestExpense,
			&stats.LargestIncome,
			&first,
			&last,
		); scanErr != nil {
			return fmt.Errorf("%w: summary: %v", common.ErrQueryFailed, scanErr)
		}
		stats.FirstDate = first.String
		stats.LastDate = last.String
		return nil
	})
	if err != nil {
		return stats, err
	}

	stats.Net = stats.TotalIncome - stats.TotalExpenses
	return stats, nil
}
