package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmex-tools/mmexplore/internal/common"
	"github.com/mmex-tools/mmexplore/internal/config"
	"github.com/mmex-tools/mmexplore/internal/model"
	"github.com/mmex-tools/mmexplore/internal/storage"
)

// openStore loads configuration, opens the database pool and returns a
// store plus a cleanup func. The caller defers cleanup.
func openStore(ctx context.Context) (*storage.Store, config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, cfg, nil, err
	}

	pool := storage.NewPool(cfg.MaxConnections)
	if err := pool.Initialize(ctx, cfg.DatabasePath); err != nil {
		return nil, cfg, nil, common.NewUserError(
			fmt.Sprintf("cannot open database %s", cfg.DatabasePath), err)
	}

	cleanup := func() {
		if closeErr := pool.CloseAll(context.Background()); closeErr != nil {
			slog.Warn("failed to close connection pool", "error", closeErr)
		}
	}
	return storage.NewStore(pool), cfg, cleanup, nil
}

// filterFlags collects the query flags shared by the transactions,
// report, export and watch commands.
type filterFlags struct {
	startDate  string
	endDate    string
	search     string
	filterType string
	sortField  string
	account    int64
	days       int
	ascending  bool
	allDates   bool
}

func (ff *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ff.startDate, "start", "", "start date (YYYY-MM-DD, inclusive)")
	cmd.Flags().StringVar(&ff.endDate, "end", "", "end date (YYYY-MM-DD, inclusive)")
	cmd.Flags().IntVar(&ff.days, "days", 0, "shorthand for --start: the last N days")
	cmd.Flags().Int64Var(&ff.account, "account", 0, "restrict to one account id (0 = all)")
	cmd.Flags().StringVar(&ff.search, "search", "", "search text")
	cmd.Flags().StringVar(&ff.filterType, "filter-type", "all", "columns to search (all, account, payee, category, notes, tags)")
	cmd.Flags().StringVar(&ff.sortField, "sort", "date", "sort column (date, amount, payee, account, category)")
	cmd.Flags().BoolVar(&ff.ascending, "asc", false, "sort ascending instead of descending")
	cmd.Flags().BoolVar(&ff.allDates, "all", false, "ignore the default date window and show all dates")
}

// build turns the flags into a Filter. When no explicit window is
// given, defaultDays (if positive) becomes the start bound.
func (ff *filterFlags) build(defaultDays int) (model.Filter, error) {
	f := model.DefaultFilter()
	f.StartDate = ff.startDate
	f.EndDate = ff.endDate
	f.AccountID = ff.account
	f.SearchText = ff.search
	f.SortDesc = !ff.ascending

	if ff.days > 0 {
		f.StartDate = time.Now().AddDate(0, 0, -ff.days).Format("2006-01-02")
	} else if !ff.allDates && f.StartDate == "" && f.EndDate == "" && defaultDays > 0 {
		f.StartDate = time.Now().AddDate(0, 0, -defaultDays).Format("2006-01-02")
	}

	ft := model.FilterType(ff.filterType)
	if !ft.Valid() {
		return f, fmt.Errorf("unknown filter type %q", ff.filterType)
	}
	f.FilterType = ft

	sf := model.SortField(ff.sortField)
	if !sf.Valid() {
		return f, fmt.Errorf("unknown sort column %q", ff.sortField)
	}
	f.Sort = sf

	return f, nil
}

// formatAmount renders an amount with two decimals and a sign.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
