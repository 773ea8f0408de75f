package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmex-tools/mmexplore/internal/cache"
	"github.com/mmex-tools/mmexplore/internal/cli"
	"github.com/mmex-tools/mmexplore/internal/config"
	"github.com/mmex-tools/mmexplore/internal/report"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run spending reports",
		Long:  `Aggregate the filtered transactions into spending, income and payee reports.`,
	}

	cmd.AddCommand(reportCategoriesCmd())
	cmd.AddCommand(reportSpendingCmd())
	cmd.AddCommand(reportIncomeCmd())
	cmd.AddCommand(reportPayeesCmd())
	cmd.AddCommand(reportCashflowCmd())
	cmd.AddCommand(reportSummaryCmd())

	return cmd
}

// openReportService wires a store and a result cache into the report
// service. The cache only matters for the watch loop, where the same
// report redraws repeatedly; one-shot commands pay one query either way.
func openReportService(ctx context.Context) (*report.Service, config.Config, func(), error) {
	store, cfg, cleanup, err := openStore(ctx)
	if err != nil {
		return nil, cfg, nil, err
	}

	c := cache.New(cfg.CacheSize, cfg.CacheTTL)
	svc := report.NewService(store, c)
	return svc, cfg, func() {
		c.Close()
		cleanup()
	}, nil
}

func reportCategoriesCmd() *cobra.Command {
	var (
		ff    filterFlags
		limit int
	)

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Spending by category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, cfg, cleanup, err := openReportService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			f, err := ff.build(cfg.DefaultRangeDays)
			if err != nil {
				return err
			}

			series, err := svc.SpendingByCategory(ctx, f, limit)
			if err != nil {
				return fmt.Errorf("failed to build category report: %w", err)
			}
			if len(series) == 0 {
				fmt.Println(cli.InfoStyle.Render("No spending in the selected window."))
				return nil
			}

			fmt.Println(cli.FormatTitle("Spending by category"))
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("Category"),
				cli.TableHeaderStyle.Render("Total"),
				cli.TableHeaderStyle.Render("Transactions"))
			for _, row := range series {
				fmt.Fprintf(w, "%s\t%s\t%d\n",
					row.Category, cli.FormatAmount(formatAmount(row.Total), true), row.Count)
			}
			return w.Flush()
		},
	}

	ff.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", 10, "show at most this many categories")
	return cmd
}

func reportSpendingCmd() *cobra.Command {
	var ff filterFlags

	cmd := &cobra.Command{
		Use:   "spending",
		Short: "Spending over time, by month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, cfg, cleanup, err := openReportService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			f, err := ff.build(cfg.DefaultRangeDays)
			if err != nil {
				return err
			}

			series, err := svc.SpendingOverTime(ctx, f)
			if err != nil {
				return fmt.Errorf("failed to build spending report: %w", err)
			}
			if len(series) == 0 {
				fmt.Println(cli.InfoStyle.Render("No spending in the selected window."))
				return nil
			}

			fmt.Println(cli.FormatTitle("Monthly spending"))
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\n",
				cli.TableHeaderStyle.Render("Month"),
				cli.TableHeaderStyle.Render("Total"))
			for _, row := range series {
				fmt.Fprintf(w, "%s\t%s\n", row.Month, cli.FormatAmount(formatAmount(row.Total), true))
			}
			return w.Flush()
		},
	}

	ff.register(cmd)
	return cmd
}

func reportIncomeCmd() *cobra.Command {
	var ff filterFlags

	cmd := &cobra.Command{
		Use:   "income",
		Short: "Income versus expenses, by month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, cfg, cleanup, err := openReportService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			f, err := ff.build(cfg.DefaultRangeDays)
			if err != nil {
				return err
			}

			series, err := svc.IncomeVsExpenses(ctx, f)
			if err != nil {
				return fmt.Errorf("failed to build income report: %w", err)
			}
			if len(series) == 0 {
				fmt.Println(cli.InfoStyle.Render("No activity in the selected window."))
				return nil
			}

			fmt.Println(cli.FormatTitle("Income vs expenses"))
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("Month"),
				cli.TableHeaderStyle.Render("Income"),
				cli.TableHeaderStyle.Render("Expenses"),
				cli.TableHeaderStyle.Render("Net"))
			for _, row := range series {
				net := row.Income - row.Expenses
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					row.Month,
					cli.FormatAmount(formatAmount(row.Income), false),
					cli.FormatAmount(formatAmount(row.Expenses), true),
					cli.FormatAmount(formatAmount(net), net < 0))
			}
			return w.Flush()
		},
	}

	ff.register(cmd)
	return cmd
}

func reportPayeesCmd() *cobra.Command {
	var (
		ff    filterFlags
		limit int
	)

	cmd := &cobra.Command{
		Use:   "payees",
		Short: "Top payees by spending",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, cfg, cleanup, err := openReportService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			f, err := ff.build(cfg.DefaultRangeDays)
			if err != nil {
				return err
			}

			series, err := svc.TopPayees(ctx, f, limit)
			if err != nil {
				return fmt.Errorf("failed to build payee report: %w", err)
			}
			if len(series) == 0 {
				fmt.Println(cli.InfoStyle.Render("No spending in the selected window."))
				return nil
			}

			fmt.Println(cli.FormatTitle("Top payees"))
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("Payee"),
				cli.TableHeaderStyle.Render("Total"),
				cli.TableHeaderStyle.Render("Transactions"))
			for _, row := range series {
				fmt.Fprintf(w, "%s\t%s\t%d\n",
					row.Payee, cli.FormatAmount(formatAmount(row.Total), true), row.Count)
			}
			return w.Flush()
		},
	}

	ff.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", 10, "show at most this many payees")
	return cmd
}

func reportCashflowCmd() *cobra.Command {
	var ff filterFlags

	cmd := &cobra.Command{
		Use:   "cashflow",
		Short: "Monthly net flow with running total",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, cfg, cleanup, err := openReportService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			f, err := ff.build(cfg.DefaultRangeDays)
			if err != nil {
				return err
			}

			points, err := svc.Cashflow(ctx, f)
			if err != nil {
				return fmt.Errorf("failed to build cashflow report: %w", err)
			}
			if len(points) == 0 {
				fmt.Println(cli.InfoStyle.Render("No activity in the selected window."))
				return nil
			}

			fmt.Println(cli.FormatTitle("Cashflow"))
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("Month"),
				cli.TableHeaderStyle.Render("Net"),
				cli.TableHeaderStyle.Render("Cumulative"))
			for _, point := range points {
				fmt.Fprintf(w, "%s\t%s\t%s\n",
					point.Month,
					cli.FormatAmount(formatAmount(point.Net), point.Net < 0),
					cli.FormatAmount(formatAmount(point.Cumulative), point.Cumulative < 0))
			}
			return w.Flush()
		},
	}

	ff.register(cmd)
	return cmd
}

func reportSummaryCmd() *cobra.Command {
	var ff filterFlags

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Headline statistics for the window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, cfg, cleanup, err := openReportService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			f, err := ff.build(cfg.DefaultRangeDays)
			if err != nil {
				return err
			}

			stats, err := svc.Summary(ctx, f)
			if err != nil {
				return fmt.Errorf("failed to build summary: %w", err)
			}
			if stats.Count == 0 {
				fmt.Println(cli.InfoStyle.Render("No activity in the selected window."))
				return nil
			}

			content := fmt.Sprintf(
				"Transactions: %d\nSpan: %s to %s\nIncome: %s\nExpenses: %s\nNet: %s\nAverage amount: %s\nLargest expense: %s\nLargest income: %s",
				stats.Count,
				stats.FirstDate, stats.LastDate,
				cli.FormatAmount(formatAmount(stats.TotalIncome), false),
				cli.FormatAmount(formatAmount(stats.TotalExpenses), true),
				cli.FormatAmount(formatAmount(stats.Net), stats.Net < 0),
				formatAmount(stats.AverageAmount),
				formatAmount(stats.LargestExpense),
				formatAmount(stats.LargestIncome),
			)
			fmt.Println(cli.RenderBox("Summary", content))
			return nil
		},
	}

	ff.register(cmd)
	return cmd
}
