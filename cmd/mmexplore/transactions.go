package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmex-tools/mmexplore/internal/cli"
	"github.com/mmex-tools/mmexplore/internal/model"
	"github.com/mmex-tools/mmexplore/internal/paging"
)

func transactionsCmd() *cobra.Command {
	var (
		ff       filterFlags
		page     int
		pageSize int
	)

	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "Page through transactions",
		Long: `Display one page of transactions matching the filter, with a footer
showing the position within the full result set.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, cfg, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			f, err := ff.build(cfg.DefaultRangeDays)
			if err != nil {
				return err
			}
			if pageSize <= 0 {
				pageSize = cfg.PageSize
			}

			count, err := store.CountTransactions(ctx, f)
			if err != nil {
				return fmt.Errorf("failed to count transactions: %w", err)
			}

			info := paging.New(count, pageSize, page)
			if total := info.TotalPages(); total > 0 && info.CurrentPage > total {
				info = paging.New(count, pageSize, total)
			}

			rows, err := store.FetchTransactionPage(ctx, f, info.CurrentPage, pageSize)
			if err != nil {
				return fmt.Errorf("failed to fetch transactions: %w", err)
			}

			printTransactionPage(rows, info)
			return nil
		},
	}

	ff.register(cmd)
	cmd.Flags().IntVar(&page, "page", 1, "page number (1-based)")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "rows per page (default from config)")
	return cmd
}

func printTransactionPage(rows []model.Transaction, info paging.Info) {
	if len(rows) == 0 {
		fmt.Println(cli.InfoStyle.Render(info.PageInfoText()))
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		cli.TableHeaderStyle.Render("Date"),
		cli.TableHeaderStyle.Render("Account"),
		cli.TableHeaderStyle.Render("Payee"),
		cli.TableHeaderStyle.Render("Category"),
		cli.TableHeaderStyle.Render("Tags"),
		cli.TableHeaderStyle.Render("Amount"),
		cli.TableHeaderStyle.Render("Notes"))

	for i := range rows {
		txn := &rows[i]
		amount := txn.SignedAmount()
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			txn.Date.Format("2006-01-02"),
			txn.Account,
			txn.Payee,
			txn.CategoryPath(),
			cli.SubtleStyle.Render(txn.Tags),
			cli.FormatAmount(formatAmount(amount), amount < 0),
			txn.Notes)
	}
	_ = w.Flush()

	fmt.Println()
	fmt.Println(cli.SubtleStyle.Render(info.PageInfoText()))
}
