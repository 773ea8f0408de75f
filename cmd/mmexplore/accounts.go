package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmex-tools/mmexplore/internal/cli"
)

func accountsCmd() *cobra.Command {
	var withBalances bool

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List accounts and balances",
		Long:  `Display every account in the database with its type, status and current balance.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, _, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			accounts, err := store.ListAccounts(ctx)
			if err != nil {
				return fmt.Errorf("failed to list accounts: %w", err)
			}
			if len(accounts) == 0 {
				fmt.Println(cli.InfoStyle.Render("No accounts found."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			if withBalances {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					cli.TableHeaderStyle.Render("ID"),
					cli.TableHeaderStyle.Render("Name"),
					cli.TableHeaderStyle.Render("Type"),
					cli.TableHeaderStyle.Render("Status"),
					cli.TableHeaderStyle.Render("Balance"))
			} else {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					cli.TableHeaderStyle.Render("ID"),
					cli.TableHeaderStyle.Render("Name"),
					cli.TableHeaderStyle.Render("Type"),
					cli.TableHeaderStyle.Render("Status"))
			}

			var total float64
			for _, acct := range accounts {
				status := acct.Status
				if !acct.Open() {
					status = cli.SubtleStyle.Render(status)
				}

				if withBalances {
					balance, balErr := store.AccountBalance(ctx, acct.ID)
					if balErr != nil {
						return fmt.Errorf("failed to compute balance for %q: %w", acct.Name, balErr)
					}
					total += balance
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
						acct.ID, acct.Name, acct.Type, status,
						cli.FormatAmount(formatAmount(balance), balance < 0))
					continue
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", acct.ID, acct.Name, acct.Type, status)
			}

			if withBalances {
				fmt.Fprintf(w, "\t%s\t\t\t%s\n",
					cli.BoldStyle.Render("Total"),
					cli.FormatAmount(formatAmount(total), total < 0))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&withBalances, "balances", true, "compute and show account balances")
	return cmd
}
