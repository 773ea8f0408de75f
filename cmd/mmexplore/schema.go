package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmex-tools/mmexplore/internal/cli"
)

func schemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Explore the database schema",
		Long:  `List tables, describe their columns, and peek at sample rows.`,
	}

	cmd.AddCommand(schemaTablesCmd())
	cmd.AddCommand(schemaInfoCmd())
	cmd.AddCommand(schemaSampleCmd())

	return cmd
}

func schemaTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables with row counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, _, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			stats, err := store.ListTables(ctx)
			if err != nil {
				return fmt.Errorf("failed to list tables: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\n",
				cli.TableHeaderStyle.Render("Table"),
				cli.TableHeaderStyle.Render("Rows"))
			for _, stat := range stats {
				fmt.Fprintf(w, "%s\t%d\n", stat.Name, stat.RowCount)
			}
			return w.Flush()
		},
	}
}

func schemaInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <table>",
		Short: "Describe a table's columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			table := args[0]

			store, _, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			columns, err := store.TableInfo(ctx, table)
			if err != nil {
				return fmt.Errorf("failed to describe %q: %w", table, err)
			}

			fmt.Println(cli.FormatTitle(table))
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("Column"),
				cli.TableHeaderStyle.Render("Type"),
				cli.TableHeaderStyle.Render("Null"),
				cli.TableHeaderStyle.Render("Default"),
				cli.TableHeaderStyle.Render("Key"))
			for _, col := range columns {
				null := "YES"
				if col.NotNull {
					null = "NO"
				}
				key := ""
				if col.PrimaryKey {
					key = "PK"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					col.Name, col.Type, null, col.DefaultValue, key)
			}
			return w.Flush()
		},
	}
}

func schemaSampleCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sample <table>",
		Short: "Show sample rows from a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			table := args[0]

			store, _, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			columns, rows, err := store.SampleRows(ctx, table, limit)
			if err != nil {
				return fmt.Errorf("failed to sample %q: %w", table, err)
			}
			if len(rows) == 0 {
				fmt.Println(cli.InfoStyle.Render("Table is empty."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for i, col := range columns {
				if i > 0 {
					fmt.Fprint(w, "\t")
				}
				fmt.Fprint(w, cli.TableHeaderStyle.Render(col))
			}
			fmt.Fprintln(w)
			for _, row := range rows {
				for i, cell := range row {
					if i > 0 {
						fmt.Fprint(w, "\t")
					}
					fmt.Fprint(w, cell)
				}
				fmt.Fprintln(w)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 5, "number of rows to show")
	return cmd
}
