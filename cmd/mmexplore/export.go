package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmex-tools/mmexplore/internal/cli"
	"github.com/mmex-tools/mmexplore/internal/export"
)

func exportCmd() *cobra.Command {
	var (
		ff     filterFlags
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export filtered transactions",
		Long: `Write every transaction matching the filter to a file or stdout, as
CSV or JSON. Exports default to the full history, not the default
date window.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, cfg, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			// Exports cover everything unless a window is asked for.
			f, err := ff.build(0)
			if err != nil {
				return err
			}
			if format == "" {
				format = cfg.ExportFormat
			}

			var (
				w        io.Writer = os.Stdout
				progress io.Writer
			)
			if output != "" {
				file, createErr := os.Create(output)
				if createErr != nil {
					return fmt.Errorf("failed to create %q: %w", output, createErr)
				}
				defer func() { _ = file.Close() }()
				w = file
				progress = os.Stderr
			}

			written, err := export.NewExporter(store, progress).Export(ctx, w, f, format)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			if output != "" {
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Exported %d transactions to %s", written, output)))
			}
			return nil
		},
	}

	ff.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "export format: csv or json (default from config)")
	return cmd
}
