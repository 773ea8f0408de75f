package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmex-tools/mmexplore/internal/async"
	"github.com/mmex-tools/mmexplore/internal/browse"
	"github.com/mmex-tools/mmexplore/internal/cli"
	"github.com/mmex-tools/mmexplore/internal/model"
)

func watchCmd() *cobra.Command {
	var ff filterFlags

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Interactively page through transactions",
		Long: `An interactive pager over the transaction list. Commands:

  n             next page
  p             previous page
  g <page>      jump to page
  /<text>       search (empty / clears)
  t <type>      search columns: all, account, payee, category, notes, tags
  a <id>        restrict to account (0 = all)
  r             refresh the current page
  q             quit`,
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

			queue := async.NewQueue(0)
			manager := async.NewManager(queue, cfg.Workers)
			session := browse.NewSession(store, manager, cfg.PageSize)
			session.SetFilter(f)

			return runWatchLoop(ctx, session, queue, os.Stdin)
		},
	}

	ff.register(cmd)
	return cmd
}

// runWatchLoop drives the session from reader until q or EOF. It is
// the queue's owner goroutine: every page callback runs here, between
// prompts.
func runWatchLoop(ctx context.Context, session *browse.Session, queue *async.Queue, reader io.Reader) error {
	onPage := func(p browse.Page) {
		printTransactionPage(p.Rows, p.Info)
	}
	onError := func(err error) {
		fmt.Println(cli.FormatError(err.Error()))
	}

	session.RequestPage(ctx, 1, onPage, onError)
	if !queue.Wait(ctx) {
		return ctx.Err()
	}

	scanner := bufio.NewScanner(reader)
	for {
		fmt.Print(cli.BoldStyle.Render("> "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		issued := true
		switch {
		case line == "q" || line == "quit":
			session.Cancel()
			return nil

		case line == "n":
			if !session.RequestNext(ctx, onPage, onError) {
				fmt.Println(cli.InfoStyle.Render("Already on the last page."))
				issued = false
			}

		case line == "p":
			if !session.RequestPrevious(ctx, onPage, onError) {
				fmt.Println(cli.InfoStyle.Render("Already on the first page."))
				issued = false
			}

		case line == "r":
			session.Refresh(ctx, onPage, onError)

		case strings.HasPrefix(line, "g "):
			page, convErr := strconv.Atoi(strings.TrimSpace(line[2:]))
			if convErr != nil {
				fmt.Println(cli.FormatWarning("usage: g <page>"))
				issued = false
				break
			}
			session.RequestPage(ctx, page, onPage, onError)

		case strings.HasPrefix(line, "/"):
			f := session.Filter()
			f.SearchText = strings.TrimSpace(line[1:])
			session.SetFilter(f)
			session.RequestPage(ctx, 1, onPage, onError)

		case strings.HasPrefix(line, "t "):
			ft := model.FilterType(strings.TrimSpace(line[2:]))
			if !ft.Valid() {
				fmt.Println(cli.FormatWarning("usage: t all|account|payee|category|notes|tags"))
				issued = false
				break
			}
			f := session.Filter()
			f.FilterType = ft
			session.SetFilter(f)
			session.RequestPage(ctx, 1, onPage, onError)

		case strings.HasPrefix(line, "a "):
			id, convErr := strconv.ParseInt(strings.TrimSpace(line[2:]), 10, 64)
			if convErr != nil {
				fmt.Println(cli.FormatWarning("usage: a <account id>"))
				issued = false
				break
			}
			f := session.Filter()
			f.AccountID = id
			session.SetFilter(f)
			session.RequestPage(ctx, 1, onPage, onError)

		default:
			fmt.Println(cli.FormatWarning("unknown command; q to quit"))
			issued = false
		}

		if issued && !queue.Wait(ctx) {
			return ctx.Err()
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}
