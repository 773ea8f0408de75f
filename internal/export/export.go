// Package export streams filtered transactions to CSV or JSON,
// fetching in fixed-size pages so an export never holds the full
// result set in memory.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"

	"github.com/mmex-tools/mmexplore/internal/common"
	"github.com/mmex-tools/mmexplore/internal/model"
	"github.com/mmex-tools/mmexplore/internal/storage"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// fetchPageSize is the page size used internally while streaming. It
// is independent of the browse page size.
const fetchPageSize = 500

const dateLayout = "2006-01-02"

var csvHeader = []string{
	"Date", "Account", "Payee", "Category", "Tags", "Notes", "Amount", "Type", "ID",
}

// Exporter streams query results to a writer.
type Exporter struct {
	store    *storage.Store
	progress io.Writer // nil disables the progress bar
}

// NewExporter creates an exporter over store. When progress is
// non-nil, a progress bar sized by the pre-export count is rendered to
// it.
func NewExporter(store *storage.Store, progress io.Writer) *Exporter {
	return &Exporter{store: store, progress: progress}
}

// Export writes every transaction matching f to w in the given
// format, returning the number of rows written.
func (e *Exporter) Export(ctx context.Context, w io.Writer, f model.Filter, format string) (int, error) {
	switch strings.ToLower(format) {
	case FormatCSV:
		return e.exportCSV(ctx, w, f)
	case FormatJSON:
		return e.exportJSON(ctx, w, f)
	default:
		return 0, fmt.Errorf("%w: unknown export format %q (want csv or json)", common.ErrInvalidConfig, format)
	}
}

func (e *Exporter) exportCSV(ctx context.Context, w io.Writer, f model.Filter) (int, error) {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("writing csv header: %w", err)
	}

	written, err := e.stream(ctx, f, func(txn model.Transaction) error {
		return writer.Write(csvRow(txn))
	})
	if err != nil {
		return written, err
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return written, fmt.Errorf("flushing csv: %w", err)
	}
	return written, nil
}

// exportedTransaction is the JSON shape of one row, denormalized the
// same way the CSV columns are.
type exportedTransaction struct {
	ID       int64   `json:"id"`
	Date     string  `json:"date"`
	Account  string  `json:"account"`
	Payee    string  `json:"payee,omitempty"`
	Category string  `json:"category,omitempty"`
	Tags     string  `json:"tags,omitempty"`
	Notes    string  `json:"notes,omitempty"`
	Amount   float64 `json:"amount"`
	Type     string  `json:"type"`
}

func (e *Exporter) exportJSON(ctx context.Context, w io.Writer, f model.Filter) (int, error) {
	// Stream the array element by element rather than marshaling one
	// giant slice.
	if _, err := io.WriteString(w, "["); err != nil {
		return 0, fmt.Errorf("writing json: %w", err)
	}

	first := true
	written, err := e.stream(ctx, f, func(txn model.Transaction) error {
		row, marshalErr := json.Marshal(exportedTransaction{
			ID:       txn.ID,
			Date:     txn.Date.Format(dateLayout),
			Account:  txn.Account,
			Payee:    txn.Payee,
			Category: txn.CategoryPath(),
			Tags:     txn.Tags,
			Notes:    txn.Notes,
			Amount:   txn.SignedAmount(),
			Type:     txn.Type,
		})
		if marshalErr != nil {
			return marshalErr
		}

		sep := ",\n  "
		if first {
			sep = "\n  "
			first = false
		}
		if _, writeErr := io.WriteString(w, sep+string(row)); writeErr != nil {
			return writeErr
		}
		return nil
	})
	if err != nil {
		return written, err
	}

	closing := "]\n"
	if written > 0 {
		closing = "\n]\n"
	}
	if _, err := io.WriteString(w, closing); err != nil {
		return written, fmt.Errorf("writing json: %w", err)
	}
	return written, nil
}

// stream fetches matching rows page by page and hands each to emit in
// order.
func (e *Exporter) stream(ctx context.Context, f model.Filter, emit func(model.Transaction) error) (int, error) {
	total, err := e.store.CountTransactions(ctx, f)
	if err != nil {
		return 0, err
	}

	bar := e.newBar(total)
	written := 0
	for page := 1; ; page++ {
		rows, err := e.store.FetchTransactionPage(ctx, f, page, fetchPageSize)
		if err != nil {
			return written, err
		}
		if len(rows) == 0 {
			break
		}

		for _, txn := range rows {
			if err := emit(txn); err != nil {
				return written, fmt.Errorf("writing row %d: %w", txn.ID, err)
			}
			written++
			if bar != nil {
				_ = bar.Add(1)
			}
		}

		if len(rows) < fetchPageSize {
			break
		}
	}

	if bar != nil {
		_ = bar.Finish()
	}
	return written, nil
}

func (e *Exporter) newBar(total int) *progressbar.ProgressBar {
	if e.progress == nil || total == 0 {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(e.progress),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Exporting transactions..."),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(e.progress)
		}),
	)
}

func csvRow(txn model.Transaction) []string {
	return []string{
		txn.Date.Format(dateLayout),
		txn.Account,
		txn.Payee,
		txn.CategoryPath(),
		txn.Tags,
		txn.Notes,
		strconv.FormatFloat(txn.SignedAmount(), 'f', 2, 64),
		txn.Type,
		strconv.FormatInt(txn.ID, 10),
	}
}
