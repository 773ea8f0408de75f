package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// FilterType selects which columns a search matches against.
type FilterType string

// Search filter types, mirroring the browse UI's filter dropdown.
const (
	FilterAllFields FilterType = "all"
	FilterAccount   FilterType = "account"
	FilterPayee     FilterType = "payee"
	FilterCategory  FilterType = "category"
	FilterNotes     FilterType = "notes"
	FilterTags      FilterType = "tags"
)

// Valid reports whether ft is a known filter type.
func (ft FilterType) Valid() bool {
	switch ft {
	case FilterAllFields, FilterAccount, FilterPayee, FilterCategory, FilterNotes, FilterTags:
		return true
	}
	return false
}

// SortField selects the primary sort column for a transaction page.
// Pagination stays deterministic regardless of choice: the transaction
// id is always the secondary key.
type SortField string

// Sortable columns.
const (
	SortDate     SortField = "date"
	SortAmount   SortField = "amount"
	SortPayee    SortField = "payee"
	SortAccount  SortField = "account"
	SortCategory SortField = "category"
)

// Valid reports whether sf is a known sort field.
func (sf SortField) Valid() bool {
	switch sf {
	case SortDate, SortAmount, SortPayee, SortAccount, SortCategory:
		return true
	}
	return false
}

// Filter describes one transaction query: date window, account,
// search text and sort order. Dates are raw YYYY-MM-DD strings; the
// storage layer validates them so a malformed value can be reported
// back with the offending text instead of panicking.
type Filter struct {
	StartDate  string
	EndDate    string
	SearchText string
	FilterType FilterType
	Sort       SortField
	AccountID  int64 // 0 means all accounts
	SortDesc   bool
}

// DefaultFilter returns a filter with no predicates: all accounts,
// all dates, newest first.
func DefaultFilter() Filter {
	return Filter{
		FilterType: FilterAllFields,
		Sort:       SortDate,
		SortDesc:   true,
	}
}

// Fingerprint derives a deterministic cache/dedup key from every field
// that affects the query's result set, plus any extra discriminators
// the caller needs (report kind, page number, limits).
func (f Filter) Fingerprint(extra ...string) string {
	parts := []string{
		f.StartDate,
		f.EndDate,
		fmt.Sprintf("%d", f.AccountID),
		f.SearchText,
		string(f.FilterType),
		string(f.Sort),
		fmt.Sprintf("%t", f.SortDesc),
	}
	parts = append(parts, extra...)
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return fmt.Sprintf("%x", hash)
}
