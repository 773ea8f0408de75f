// Package storage is the read-only query layer over a MoneyManagerEx
// SQLite database: a bounded connection pool plus filtered, paginated
// and aggregated queries built with goqu.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmex-tools/mmexplore/internal/common"
)

// DateLayout is the wire format for all date filters.
const DateLayout = "2006-01-02"

// Validation errors.
var (
	ErrNilContext  = errors.New("context cannot be nil")
	ErrEmptyString = errors.New("string parameter cannot be empty")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateDate parses a YYYY-MM-DD date string, reporting the
// offending value on failure. Empty strings are allowed and mean
// "no bound".
func validateDate(value, paramName string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q, expected YYYY-MM-DD", common.ErrMalformedDate, paramName, value)
	}
	return t, nil
}

// validateDateRange checks both bounds of a filter's date window.
// Malformed values and an inverted range are reported as errors, never
// panics, and always before any SQL runs.
func validateDateRange(startDate, endDate string) error {
	start, err := validateDate(startDate, "start date")
	if err != nil {
		return err
	}

	end, err := validateDate(endDate, "end date")
	if err != nil {
		return err
	}

	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return fmt.Errorf("%w: start date %s is after end date %s", common.ErrInvalidDateRange, startDate, endDate)
	}
	return nil
}
