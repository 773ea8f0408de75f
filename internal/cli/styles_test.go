package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatHelpers(t *testing.T) {
	tests := []struct {
		name     string
		format   func(string) string
		icon     string
		message  string
	}{
		{
			name:    "success",
			format:  FormatSuccess,
			icon:    SuccessIcon,
			message: "export complete",
		},
		{
			name:    "error",
			format:  FormatError,
			icon:    ErrorIcon,
			message: "cannot open database",
		},
		{
			name:    "warning",
			format:  FormatWarning,
			icon:    WarningIcon,
			message: "usage: g <page>",
		},
		{
			name:    "title",
			format:  FormatTitle,
			icon:    LedgerIcon,
			message: "Spending by category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.format(tt.message)
			assert.Contains(t, got, tt.icon)
			assert.Contains(t, got, tt.message)
		})
	}
}

func TestFormatAmount(t *testing.T) {
	credit := FormatAmount("1000.00", false)
	debit := FormatAmount("-42.50", true)

	assert.Contains(t, credit, "1000.00")
	assert.Contains(t, debit, "-42.50")

	// The styles only diverge when the terminal supports color, so
	// compare against the styles themselves rather than raw ANSI.
	assert.Equal(t, CreditStyle.Render("1000.00"), credit)
	assert.Equal(t, DebitStyle.Render("-42.50"), debit)
}

func TestRenderBox(t *testing.T) {
	got := RenderBox("Summary", "Transactions: 6\nNet: 2925.00")

	assert.Contains(t, got, "Summary")
	assert.Contains(t, got, "Transactions: 6")
	assert.Contains(t, got, "Net: 2925.00")
	assert.Greater(t, len(strings.Split(got, "\n")), 2)
}
