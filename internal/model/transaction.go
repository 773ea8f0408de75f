// Package model defines the core domain types for browsing a
// MoneyManagerEx database.
package model

import "time"

// Transaction type codes as stored in the checking account table.
const (
	TypeWithdrawal = "Withdrawal"
	TypeDeposit    = "Deposit"
	TypeTransfer   = "Transfer"
)

// Transaction is a denormalized transaction row ready for display:
// account, payee and category names are joined in, and the transaction's
// tags are flattened into a single comma-separated string.
type Transaction struct {
	Date        time.Time
	Account     string
	Payee       string
	Category    string
	Subcategory string
	Tags        string // flattened, comma-separated
	Notes       string
	Number      string // check or reference number
	Type        string // Withdrawal, Deposit or Transfer
	ID          int64
	Amount      float64
}

// CategoryPath combines category and subcategory for display.
func (t *Transaction) CategoryPath() string {
	if t.Subcategory == "" {
		return t.Category
	}
	return t.Category + ":" + t.Subcategory
}

// SignedAmount returns the amount negated for withdrawals so that
// sums over mixed rows net out.
func (t *Transaction) SignedAmount() float64 {
	if t.Type == TypeWithdrawal {
		return -t.Amount
	}
	return t.Amount
}
