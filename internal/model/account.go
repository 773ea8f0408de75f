package model

// Account statuses as stored in the account list table.
const (
	AccountOpen   = "Open"
	AccountClosed = "Closed"
)

// Account is one row of the account list, with the initial balance the
// running balance calculation starts from.
type Account struct {
	Name           string
	Type           string // Checking Account, Credit Card, ...
	Status         string // Open or Closed
	ID             int64
	InitialBalance float64
}

// Open reports whether the account is still open.
func (a *Account) Open() bool {
	return a.Status == AccountOpen
}
