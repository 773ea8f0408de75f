package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/mmex-tools/mmexplore/internal/common"
	"github.com/mmex-tools/mmexplore/internal/model"
	"github.com/mmex-tools/mmexplore/internal/testutil"
)

// seedReportData loads two months of mixed activity.
func seedReportData(t *testing.T, db *testutil.DB) int64 {
	t.Helper()

	acct := db.AddAccount("Checking", "Checking Account", "Open", 0)
	food := db.AddCategory("Food")
	housing := db.AddCategory("Housing")
	grocer := db.AddPayee("Grocer")
	landlord := db.AddPayee("Landlord")

	db.AddTransaction(testutil.Txn{AccountID: acct, PayeeID: grocer, CategoryID: food, Code: "Withdrawal", Amount: 100, Date: "2025-01-05"})
	db.AddTransaction(testutil.Txn{AccountID: acct, PayeeID: grocer, CategoryID: food, Code: "Withdrawal", Amount: 50, Date: "2025-02-05"})
	db.AddTransaction(testutil.Txn{AccountID: acct, PayeeID: landlord, CategoryID: housing, Code: "Withdrawal", Amount: 900, Date: "2025-01-01"})
	db.AddTransaction(testutil.Txn{AccountID: acct, Code: "Deposit", Amount: 2000, Date: "2025-01-02"})
	db.AddTransaction(testutil.Txn{AccountID: acct, Code: "Deposit", Amount: 2000, Date: "2025-02-02"})
	// Uncategorized spend.
	db.AddTransaction(testutil.Txn{AccountID: acct, Code: "Withdrawal", Amount: 25, Date: "2025-02-10"})

	return acct
}

func TestSpendingByCategory(t *testing.T) {
	store, db := newTestStore(t)
	seedReportData(t, db)

	series, err := store.SpendingByCategory(context.Background(), model.DefaultFilter(), 10)
	if err != nil {
		t.Fatalf("SpendingByCategory: %v", err)
	}
	if len(series) != 3 {
		t.Fatalf("series = %d, want 3", len(series))
	}

	if series[0].Category != "Housing" || series[0].Total != 900 {
		t.Errorf("top category = %+v, want Housing/900", series[0])
	}
	if series[1].Category != "Food" || series[1].Total != 150 || series[1].Count != 2 {
		t.Errorf("second category = %+v, want Food/150/2", series[1])
	}
	if series[2].Category != "Uncategorized" || series[2].Total != 25 {
		t.Errorf("third category = %+v, want Uncategorized/25", series[2])
	}
}

func TestSpendingByCategory_Limit(t *testing.T) {
	store, db := newTestStore(t)
	seedReportData(t, db)

	series, err := store.SpendingByCategory(context.Background(), model.DefaultFilter(), 1)
	if err != nil {
		t.Fatalf("SpendingByCategory: %v", err)
	}
	if len(series) != 1 || series[0].Category != "Housing" {
		t.Errorf("series = %+v, want just Housing", series)
	}
}

func TestSpendingOverTime(t *testing.T) {
	store, db := newTestStore(t)
	seedReportData(t, db)

	series, err := store.SpendingOverTime(context.Background(), model.DefaultFilter())
	if err != nil {
		t.Fatalf("SpendingOverTime: %v", err)
	}
	want := []MonthlySpend{
		{Month: "2025-01", Total: 1000},
		{Month: "2025-02", Total: 75},
	}
	if len(series) != len(want) {
		t.Fatalf("series = %+v, want %+v", series, want)
	}
	for i := range want {
		if series[i] != want[i] {
			t.Errorf("series[%d] = %+v, want %+v", i, series[i], want[i])
		}
	}
}

func TestIncomeVsExpenses(t *testing.T) {
	store, db := newTestStore(t)
	seedReportData(t, db)

	series, err := store.IncomeVsExpenses(context.Background(), model.DefaultFilter())
	if err != nil {
		t.Fatalf("IncomeVsExpenses: %v", err)
	}
	want := []MonthlyFlow{
		{Month: "2025-01", Income: 2000, Expenses: 1000},
		{Month: "2025-02", Income: 2000, Expenses: 75},
	}
	if len(series) != len(want) {
		t.Fatalf("series = %+v, want %+v", series, want)
	}
	for i := range want {
		if series[i] != want[i] {
			t.Errorf("series[%d] = %+v, want %+v", i, series[i], want[i])
		}
	}
}

func TestTopPayees(t *testing.T) {
	store, db := newTestStore(t)
	seedReportData(t, db)

	series, err := store.TopPayees(context.Background(), model.DefaultFilter(), 2)
	if err != nil {
		t.Fatalf("TopPayees: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("series = %d, want 2", len(series))
	}
	if series[0].Payee != "Landlord" || series[0].Total != 900 {
		t.Errorf("top payee = %+v, want Landlord/900", series[0])
	}
	if series[1].Payee != "Grocer" || series[1].Total != 150 || series[1].Count != 2 {
		t.Errorf("second payee = %+v, want Grocer/150/2", series[1])
	}
}

func TestCashflow(t *testing.T) {
	store, db := newTestStore(t)
	seedReportData(t, db)

	points, err := store.Cashflow(context.Background(), model.DefaultFilter())
	if err != nil {
		t.Fatalf("Cashflow: %v", err)
	}
	want := []CashflowPoint{
		{Month: "2025-01", Net: 1000, Cumulative: 1000},
		{Month: "2025-02", Net: 1925, Cumulative: 2925},
	}
	if len(points) != len(want) {
		t.Fatalf("points = %+v, want %+v", points, want)
	}
	for i := range want {
		if points[i] != want[i] {
			t.Errorf("points[%d] = %+v, want %+v", i, points[i], want[i])
		}
	}
}

func TestSummary(t *testing.T) {
	store, db := newTestStore(t)
	seedReportData(t, db)

	stats, err := store.Summary(context.Background(), model.DefaultFilter())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	if stats.Count != 6 {
		t.Errorf("Count = %d, want 6", stats.Count)
	}
	if stats.TotalIncome != 4000 {
		t.Errorf("TotalIncome = %v, want 4000", stats.TotalIncome)
	}
	if stats.TotalExpenses != 1075 {
		t.Errorf("TotalExpenses = %v, want 1075", stats.TotalExpenses)
	}
	if stats.Net != 2925 {
		t.Errorf("Net = %v, want 2925", stats.Net)
	}
	if stats.LargestExpense != 900 {
		t.Errorf("LargestExpense = %v, want 900", stats.LargestExpense)
	}
	if stats.LargestIncome != 2000 {
		t.Errorf("LargestIncome = %v, want 2000", stats.LargestIncome)
	}
	if stats.FirstDate != "2025-01-01" || stats.LastDate != "2025-02-10" {
		t.Errorf("date span = %q..%q", stats.FirstDate, stats.LastDate)
	}
}

func TestReports_WindowAndAccountFilter(t *testing.T) {
	store, db := newTestStore(t)
	acct := seedReportData(t, db)
	other := db.AddAccount("Savings", "Checking Account", "Open", 0)
	db.AddTransaction(testutil.Txn{AccountID: other, Code: "Withdrawal", Amount: 10000, Date: "2025-01-15"})

	f := model.Filter{StartDate: "2025-02-01", EndDate: "2025-02-28", AccountID: acct}
	series, err := store.SpendingOverTime(context.Background(), f)
	if err != nil {
		t.Fatalf("SpendingOverTime: %v", err)
	}
	if len(series) != 1 || series[0].Month != "2025-02" || series[0].Total != 75 {
		t.Errorf("series = %+v, want February's 75 only", series)
	}
}

func TestReports_InvalidRangeRejectedBeforeSQL(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Summary(context.Background(), model.Filter{StartDate: "2025-05-01", EndDate: "2025-01-01"})
	if !errors.Is(err, common.ErrInvalidDateRange) {
		t.Errorf("error = %v, want ErrInvalidDateRange", err)
	}
}
