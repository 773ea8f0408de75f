package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mmex-tools/mmexplore/internal/common"
	"github.com/mmex-tools/mmexplore/internal/model"
	"github.com/mmex-tools/mmexplore/internal/paging"
	"github.com/mmex-tools/mmexplore/internal/testutil"
)

// newTestStore binds a fresh pool to a fixture database and returns
// a store over it.
func newTestStore(t *testing.T) (*Store, *testutil.DB) {
	t.Helper()

	db := testutil.CreateTestDB(t)
	ctx := context.Background()

	p := NewPool(2)
	if err := p.Initialize(ctx, db.Path); err != nil {
		t.Fatalf("failed to initialize pool: %v", err)
	}
	t.Cleanup(func() {
		_ = p.CloseAll(context.Background())
	})

	return NewStore(p), db
}

func TestCountTransactions_EmptyDatabase(t *testing.T) {
	store, _ := newTestStore(t)

	count, err := store.CountTransactions(context.Background(), model.DefaultFilter())
	if err != nil {
		t.Fatalf("CountTransactions: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestCountTransactions_Filters(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	checking := db.AddAccount("Checking", "Checking Account", "Open", 0)
	savings := db.AddAccount("Savings", "Checking Account", "Open", 0)

	db.AddTransaction(testutil.Txn{AccountID: checking, Code: "Withdrawal", Amount: 10, Date: "2025-01-15"})
	db.AddTransaction(testutil.Txn{AccountID: checking, Code: "Deposit", Amount: 20, Date: "2025-02-15"})
	db.AddTransaction(testutil.Txn{AccountID: savings, Code: "Withdrawal", Amount: 30, Date: "2025-03-15"})
	// Soft-deleted rows never count.
	db.AddTransaction(testutil.Txn{AccountID: checking, Code: "Withdrawal", Amount: 40, Date: "2025-01-20", DeletedTime: "2025-04-01 10:00:00"})

	tests := []struct {
		name   string
		filter model.Filter
		want   int
	}{
		{"no filter sees live rows only", model.DefaultFilter(), 3},
		{"account filter", model.Filter{AccountID: checking}, 2},
		{"start date inclusive", model.Filter{StartDate: "2025-02-15"}, 2},
		{"end date inclusive", model.Filter{EndDate: "2025-02-15"}, 2},
		{"window", model.Filter{StartDate: "2025-02-01", EndDate: "2025-02-28"}, 1},
		{"window plus account", model.Filter{StartDate: "2025-01-01", EndDate: "2025-03-31", AccountID: savings}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.CountTransactions(ctx, tt.filter)
			if err != nil {
				t.Fatalf("CountTransactions: %v", err)
			}
			if got != tt.want {
				t.Errorf("count = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTransactions_InvertedDateRange(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	acct := db.AddAccount("Checking", "Checking Account", "Open", 0)
	db.AddTransaction(testutil.Txn{AccountID: acct, Code: "Withdrawal", Amount: 10, Date: "2025-02-15"})

	f := model.Filter{StartDate: "2025-05-01", EndDate: "2025-01-01"}

	count, err := store.CountTransactions(ctx, f)
	if !errors.Is(err, common.ErrInvalidDateRange) {
		t.Errorf("count error = %v, want ErrInvalidDateRange", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0 on error", count)
	}

	rows, err := store.FetchTransactionPage(ctx, f, 1, 50)
	if !errors.Is(err, common.ErrInvalidDateRange) {
		t.Errorf("fetch error = %v, want ErrInvalidDateRange", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %d, want 0 on error", len(rows))
	}
}

func TestTransactions_MalformedDate(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.CountTransactions(context.Background(), model.Filter{StartDate: "01/05/2025"})
	if !errors.Is(err, common.ErrMalformedDate) {
		t.Fatalf("error = %v, want ErrMalformedDate", err)
	}
	if !strings.Contains(err.Error(), "01/05/2025") {
		t.Errorf("error %q should name the offending value", err)
	}
}

func TestFetchTransactionPage_OrderingAndJoins(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	acct := db.AddAccount("Checking", "Checking Account", "Open", 0)
	food := db.AddCategory("Food")
	groceries := db.AddSubcategory("Groceries", food)
	payee := db.AddPayee("Corner Store")

	older := db.AddTransaction(testutil.Txn{
		AccountID: acct, PayeeID: payee, CategoryID: food, SubcatID: groceries,
		Code: "Withdrawal", Amount: 12.50, Date: "2025-03-01", Notes: "weekly shop", Number: "42",
	})
	newer := db.AddTransaction(testutil.Txn{
		AccountID: acct, Code: "Deposit", Amount: 100, Date: "2025-03-10",
	})

	tag := db.AddTag("errand")
	other := db.AddTag("cash")
	db.TagTransaction(older, tag)
	db.TagTransaction(older, other)

	rows, err := store.FetchTransactionPage(ctx, model.DefaultFilter(), 1, 50)
	if err != nil {
		t.Fatalf("FetchTransactionPage: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}

	// Date descending: the newer row comes first.
	if rows[0].ID != newer || rows[1].ID != older {
		t.Errorf("order = [%d, %d], want [%d, %d]", rows[0].ID, rows[1].ID, newer, older)
	}

	got := rows[1]
	if got.Account != "Checking" {
		t.Errorf("Account = %q", got.Account)
	}
	if got.Payee != "Corner Store" {
		t.Errorf("Payee = %q", got.Payee)
	}
	if got.Category != "Food" || got.Subcategory != "Groceries" {
		t.Errorf("Category = %q:%q", got.Category, got.Subcategory)
	}
	if got.Tags != "errand, cash" && got.Tags != "cash, errand" {
		t.Errorf("Tags = %q, want both tags flattened", got.Tags)
	}
	if got.Notes != "weekly shop" || got.Number != "42" {
		t.Errorf("Notes/Number = %q/%q", got.Notes, got.Number)
	}
	if got.Date.Format(DateLayout) != "2025-03-01" {
		t.Errorf("Date = %v", got.Date)
	}
}

func TestFetchTransactionPage_StableOrderAcrossEqualDates(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	acct := db.AddAccount("Checking", "Checking Account", "Open", 0)
	var want []int64
	for i := 0; i < 5; i++ {
		id := db.AddTransaction(testutil.Txn{
			AccountID: acct, Code: "Withdrawal", Amount: float64(i), Date: "2025-03-01",
		})
		want = append(want, id)
	}

	first, err := store.FetchTransactionPage(ctx, model.DefaultFilter(), 1, 3)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	second, err := store.FetchTransactionPage(ctx, model.DefaultFilter(), 2, 3)
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}

	var got []int64
	for _, txn := range append(first, second...) {
		got = append(got, txn.ID)
	}
	if len(got) != len(want) {
		t.Fatalf("rows = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v (id breaks date ties)", got, want)
		}
	}
}

func TestFetchTransactionPage_SearchFilterTypes(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	acct := db.AddAccount("Checking", "Checking Account", "Open", 0)
	food := db.AddCategory("Food")
	rent := db.AddCategory("Housing")
	grocer := db.AddPayee("Grocer")
	landlord := db.AddPayee("Landlord")

	groceriesTxn := db.AddTransaction(testutil.Txn{
		AccountID: acct, PayeeID: grocer, CategoryID: food,
		Code: "Withdrawal", Amount: 40, Date: "2025-03-01", Notes: "apples",
	})
	rentTxn := db.AddTransaction(testutil.Txn{
		AccountID: acct, PayeeID: landlord, CategoryID: rent,
		Code: "Withdrawal", Amount: 900, Date: "2025-03-02", Notes: "march rent",
	})

	tag := db.AddTag("subscription")
	db.TagTransaction(rentTxn, tag)

	tests := []struct {
		name   string
		filter model.Filter
		want   []int64
	}{
		{"payee search", model.Filter{SearchText: "grocer", FilterType: model.FilterPayee}, []int64{groceriesTxn}},
		{"category search", model.Filter{SearchText: "Hous", FilterType: model.FilterCategory}, []int64{rentTxn}},
		{"notes search", model.Filter{SearchText: "apples", FilterType: model.FilterNotes}, []int64{groceriesTxn}},
		{"tag search", model.Filter{SearchText: "subscr", FilterType: model.FilterTags}, []int64{rentTxn}},
		{"all fields matches notes", model.Filter{SearchText: "march", FilterType: model.FilterAllFields}, []int64{rentTxn}},
		{"all fields matches tag", model.Filter{SearchText: "subscription", FilterType: model.FilterAllFields}, []int64{rentTxn}},
		{"no match", model.Filter{SearchText: "zzz", FilterType: model.FilterAllFields}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := store.FetchTransactionPage(ctx, tt.filter, 1, 50)
			if err != nil {
				t.Fatalf("FetchTransactionPage: %v", err)
			}
			if len(rows) != len(tt.want) {
				t.Fatalf("rows = %d, want %d", len(rows), len(tt.want))
			}
			for i, id := range tt.want {
				if rows[i].ID != id {
					t.Errorf("row %d id = %d, want %d", i, rows[i].ID, id)
				}
			}

			count, err := store.CountTransactions(ctx, tt.filter)
			if err != nil {
				t.Fatalf("CountTransactions: %v", err)
			}
			if count != len(tt.want) {
				t.Errorf("count = %d, want %d (count and fetch share predicates)", count, len(tt.want))
			}
		})
	}
}

func TestFetchTransactionPage_SortWhitelist(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	acct := db.AddAccount("Checking", "Checking Account", "Open", 0)
	small := db.AddTransaction(testutil.Txn{AccountID: acct, Code: "Withdrawal", Amount: 5, Date: "2025-03-02"})
	large := db.AddTransaction(testutil.Txn{AccountID: acct, Code: "Withdrawal", Amount: 50, Date: "2025-03-01"})

	f := model.Filter{Sort: model.SortAmount, SortDesc: true}
	rows, err := store.FetchTransactionPage(ctx, f, 1, 10)
	if err != nil {
		t.Fatalf("FetchTransactionPage: %v", err)
	}
	if rows[0].ID != large || rows[1].ID != small {
		t.Errorf("amount sort order = [%d, %d], want [%d, %d]", rows[0].ID, rows[1].ID, large, small)
	}

	if _, err := store.FetchTransactionPage(ctx, model.Filter{Sort: "TRANSID; DROP TABLE"}, 1, 10); err == nil {
		t.Error("unknown sort field should be rejected")
	}
}

func TestPagination_EndToEnd(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	acct := db.AddAccount("Checking", "Checking Account", "Open", 0)
	for m := 1; m <= 5; m++ {
		db.SeedMonth(acct, 2025, m, 25)
	}

	f := model.DefaultFilter()
	count, err := store.CountTransactions(ctx, f)
	if err != nil {
		t.Fatalf("CountTransactions: %v", err)
	}
	if count != 125 {
		t.Fatalf("count = %d, want 125", count)
	}

	rows, err := store.FetchTransactionPage(ctx, f, 3, 50)
	if err != nil {
		t.Fatalf("FetchTransactionPage: %v", err)
	}
	if len(rows) != 25 {
		t.Errorf("page 3 rows = %d, want 25", len(rows))
	}

	info := paging.New(count, 50, 3)
	if info.HasNext() {
		t.Error("HasNext on the last page should be false")
	}
	if !info.HasPrevious() {
		t.Error("HasPrevious on page 3 should be true")
	}
	want := "Showing 101-125 of 125 transactions (Page 3 of 3)"
	if got := info.PageInfoText(); got != want {
		t.Errorf("PageInfoText() = %q, want %q", got, want)
	}
}
