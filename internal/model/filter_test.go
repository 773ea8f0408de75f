package model

import "testing"

func TestFilterFingerprint_Deterministic(t *testing.T) {
	f := Filter{
		StartDate:  "2025-01-01",
		EndDate:    "2025-05-01",
		AccountID:  3,
		SearchText: "coffee",
		FilterType: FilterPayee,
		Sort:       SortDate,
		SortDesc:   true,
	}

	if got, want := f.Fingerprint(), f.Fingerprint(); got != want {
		t.Errorf("fingerprint not deterministic: %s != %s", got, want)
	}
}

func TestFilterFingerprint_DistinguishesFields(t *testing.T) {
	base := DefaultFilter()

	variants := map[string]Filter{
		"start date": {StartDate: "2025-01-01", FilterType: FilterAllFields, Sort: SortDate, SortDesc: true},
		"end date":   {EndDate: "2025-05-01", FilterType: FilterAllFields, Sort: SortDate, SortDesc: true},
		"account":    {AccountID: 1, FilterType: FilterAllFields, Sort: SortDate, SortDesc: true},
		"search":     {SearchText: "rent", FilterType: FilterAllFields, Sort: SortDate, SortDesc: true},
		"filter":     {FilterType: FilterNotes, Sort: SortDate, SortDesc: true},
		"sort":       {FilterType: FilterAllFields, Sort: SortAmount, SortDesc: true},
		"direction":  {FilterType: FilterAllFields, Sort: SortDate, SortDesc: false},
	}

	for name, v := range variants {
		if v.Fingerprint() == base.Fingerprint() {
			t.Errorf("%s: fingerprint did not change", name)
		}
	}
}

func TestFilterFingerprint_ExtraDiscriminators(t *testing.T) {
	f := DefaultFilter()
	if f.Fingerprint("report:cashflow") == f.Fingerprint("report:summary") {
		t.Error("extra discriminators should change the fingerprint")
	}
	if f.Fingerprint("a", "b") == f.Fingerprint("ab") {
		t.Error("part boundaries must survive concatenation")
	}
}

func TestTransaction_SignedAmount(t *testing.T) {
	tests := []struct {
		name string
		txn  Transaction
		want float64
	}{
		{"withdrawal negates", Transaction{Type: TypeWithdrawal, Amount: 12.5}, -12.5},
		{"deposit keeps sign", Transaction{Type: TypeDeposit, Amount: 12.5}, 12.5},
		{"transfer keeps sign", Transaction{Type: TypeTransfer, Amount: 7}, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.txn.SignedAmount(); got != tt.want {
				t.Errorf("SignedAmount() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransaction_CategoryPath(t *testing.T) {
	txn := Transaction{Category: "Food", Subcategory: "Groceries"}
	if got := txn.CategoryPath(); got != "Food:Groceries" {
		t.Errorf("CategoryPath() = %q", got)
	}
	txn.Subcategory = ""
	if got := txn.CategoryPath(); got != "Food" {
		t.Errorf("CategoryPath() without subcategory = %q", got)
	}
}
