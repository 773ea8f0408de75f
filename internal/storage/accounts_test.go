package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/mmex-tools/mmexplore/internal/common"
	"github.com/mmex-tools/mmexplore/internal/testutil"
)

func TestListAccounts(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	db.AddAccount("Savings", "Checking Account", "Open", 1000)
	db.AddAccount("Checking", "Checking Account", "Open", 250.50)
	db.AddAccount("Old Card", "Credit Card", "Closed", 0)

	accounts, err := store.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(accounts) != 3 {
		t.Fatalf("accounts = %d, want 3", len(accounts))
	}

	// Ordered by name.
	wantNames := []string{"Checking", "Old Card", "Savings"}
	for i, want := range wantNames {
		if accounts[i].Name != want {
			t.Errorf("accounts[%d].Name = %q, want %q", i, accounts[i].Name, want)
		}
	}

	if accounts[0].InitialBalance != 250.50 {
		t.Errorf("InitialBalance = %v, want 250.50", accounts[0].InitialBalance)
	}
	if accounts[1].Open() {
		t.Error("closed account reported open")
	}
	if accounts[1].Type != "Credit Card" {
		t.Errorf("Type = %q", accounts[1].Type)
	}
}

func TestAccountBalance(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	acct := db.AddAccount("Checking", "Checking Account", "Open", 100)
	db.AddTransaction(testutil.Txn{AccountID: acct, Code: "Deposit", Amount: 50, Date: "2025-01-10"})
	db.AddTransaction(testutil.Txn{AccountID: acct, Code: "Withdrawal", Amount: 30, Date: "2025-01-11"})
	// Transfers are excluded from the balance math.
	db.AddTransaction(testutil.Txn{AccountID: acct, Code: "Transfer", Amount: 999, Date: "2025-01-12"})
	// Soft-deleted rows are excluded.
	db.AddTransaction(testutil.Txn{AccountID: acct, Code: "Withdrawal", Amount: 500, Date: "2025-01-13", DeletedTime: "2025-02-01 08:00:00"})

	balance, err := store.AccountBalance(ctx, acct)
	if err != nil {
		t.Fatalf("AccountBalance: %v", err)
	}
	if balance != 120 {
		t.Errorf("balance = %v, want 120 (100 + 50 - 30)", balance)
	}
}

func TestAccountBalance_UnknownAccount(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.AccountBalance(context.Background(), 404)
	if !errors.Is(err, common.ErrAccountNotFound) {
		t.Errorf("error = %v, want ErrAccountNotFound", err)
	}
}
