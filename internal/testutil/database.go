// Package testutil creates throwaway MoneyManagerEx databases for
// tests: the MMEX schema subset the browser reads, plus seed helpers.
package testutil

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// schema is the subset of the MMEX schema the browser queries.
const schema = `
CREATE TABLE ACCOUNTLIST_V1 (
	ACCOUNTID INTEGER PRIMARY KEY,
	ACCOUNTNAME TEXT NOT NULL,
	ACCOUNTTYPE TEXT NOT NULL DEFAULT 'Checking Account',
	STATUS TEXT NOT NULL DEFAULT 'Open',
	INITIALBAL REAL NOT NULL DEFAULT 0
);
CREATE TABLE CHECKINGACCOUNT_V1 (
	TRANSID INTEGER PRIMARY KEY,
	ACCOUNTID INTEGER NOT NULL,
	TOACCOUNTID INTEGER,
	PAYEEID INTEGER,
	TRANSCODE TEXT NOT NULL,
	TRANSAMOUNT REAL NOT NULL,
	STATUS TEXT,
	TRANSACTIONNUMBER TEXT,
	NOTES TEXT,
	CATEGID INTEGER,
	SUBCATEGID INTEGER,
	TRANSDATE TEXT NOT NULL,
	DELETEDTIME TEXT NOT NULL DEFAULT ''
);
CREATE TABLE CATEGORY_V1 (
	CATEGID INTEGER PRIMARY KEY,
	CATEGNAME TEXT NOT NULL
);
CREATE TABLE SUBCATEGORY_V1 (
	SUBCATEGID INTEGER PRIMARY KEY,
	SUBCATEGNAME TEXT NOT NULL,
	CATEGID INTEGER NOT NULL
);
CREATE TABLE PAYEE_V1 (
	PAYEEID INTEGER PRIMARY KEY,
	PAYEENAME TEXT NOT NULL
);
CREATE TABLE TAG_V1 (
	TAGID INTEGER PRIMARY KEY,
	TAGNAME TEXT NOT NULL
);
CREATE TABLE TAGLINK_V1 (
	TAGLINKID INTEGER PRIMARY KEY,
	REFTYPE TEXT NOT NULL,
	REFID INTEGER NOT NULL,
	TAGID INTEGER NOT NULL
);
`

// DB wraps a writable handle on the fixture file for seeding.
type DB struct {
	Conn *sql.DB
	Path string
	t    *testing.T
}

// CreateTestDB writes an empty MMEX-schema database under t.TempDir
// and returns it open for seeding. The handle closes automatically
// when the test ends; the browser under test opens the file itself,
// read-only.
func CreateTestDB(t *testing.T) *DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.mmb")
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		t.Fatalf("failed to create MMEX schema: %v", err)
	}

	t.Cleanup(func() {
		_ = conn.Close()
	})

	return &DB{Conn: conn, Path: path, t: t}
}

// AddAccount inserts an account and returns its id.
func (db *DB) AddAccount(name, accountType, status string, initialBalance float64) int64 {
	db.t.Helper()

	res, err := db.Conn.Exec(
		`INSERT INTO ACCOUNTLIST_V1 (ACCOUNTNAME, ACCOUNTTYPE, STATUS, INITIALBAL) VALUES (?, ?, ?, ?)`,
		name, accountType, status, initialBalance)
	if err != nil {
		db.t.Fatalf("failed to insert account %q: %v", name, err)
	}
	return lastID(db.t, res)
}

// AddCategory inserts a category and returns its id.
func (db *DB) AddCategory(name string) int64 {
	db.t.Helper()

	res, err := db.Conn.Exec(`INSERT INTO CATEGORY_V1 (CATEGNAME) VALUES (?)`, name)
	if err != nil {
		db.t.Fatalf("failed to insert category %q: %v", name, err)
	}
	return lastID(db.t, res)
}

// AddSubcategory inserts a subcategory under a category.
func (db *DB) AddSubcategory(name string, categoryID int64) int64 {
	db.t.Helper()

	res, err := db.Conn.Exec(
		`INSERT INTO SUBCATEGORY_V1 (SUBCATEGNAME, CATEGID) VALUES (?, ?)`, name, categoryID)
	if err != nil {
		db.t.Fatalf("failed to insert subcategory %q: %v", name, err)
	}
	return lastID(db.t, res)
}

// AddPayee inserts a payee and returns its id.
func (db *DB) AddPayee(name string) int64 {
	db.t.Helper()

	res, err := db.Conn.Exec(`INSERT INTO PAYEE_V1 (PAYEENAME) VALUES (?)`, name)
	if err != nil {
		db.t.Fatalf("failed to insert payee %q: %v", name, err)
	}
	return lastID(db.t, res)
}

// Txn describes one transaction row to seed.
type Txn struct {
	Date        string // YYYY-MM-DD
	Code        string // Withdrawal, Deposit or Transfer
	Number      string
	Notes       string
	DeletedTime string // non-empty marks the row soft-deleted
	AccountID   int64
	PayeeID     int64
	CategoryID  int64
	SubcatID    int64
	Amount      float64
}

// AddTransaction inserts a transaction row and returns its id.
func (db *DB) AddTransaction(txn Txn) int64 {
	db.t.Helper()

	res, err := db.Conn.Exec(
		`INSERT INTO CHECKINGACCOUNT_V1
		 (ACCOUNTID, PAYEEID, TRANSCODE, TRANSAMOUNT, TRANSACTIONNUMBER, NOTES, CATEGID, SUBCATEGID, TRANSDATE, DELETEDTIME)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.AccountID, nullableID(txn.PayeeID), txn.Code, txn.Amount, txn.Number, txn.Notes,
		nullableID(txn.CategoryID), nullableID(txn.SubcatID), txn.Date, txn.DeletedTime)
	if err != nil {
		db.t.Fatalf("failed to insert transaction: %v", err)
	}
	return lastID(db.t, res)
}

// AddTag inserts a tag and returns its id.
func (db *DB) AddTag(name string) int64 {
	db.t.Helper()

	res, err := db.Conn.Exec(`INSERT INTO TAG_V1 (TAGNAME) VALUES (?)`, name)
	if err != nil {
		db.t.Fatalf("failed to insert tag %q: %v", name, err)
	}
	return lastID(db.t, res)
}

// TagTransaction links a tag to a transaction.
func (db *DB) TagTransaction(transactionID, tagID int64) {
	db.t.Helper()

	_, err := db.Conn.Exec(
		`INSERT INTO TAGLINK_V1 (REFTYPE, REFID, TAGID) VALUES ('Transaction', ?, ?)`,
		transactionID, tagID)
	if err != nil {
		db.t.Fatalf("failed to tag transaction %d: %v", transactionID, err)
	}
}

// SeedMonth inserts count withdrawal rows spread across the days of
// one month, useful for pagination tests.
func (db *DB) SeedMonth(accountID int64, year, month, count int) {
	db.t.Helper()

	for i := 0; i < count; i++ {
		db.AddTransaction(Txn{
			AccountID: accountID,
			Code:      "Withdrawal",
			Amount:    float64(i + 1),
			Date:      fmt.Sprintf("%04d-%02d-%02d", year, month, i%28+1),
		})
	}
}

func nullableID(id int64) any {
	if id <= 0 {
		return nil
	}
	return id
}

func lastID(t *testing.T, res sql.Result) int64 {
	t.Helper()

	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("failed to read insert id: %v", err)
	}
	return id
}
