package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmex-tools/mmexplore/internal/cache"
	"github.com/mmex-tools/mmexplore/internal/model"
	"github.com/mmex-tools/mmexplore/internal/storage"
	"github.com/mmex-tools/mmexplore/internal/testutil"
)

func newTestService(t *testing.T) (*Service, *testutil.DB) {
	t.Helper()

	db := testutil.CreateTestDB(t)
	pool := storage.NewPool(2)
	require.NoError(t, pool.Initialize(context.Background(), db.Path))
	t.Cleanup(func() { _ = pool.CloseAll(context.Background()) })

	c := cache.New(10, time.Minute)
	t.Cleanup(c.Close)

	return NewService(storage.NewStore(pool), c), db
}

func seedSpending(db *testutil.DB) int64 {
	acct := db.AddAccount("Checking", "Checking Account", "Open", 0)
	food := db.AddCategory("Food")
	grocer := db.AddPayee("Grocer")
	db.AddTransaction(testutil.Txn{AccountID: acct, PayeeID: grocer, CategoryID: food, Code: "Withdrawal", Amount: 80, Date: "2025-04-01"})
	db.AddTransaction(testutil.Txn{AccountID: acct, Code: "Deposit", Amount: 500, Date: "2025-04-02"})
	return acct
}

func TestService_SpendingByCategory(t *testing.T) {
	svc, db := newTestService(t)
	seedSpending(db)

	series, err := svc.SpendingByCategory(context.Background(), model.DefaultFilter(), 10)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "Food", series[0].Category)
	assert.Equal(t, 80.0, series[0].Total)
}

func TestService_MemoizesPerFilter(t *testing.T) {
	svc, db := newTestService(t)
	acct := seedSpending(db)
	ctx := context.Background()
	f := model.DefaultFilter()

	first, err := svc.SpendingOverTime(ctx, f)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 80.0, first[0].Total)

	// New spending lands behind the cached snapshot.
	db.AddTransaction(testutil.Txn{AccountID: acct, Code: "Withdrawal", Amount: 20, Date: "2025-04-03"})

	again, err := svc.SpendingOverTime(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, 80.0, again[0].Total, "second call should hit the cache")

	// A different window is a different key.
	windowed := f
	windowed.StartDate = "2025-04-01"
	fresh, err := svc.SpendingOverTime(ctx, windowed)
	require.NoError(t, err)
	assert.Equal(t, 100.0, fresh[0].Total)
}

func TestService_Invalidate(t *testing.T) {
	svc, db := newTestService(t)
	acct := seedSpending(db)
	ctx := context.Background()
	f := model.DefaultFilter()

	_, err := svc.Summary(ctx, f)
	require.NoError(t, err)

	db.AddTransaction(testutil.Txn{AccountID: acct, Code: "Withdrawal", Amount: 20, Date: "2025-04-03"})
	svc.Invalidate()

	stats, err := svc.Summary(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Count)
	assert.Equal(t, 100.0, stats.TotalExpenses)
}

func TestService_LimitIsPartOfTheKey(t *testing.T) {
	svc, db := newTestService(t)
	acct := seedSpending(db)
	rent := db.AddCategory("Rent")
	db.AddTransaction(testutil.Txn{AccountID: acct, CategoryID: rent, Code: "Withdrawal", Amount: 900, Date: "2025-04-05"})

	ctx := context.Background()
	f := model.DefaultFilter()

	one, err := svc.SpendingByCategory(ctx, f, 1)
	require.NoError(t, err)
	require.Len(t, one, 1)

	all, err := svc.SpendingByCategory(ctx, f, 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestService_NilCacheDisablesMemoization(t *testing.T) {
	db := testutil.CreateTestDB(t)
	pool := storage.NewPool(2)
	require.NoError(t, pool.Initialize(context.Background(), db.Path))
	t.Cleanup(func() { _ = pool.CloseAll(context.Background()) })

	svc := NewService(storage.NewStore(pool), nil)
	acct := seedSpending(db)
	ctx := context.Background()
	f := model.DefaultFilter()

	_, err := svc.SpendingOverTime(ctx, f)
	require.NoError(t, err)

	db.AddTransaction(testutil.Txn{AccountID: acct, Code: "Withdrawal", Amount: 20, Date: "2025-04-03"})
	series, err := svc.SpendingOverTime(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, 100.0, series[0].Total, "uncached service should see new rows")
}
