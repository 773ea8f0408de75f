package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // SQL dialect

	"github.com/mmex-tools/mmexplore/internal/common"
)

// Store executes queries against a pooled MMEX database. All methods
// borrow a handle, run outside any pool lock, and return the handle on
// a deferred path.
type Store struct {
	pool    *Pool
	dialect goqu.DialectWrapper
	retry   common.RetryOptions
}

// NewStore creates a Store over an initialized pool.
func NewStore(p *Pool) *Store {
	return &Store{
		pool:    p,
		dialect: goqu.Dialect("sqlite3"),
		retry: common.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 50 * time.Millisecond,
			MaxDelay:     time.Second,
			Multiplier:   2.0,
		},
	}
}

// Pool exposes the underlying connection pool.
func (s *Store) Pool() *Pool {
	return s.pool
}

// withConn borrows a handle and runs fn on it. A momentarily
// exhausted pool is retried with backoff; any other acquire failure
// is returned as-is.
func (s *Store) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	var conn *sql.Conn

	err := common.WithRetry(ctx, func() error {
		c, acquireErr := s.pool.Acquire(ctx)
		if acquireErr != nil {
			return acquireErr
		}
		conn = c
		return nil
	}, s.retry)
	if err != nil {
		return err
	}
	defer s.pool.Release(ctx, conn)

	return fn(conn)
}
