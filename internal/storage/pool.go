package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	pool "github.com/jolestar/go-commons-pool"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/mmex-tools/mmexplore/internal/common"
)

// DefaultMaxConnections bounds the handle pool when no limit is
// configured.
const DefaultMaxConnections = 5

// Pool is a bounded pool of database handles bound to one database
// path at a time. Handles are *sql.Conn values drawn from a single
// read-only parent *sql.DB, tracked by object identity. Acquire fails
// fast when every handle is in use; there is no blocking wait.
//
// The pool's mutex guards rebinding only. It is never held across a
// database call: a handle is checked out first and used outside the
// lock.
type Pool struct {
	db       *sql.DB
	objects  *pool.ObjectPool
	path     string
	maxConns int
	mu       sync.Mutex
}

// NewPool creates an empty pool. Initialize binds it to a database.
func NewPool(maxConns int) *Pool {
	if maxConns <= 0 {
		maxConns = DefaultMaxConnections
	}
	return &Pool{maxConns: maxConns}
}

// Initialize binds the pool to the database at path, closing and
// discarding any handles from a previous binding first. The file must
// already exist; this is a read-only browser and never creates one.
func (p *Pool) Initialize(ctx context.Context, path string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(path, "path"); err != nil {
		return err
	}

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", common.ErrDatabaseNotFound, path)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.closeLocked(ctx)

	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", common.ErrQueryFailed, path, err)
	}

	// Keep the OS-level connection count bounded even outside the
	// object pool's own accounting.
	db.SetMaxOpenConns(p.maxConns)
	db.SetMaxIdleConns(p.maxConns)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("%w: pinging %s: %v", common.ErrQueryFailed, path, err)
	}

	factory := pool.NewPooledObjectFactory(
		func(ctx context.Context) (any, error) {
			return db.Conn(ctx)
		},
		func(_ context.Context, object *pool.PooledObject) error {
			return object.Object.(*sql.Conn).Close()
		},
		nil, nil, nil,
	)

	cfg := pool.ObjectPoolConfig{
		MaxTotal:           p.maxConns,
		MaxIdle:            p.maxConns,
		BlockWhenExhausted: false,
	}

	p.objects = pool.NewObjectPool(ctx, factory, &cfg)
	p.db = db
	p.path = path

	slog.Debug("connection pool initialized", "path", path, "max_connections", p.maxConns)
	return nil
}

// Acquire checks out a free handle, opening a new one while the pool
// is under its limit. When every handle is in use it fails fast with
// ErrPoolExhausted; callers decide whether to retry or give up.
func (p *Pool) Acquire(ctx context.Context) (*sql.Conn, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	p.mu.Lock()
	objects := p.objects
	p.mu.Unlock()

	if objects == nil {
		return nil, fmt.Errorf("%w: pool not initialized", common.ErrPoolClosed)
	}

	obj, err := objects.BorrowObject(ctx)
	if err != nil {
		if _, ok := err.(*pool.NoSuchElementErr); ok {
			return nil, fmt.Errorf("%w: all %d handles in use", common.ErrPoolExhausted, p.maxConns)
		}
		return nil, fmt.Errorf("%w: acquiring handle: %v", common.ErrQueryFailed, err)
	}

	return obj.(*sql.Conn), nil
}

// Release marks the handle free again. Releasing a handle the pool
// does not know about is a no-op.
func (p *Pool) Release(ctx context.Context, conn *sql.Conn) {
	if conn == nil {
		return
	}

	p.mu.Lock()
	objects := p.objects
	p.mu.Unlock()

	if objects == nil {
		return
	}

	if err := objects.ReturnObject(ctx, conn); err != nil {
		common.LogDebug("ignoring release of unknown handle", common.Fields{"error": err})
	}
}

// CloseAll closes every handle and clears the binding. The pool can
// be re-initialized afterwards.
func (p *Pool) CloseAll(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeLocked(ctx)
}

// closeLocked tears down the current binding. Caller holds p.mu.
func (p *Pool) closeLocked(ctx context.Context) error {
	if p.objects != nil {
		p.objects.Close(ctx)
		p.objects = nil
	}

	var err error
	if p.db != nil {
		err = p.db.Close()
		p.db = nil
	}
	p.path = ""
	return err
}

// Path returns the database path the pool is currently bound to, or
// empty when unbound.
func (p *Pool) Path() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.path
}

// MaxConnections returns the pool's handle limit.
func (p *Pool) MaxConnections() int {
	return p.maxConns
}
