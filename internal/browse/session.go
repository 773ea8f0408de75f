// Package browse coordinates paged transaction queries: it composes
// the count and fetch queries into one asynchronous request and tracks
// the filter and page position between requests.
package browse

import (
	"context"
	"sync"

	"github.com/mmex-tools/mmexplore/internal/async"
	"github.com/mmex-tools/mmexplore/internal/model"
	"github.com/mmex-tools/mmexplore/internal/paging"
	"github.com/mmex-tools/mmexplore/internal/storage"
)

// slotTransactions names the query channel for page loads. One live
// request at a time: a new page load supersedes an unfinished one.
const slotTransactions = "transactions"

// Page is one completed page load: the rows plus the pagination
// snapshot they were fetched under.
type Page struct {
	Rows []model.Transaction
	Info paging.Info
}

// Session is the stateful front end over the transaction store. All
// methods are safe for concurrent use; results are delivered through
// the manager's dispatcher, never on the calling goroutine.
type Session struct {
	store    *storage.Store
	manager  *async.Manager
	mu       sync.Mutex
	filter   model.Filter
	last     paging.Info
	pageSize int
	current  int
	loaded   bool
}

// NewSession creates a session over store with the default filter,
// positioned on page 1.
func NewSession(store *storage.Store, manager *async.Manager, pageSize int) *Session {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &Session{
		store:    store,
		manager:  manager,
		filter:   model.DefaultFilter(),
		pageSize: pageSize,
		current:  1,
	}
}

// Filter returns the active filter.
func (s *Session) Filter() model.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// SetFilter replaces the active filter and resets the position to
// page 1. The next page request runs under the new filter.
func (s *Session) SetFilter(f model.Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
	s.current = 1
	s.loaded = false
}

// SetPageSize changes the page size and resets the position to page 1.
func (s *Session) SetPageSize(size int) {
	if size <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageSize = size
	s.current = 1
	s.loaded = false
}

// PageSize returns the active page size.
func (s *Session) PageSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pageSize
}

// CurrentPage returns the page the session is positioned on: the last
// page delivered, or the page a pending request asked for.
func (s *Session) CurrentPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Loading reports whether a page request is in flight.
func (s *Session) Loading() bool {
	return s.manager.IsRunning(slotTransactions)
}

// RequestPage loads the given page asynchronously. Exactly one of
// onPage/onError fires through the dispatcher, unless a later request
// supersedes this one first.
//
// When the filter has shrunk the result set below the requested page,
// the request clamps to the last populated page rather than returning
// an empty one.
func (s *Session) RequestPage(ctx context.Context, page int, onPage func(Page), onError func(error)) {
	if page < 1 {
		page = 1
	}

	s.mu.Lock()
	f := s.filter
	size := s.pageSize
	s.current = page
	s.mu.Unlock()

	op := func(ctx context.Context) (any, error) {
		count, err := s.store.CountTransactions(ctx, f)
		if err != nil {
			return nil, err
		}

		info := paging.New(count, size, page)
		if total := info.TotalPages(); total > 0 && page > total {
			info = paging.New(count, size, total)
		}

		rows, err := s.store.FetchTransactionPage(ctx, f, info.CurrentPage, size)
		if err != nil {
			return nil, err
		}
		return Page{Rows: rows, Info: info}, nil
	}

	s.manager.Execute(ctx, slotTransactions, op,
		func(result any) {
			p := result.(Page)
			s.mu.Lock()
			s.current = p.Info.CurrentPage
			s.last = p.Info
			s.loaded = true
			s.mu.Unlock()
			if onPage != nil {
				onPage(p)
			}
		},
		func(err error) {
			if onError != nil {
				onError(err)
			}
		})
}

// Refresh reloads the current page under the active filter.
func (s *Session) Refresh(ctx context.Context, onPage func(Page), onError func(error)) {
	s.RequestPage(ctx, s.CurrentPage(), onPage, onError)
}

// RequestNext loads the next page. It reports false without issuing a
// request when the last delivered page was already the final one.
func (s *Session) RequestNext(ctx context.Context, onPage func(Page), onError func(error)) bool {
	s.mu.Lock()
	if s.loaded && !s.last.HasNext() {
		s.mu.Unlock()
		return false
	}
	page := s.current + 1
	s.mu.Unlock()

	s.RequestPage(ctx, page, onPage, onError)
	return true
}

// RequestPrevious loads the previous page, reporting false when the
// session is already on page 1.
func (s *Session) RequestPrevious(ctx context.Context, onPage func(Page), onError func(error)) bool {
	s.mu.Lock()
	if s.current <= 1 {
		s.mu.Unlock()
		return false
	}
	page := s.current - 1
	s.mu.Unlock()

	s.RequestPage(ctx, page, onPage, onError)
	return true
}

// Cancel abandons any in-flight page request; its callbacks are
// suppressed.
func (s *Session) Cancel() {
	s.manager.Cancel(slotTransactions)
}
