package async

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mmex-tools/mmexplore/internal/common"
)

const defaultWorkers = 4

// Operation is a unit of query work executed on a worker goroutine.
// It should honor ctx cancellation where it can; a superseded
// operation that ignores ctx still runs to completion, but its result
// is discarded.
type Operation func(ctx context.Context) (any, error)

// slot tracks the in-flight state of one named query channel. The
// epoch counter is the supersession mechanism: each Execute bumps it,
// and a completing worker whose epoch is no longer current discards
// its result instead of dispatching callbacks.
type slot struct {
	cancel  context.CancelFunc
	epoch   uint64
	running bool
}

// Manager runs operations on a bounded set of worker goroutines and
// guarantees at most one live operation per slot name. Exactly one of
// onSuccess/onError fires per non-superseded request, always through
// the Dispatcher, never on the worker.
type Manager struct {
	dispatcher Dispatcher
	slots      map[string]*slot
	sem        chan struct{}
	mu         sync.Mutex
}

// NewManager creates a manager dispatching results through d, with at
// most workers operations running concurrently.
func NewManager(d Dispatcher, workers int) *Manager {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Manager{
		dispatcher: d,
		slots:      make(map[string]*slot),
		sem:        make(chan struct{}, workers),
	}
}

// Execute schedules op under the named slot and returns immediately.
// A request for a slot that is already running supersedes the earlier
// one: its context is canceled and its callbacks are suppressed.
func (m *Manager) Execute(ctx context.Context, name string, op Operation, onSuccess func(any), onError func(error)) {
	m.mu.Lock()
	s, ok := m.slots[name]
	if !ok {
		s = &slot{}
		m.slots[name] = s
	}

	if s.running && s.cancel != nil {
		slog.Debug("superseding in-flight operation", "slot", name, "epoch", s.epoch)
		s.cancel()
	}

	s.epoch++
	epoch := s.epoch
	opCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	m.mu.Unlock()

	go m.run(opCtx, cancel, name, epoch, op, onSuccess, onError)
}

func (m *Manager) run(ctx context.Context, cancel context.CancelFunc, name string, epoch uint64, op Operation, onSuccess func(any), onError func(error)) {
	defer cancel()

	// A superseded request may be waiting here when its replacement
	// arrives; skip the work entirely in that case.
	select {
	case m.sem <- struct{}{}:
	case <-ctx.Done():
		m.finish(name, epoch)
		return
	}
	defer func() { <-m.sem }()

	result, err := m.invoke(ctx, op)

	// The running flag must clear on every path, or the slot would
	// wedge and block all later requests for this name.
	current := m.finish(name, epoch)
	if !current {
		slog.Debug("discarding stale result", "slot", name, "epoch", epoch)
		return
	}

	if err != nil {
		if onError != nil {
			m.dispatcher.Dispatch(func() { onError(err) })
		} else {
			common.LogError(err, "async operation failed with no error callback", common.Fields{"slot": name})
		}
		return
	}
	if onSuccess != nil {
		m.dispatcher.Dispatch(func() { onSuccess(result) })
	}
}

// invoke runs op, converting a panic into ErrUnexpected so a faulty
// operation can never crash the process.
func (m *Manager) invoke(ctx context.Context, op Operation) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: panic in operation: %v", common.ErrUnexpected, r)
		}
	}()
	return op(ctx)
}

// finish clears the running flag when epoch is still current and
// reports whether it was.
func (m *Manager) finish(name string, epoch uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[name]
	if !ok || s.epoch != epoch {
		return false
	}
	s.running = false
	return true
}

// IsRunning reports whether the named slot has a live operation. Front
// ends use this as their loading indicator.
func (m *Manager) IsRunning(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[name]
	return ok && s.running
}

// Cancel supersedes the named slot without a replacement: the current
// operation's context is canceled and its callbacks are suppressed.
func (m *Manager) Cancel(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[name]
	if !ok || !s.running {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.epoch++
	s.running = false
}

// CancelAll supersedes every running slot.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, s := range m.slots {
		if !s.running {
			continue
		}
		if s.cancel != nil {
			s.cancel()
		}
		s.epoch++
		s.running = false
		slog.Debug("canceled slot", "slot", name)
	}
}
