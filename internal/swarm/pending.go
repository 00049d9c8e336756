package swarm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Result is the outcome delivered to a waiting caller.
type Result struct {
	Response Response
	Err      error
}

// entry is an outstanding request.
type entry struct {
	rid      string
	command  string
	issuedAt time.Time
	deadline time.Time // Zero when the request has no timeout

	timer *time.Timer
	done  chan Result // Buffered (1); written exactly once by whoever removes the entry
}

// Handle is the caller's side of a registered request.
type Handle struct {
	rid   string
	table *Table
	done  <-chan Result
}

// ID returns the correlation id.
func (h *Handle) ID() string { return h.rid }

// Done returns a channel that receives the single result.
func (h *Handle) Done() <-chan Result { return h.done }

// Wait blocks until the request resolves. If ctx ends first the entry is
// removed and failed with ctx.Err().
func (h *Handle) Wait(ctx context.Context) (Response, error) {
	select {
	case res := <-h.done:
		return res.Response, res.Err
	case <-ctx.Done():
		h.table.Fail(h.rid, ctx.Err())
		// Either the Fail above or a resolution that won the race has filled done.
		res := <-h.done
		return res.Response, res.Err
	}
}

// Table maps correlation ids to outstanding requests.
// Every registered entry is removed, and its result delivered, exactly once.
type Table struct {
	mu      sync.Mutex
	entries map[string]*entry
	failed  error // Set by FailAll; later registrations are rejected with it
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		entries: make(map[string]*entry),
	}
}

// Register inserts an entry for rid. A positive timeout arms a deadline timer
// that fails the entry with ErrRequestTimeout.
func (t *Table) Register(rid, command string, timeout time.Duration) (*Handle, error) {
	now := time.Now()
	e := &entry{
		rid:      rid,
		command:  command,
		issuedAt: now,
		done:     make(chan Result, 1),
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.failed != nil {
		return nil, t.failed
	}
	if _, exists := t.entries[rid]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, rid)
	}

	if timeout > 0 {
		e.deadline = now.Add(timeout)
		e.timer = time.AfterFunc(timeout, func() {
			t.finish(rid, Result{
				Err: fmt.Errorf("%w: %s after %s", ErrRequestTimeout, command, timeout),
			})
		})
	}
	t.entries[rid] = e

	return &Handle{rid: rid, table: t, done: e.done}, nil
}

// Resolve delivers a reply to the entry with the reply's rid.
// It returns false when no such entry exists (late or unknown reply).
func (t *Table) Resolve(resp Response) bool {
	return t.finish(resp.RID, Result{Response: resp, Err: resp.Err()})
}

// Fail removes the entry for rid and delivers err. It returns false when no
// such entry exists.
func (t *Table) Fail(rid string, err error) bool {
	return t.finish(rid, Result{Err: err})
}

// FailAll delivers err to every outstanding entry, empties the table and
// rejects further registrations. It returns the number of entries failed.
func (t *Table) FailAll(err error) int {
	t.mu.Lock()
	if t.failed == nil {
		t.failed = err
	}
	entries := t.entries
	t.entries = make(map[string]*entry)
	t.mu.Unlock()

	for _, e := range entries {
		if e.timer != nil {
			e.timer.Stop()
		}
		e.done <- Result{Err: err}
	}
	return len(entries)
}

// Len returns the number of outstanding entries.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Deadline returns the deadline of an outstanding entry.
func (t *Table) Deadline(rid string) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[rid]
	if !ok {
		return time.Time{}, false
	}
	return e.deadline, true
}

// finish removes the entry and delivers res. Only the goroutine that removes
// the entry writes to done.
func (t *Table) finish(rid string, res Result) bool {
	if rid == "" {
		return false
	}

	t.mu.Lock()
	e, ok := t.entries[rid]
	if ok {
		delete(t.entries, rid)
	}
	t.mu.Unlock()

	if !ok {
		return false
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.done <- res
	return true
}
