// Package reload implements the hot-reload controller of spec.md §4.7: a
// debounced rebuild that re-reads the on-disk configuration, resolves it
// into a new snapshot, and atomically swaps the live pointer, leaving the
// previous snapshot untouched on any validation failure.
//
// Grounded on the teacher's reloadProvider (internal/server/server.go): a
// "build a fresh value, then swap it into the live registry under a lock"
// shape, generalized here from one entry (a single provider) to the whole
// configuration (a snapshot swap) and extended with the debounce window
// and audit-history append spec.md adds that the teacher's own version
// does not need (it reloads one provider per explicit admin call, never a
// whole-tree rebuild).
package reload

import (
	"sync"
	"time"

	"github.com/rakunlabs/mockllm/internal/snapshot"
)

// Builder resolves the on-disk configuration into a new snapshot. Supplied
// by internal/config; kept as a function value here so this package has no
// dependency on YAML/file-system concerns.
type Builder func(generation uint64) (*snapshot.Snapshot, []error)

// HistorySink records the outcome of every reload attempt (the audit
// store's reload_history table). Optional; nil disables history.
type HistorySink interface {
	RecordReload(at time.Time, reloaded bool, errs []string)
}

// Controller owns the live snapshot pointer and serializes rebuilds behind
// a debounce window.
type Controller struct {
	debounce time.Duration
	build    Builder
	history  HistorySink

	mu          sync.Mutex
	current     *snapshot.Snapshot
	generation  uint64
	lastAttempt time.Time
	lastErrs    []error
	rebuilding  bool
}

// New constructs a Controller and performs the initial build (startup load,
// per spec.md §4.7's "triggered by ... the initial startup"). A failing
// initial build leaves current nil; callers should treat that as fatal.
func New(debounce time.Duration, build Builder, history HistorySink) (*Controller, []error) {
	c := &Controller{debounce: debounce, build: build, history: history}
	errs := c.rebuild()
	return c, errs
}

// Current returns the live snapshot. Safe for concurrent use; callers hold
// the returned pointer for the lifetime of the request they're serving
// (spec.md §5's "in-flight requests hold a reference to the snapshot that
// served them").
func (c *Controller) Current() *snapshot.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Reload runs the debounce check: while another Reload is rebuilding, or
// within the window since the last attempt, it returns {reloaded: false}
// without touching disk; otherwise
// it performs a real rebuild and reports {reloaded: true} (or the
// validation errors on failure).
func (c *Controller) Reload() (reloaded bool, errs []error) {
	c.mu.Lock()
	if c.rebuilding || (!c.lastAttempt.IsZero() && time.Since(c.lastAttempt) < c.debounce) {
		errs = c.lastErrs
		c.mu.Unlock()
		return false, errs
	}
	c.rebuilding = true
	c.mu.Unlock()

	errs = c.rebuild()

	c.mu.Lock()
	c.rebuilding = false
	c.mu.Unlock()
	return true, errs
}

// rebuild performs the actual read-resolve-swap sequence. errs is non-nil
// only on validation failure, in which case the live snapshot is left
// untouched.
func (c *Controller) rebuild() []error {
	c.mu.Lock()
	nextGen := c.generation + 1
	c.mu.Unlock()

	snap, errs := c.build(nextGen)

	now := time.Now()
	c.mu.Lock()
	c.lastAttempt = now
	c.lastErrs = errs
	if errs == nil {
		c.current = snap
		c.generation = nextGen
	}
	c.mu.Unlock()

	if c.history != nil {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		c.history.RecordReload(now, errs == nil, msgs)
	}

	return errs
}
