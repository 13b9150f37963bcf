// Package watch re-checks roots whenever files under them change.
package watch

import (
	"sync"
	"time"
)

// MaxPendingRoots is the maximum number of roots that can be pending.
// If this limit is reached, a flush is triggered immediately.
const MaxPendingRoots = 1000

// Debouncer coalesces rapid file change events into batched root re-checks.
// It groups events within a time window so that a burst of saves (IDE
// autosave, formatter runs, a checkout) triggers a single check per root.
type Debouncer struct {
	mu      sync.Mutex
	pending map[string]struct{} // set of pending roots
	timer   *time.Timer
	window  time.Duration
	onFlush func(roots []string)
	stopped bool
}

// NewDebouncer creates a debouncer with the given window duration.
// The onFlush callback is called with the affected roots after the window
// expires with no new events.
func NewDebouncer(window time.Duration, onFlush func(roots []string)) *Debouncer {
	return &Debouncer{
		pending: make(map[string]struct{}),
		window:  window,
		onFlush: onFlush,
	}
}

// Add records a change under root. Repeated calls within the window coalesce.
func (d *Debouncer) Add(root string) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}

	d.pending[root] = struct{}{}

	// Force an immediate flush at the pending limit
	if len(d.pending) >= MaxPendingRoots {
		roots := d.takeLocked()
		d.mu.Unlock()
		d.call(roots)
		return
	}

	// timer.Stop may lose the race with an already-fired timer; flush then
	// finds nothing pending and returns.
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.FlushNow)
	d.mu.Unlock()
}

// FlushNow immediately flushes pending roots without waiting for the timer.
func (d *Debouncer) FlushNow() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	roots := d.takeLocked()
	d.mu.Unlock()
	d.call(roots)
}

// Stop stops the debouncer. Any pending roots are flushed.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	roots := d.takeLocked()
	d.mu.Unlock()
	d.call(roots)
}

// takeLocked stops the timer and empties the pending set. Caller must hold d.mu.
func (d *Debouncer) takeLocked() []string {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if len(d.pending) == 0 {
		return nil
	}
	roots := make([]string, 0, len(d.pending))
	for root := range d.pending {
		roots = append(roots, root)
	}
	d.pending = make(map[string]struct{})
	return roots
}

// call runs the handler outside the lock.
func (d *Debouncer) call(roots []string) {
	if len(roots) > 0 && d.onFlush != nil {
		d.onFlush(roots)
	}
}

// PendingCount returns the number of roots waiting to be flushed.
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
