package copylock

import "sync"

// table is a per-root lock table.
type table struct {
	mu    sync.Mutex
	roots map[string]int
}

func inFlight(t table) int { // want "passes lock by value"
	return len(t.roots)
}

func report() {
	var t table
	copied := t          // want "assignment copies lock value to copied"
	_ = inFlight(copied) // want "call of inFlight copies lock value"
}

func (t *table) lock(root string) func() {
	t.mu.Lock()
	t.roots[root]++
	return t.mu.Unlock
}
