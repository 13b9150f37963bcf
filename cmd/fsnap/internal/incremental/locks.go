package incremental

import "sync"

// rootLocks hands out one mutex per root. Entries are dropped when the last
// holder unlocks, so the map only ever holds roots that are in flight.
type rootLocks struct {
	mu    sync.Mutex
	locks map[string]*rootLock
}

type rootLock struct {
	sync.Mutex
	refs int
}

func newRootLocks() *rootLocks {
	return &rootLocks{locks: make(map[string]*rootLock)}
}

// lock blocks until root is free and returns the matching unlock.
func (r *rootLocks) lock(root string) (unlock func()) {
	r.mu.Lock()
	l, ok := r.locks[root]
	if !ok {
		l = &rootLock{}
		r.locks[root] = l
	}
	l.refs++
	r.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, root)
		}
		r.mu.Unlock()
	}
}

// inFlight returns the number of roots currently locked or waited on.
func (r *rootLocks) inFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}
