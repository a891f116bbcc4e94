// Package dedup tracks accepted call identifiers so resubmissions of the
// same call are rejected instead of billed twice.
package dedup

import "sync"

// Index is the set of call IDs already accepted. It grows for the process
// lifetime unless an external retention policy prunes it through Evict.
type Index struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewIndex() *Index {
	return &Index{seen: make(map[string]struct{})}
}

// Admit records the call ID as seen and reports whether it was new. The
// check and the insert happen in one step, so of any number of concurrent
// submissions of the same ID exactly one is admitted.
func (x *Index) Admit(callID string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	if _, dup := x.seen[callID]; dup {
		return false
	}
	x.seen[callID] = struct{}{}
	return true
}

// Seen reports whether the call ID has been admitted.
func (x *Index) Seen(callID string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	_, ok := x.seen[callID]
	return ok
}

// Release removes a provisional reservation. Used when persistence fails
// after Admit, so a retry of the same call is not rejected as a duplicate.
func (x *Index) Release(callID string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	delete(x.seen, callID)
}

// Evict drops the given call IDs. Retention hook for an external pruning
// policy; the index itself never expires entries.
func (x *Index) Evict(callIDs []string) int {
	x.mu.Lock()
	defer x.mu.Unlock()

	evicted := 0
	for _, id := range callIDs {
		if _, ok := x.seen[id]; ok {
			delete(x.seen, id)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of tracked call IDs.
func (x *Index) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()

	return len(x.seen)
}
