package engine

import "sync"

// cursor hands out item indexes to workers. The lock is held only for
// the read-increment; it never covers remote calls. Indexes are
// monotonically increasing and never revisited.
type cursor struct {
	mu    sync.Mutex
	next  int
	limit int
}

func newCursor(limit int) *cursor {
	return &cursor{limit: limit}
}

// claim returns the next unclaimed index, or false when the list is
// exhausted.
func (c *cursor) claim() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.next >= c.limit {
		return 0, false
	}
	i := c.next
	c.next++
	return i, true
}
