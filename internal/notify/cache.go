package notify

import (
	"sync"
)

// In-memory bounded store of the most recent notifications plus the unread
// counter. No I/O happens here; the stream dispatcher and the session feed it.

const (
	// RecentCap is the maximum number of notifications kept for display
	RecentCap = 5
	// dedupCap bounds the record of already-ingested ids. Oldest entries are
	// evicted FIFO once the record is full, so the record cannot grow without
	// limit across a long-lived session.
	dedupCap = 4 * RecentCap
)

// Cache holds one user's local notification view.
// All methods are safe for concurrent use: the stream read goroutine, timer
// callbacks and user commands all mutate it.
type Cache struct {
	mu     sync.Mutex
	recent []Notification // newest first, len <= RecentCap
	unread int

	// dedup record: set + FIFO eviction order
	seen      map[int64]struct{}
	seenOrder []int64
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{
		seen: make(map[int64]struct{}, dedupCap),
	}
}

// IngestRealtime applies one notification delivered over the stream.
// Idempotent: a duplicate delivery of an already-seen id changes nothing.
func (c *Cache) IngestRealtime(n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, dup := c.seen[n.ID]; dup {
		return
	}
	c.markSeen(n.ID)

	c.recent = append([]Notification{n}, c.recent...)
	if len(c.recent) > RecentCap {
		c.recent = c.recent[:RecentCap]
	}
	if !n.IsRead {
		c.unread++
	}
}

// MarkRead marks one entry read and decrements the unread counter by exactly
// one, floored at zero. Already-read or unknown ids are a no-op.
func (c *Cache) MarkRead(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.recent {
		if c.recent[i].ID == id && !c.recent[i].IsRead {
			c.recent[i].IsRead = true
			if c.unread > 0 {
				c.unread--
			}
			return
		}
	}
}

// MarkAllRead marks every entry read and zeroes the unread counter
func (c *Cache) MarkAllRead() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.recent {
		c.recent[i].IsRead = true
	}
	c.unread = 0
}

// Delete removes an entry from the recent list. Deleting an unread entry
// decrements the counter (floored at zero); deleting a read entry does not
// touch it.
func (c *Cache) Delete(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.recent {
		if c.recent[i].ID != id {
			continue
		}
		if !c.recent[i].IsRead && c.unread > 0 {
			c.unread--
		}
		c.recent = append(c.recent[:i], c.recent[i+1:]...)
		return
	}
}

// Reconcile overwrites local state with the server's authoritative snapshot
// (newest first). This is a replacement, not a merge: it exists to correct
// drift from optimistic mutations and events missed while disconnected.
// Snapshot ids are recorded as seen so a replayed stream delivery of a listed
// notification cannot produce a second entry with the same id.
func (c *Cache) Reconcile(snapshot []Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	unread := 0
	for _, n := range snapshot {
		if !n.IsRead {
			unread++
		}
		if _, ok := c.seen[n.ID]; !ok {
			c.markSeen(n.ID)
		}
	}
	c.unread = unread

	top := snapshot
	if len(top) > RecentCap {
		top = top[:RecentCap]
	}
	c.recent = append([]Notification(nil), top...)
}

// Unread returns the current unread counter
func (c *Cache) Unread() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread
}

// Recent returns a copy of the recent list, newest first
func (c *Cache) Recent() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification(nil), c.recent...)
}

// markSeen records an id in the dedup record, evicting the oldest entry when
// the record is at capacity. Caller holds c.mu.
func (c *Cache) markSeen(id int64) {
	if len(c.seenOrder) >= dedupCap {
		oldest := c.seenOrder[0]
		c.seenOrder = c.seenOrder[1:]
		delete(c.seen, oldest)
	}
	c.seen[id] = struct{}{}
	c.seenOrder = append(c.seenOrder, id)
}
