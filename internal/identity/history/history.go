package history

import (
	"container/list"
	"sync"
	"time"

	"padron/internal/identity/models"
)

// Cache is the per-session history of successful identity lookups.
//
// Invariants:
//   - at most one entry per identity number
//   - entries are ordered most-recent-first by their original consultation
//   - an existing entry is never moved, duplicated or re-timestamped
//   - with a capacity, the oldest entry is evicted to make room
//
// Writes are serialized; reads return copies and may run concurrently.
type Cache struct {
	mu       sync.RWMutex
	order    *list.List // of item, front is newest
	index    map[string]*list.Element
	capacity int
	now      func() time.Time
}

type item struct {
	id    string
	entry models.HistoryEntry
}

// Option configures a Cache.
type Option func(*Cache)

// WithCapacity bounds the cache to n entries. Zero or negative means unbounded.
func WithCapacity(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithClock overrides the source of ConsultedAt timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

func New(opts ...Option) *Cache {
	c := &Cache{
		order: list.New(),
		index: make(map[string]*list.Element),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Has reports whether id was already consulted successfully in this session.
func (c *Cache) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.index[id]
	return ok
}

// Get returns the stored record for id.
func (c *Cache) Get(id string) (models.PersonRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	el, ok := c.index[id]
	if !ok {
		return models.PersonRecord{}, false
	}
	return el.Value.(item).entry.Record, true
}

// RecordSuccess prepends a new entry for id. It returns false and leaves the
// cache untouched when id is already present.
func (c *Cache) RecordSuccess(id string, record models.PersonRecord) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.index[id]; ok {
		return false
	}
	entry := models.HistoryEntry{Record: record, ConsultedAt: c.now()}
	c.index[id] = c.order.PushFront(item{id: id, entry: entry})
	if c.capacity > 0 && c.order.Len() > c.capacity {
		c.evictOldest()
	}
	return true
}

func (c *Cache) evictOldest() {
	oldest := c.order.Back()
	if oldest == nil {
		return
	}
	c.order.Remove(oldest)
	delete(c.index, oldest.Value.(item).id)
}

// List returns a snapshot of all entries, most recent first. Later writes do
// not affect a returned slice.
func (c *Cache) List() []models.HistoryEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.HistoryEntry, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(item).entry)
	}
	return out
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.order.Len()
}
