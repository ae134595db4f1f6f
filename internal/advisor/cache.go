package advisor

import (
	"container/list"
	"sync"
	"time"

	"github.com/campusgrid/timetable-api/internal/models"
)

// reportCache memoizes advisory reports keyed by a digest of the request
// payload. Capacity is fixed: inserting into a full cache evicts the least
// recently used entry, and entries expire after the configured TTL.
type reportCache struct {
	ttl      time.Duration
	capacity int

	mu    sync.Mutex
	order *list.List
	items map[string]*list.Element

	now func() time.Time
}

type cacheEntry struct {
	key      string
	report   models.AdvisoryReport
	storedAt time.Time
}

func newReportCache(ttl time.Duration, capacity int) *reportCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if capacity <= 0 {
		capacity = 128
	}
	return &reportCache{
		ttl:      ttl,
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element),
		now:      time.Now,
	}
}

// Get returns a copy of the cached report for key, if present and fresh.
func (c *reportCache) Get(key string) (*models.AdvisoryReport, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*cacheEntry)
	if c.now().Sub(entry.storedAt) > c.ttl {
		c.order.Remove(elem)
		delete(c.items, key)
		return nil, false
	}
	c.order.MoveToFront(elem)
	report := entry.report
	return &report, true
}

// Put stores a report under key, evicting the oldest entry when full.
func (c *reportCache) Put(key string, report models.AdvisoryReport) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.report = report
		entry.storedAt = c.now()
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
		}
	}

	elem := c.order.PushFront(&cacheEntry{key: key, report: report, storedAt: c.now()})
	c.items[key] = elem
}

// Clear drops every cached report.
func (c *reportCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[string]*list.Element)
}

// Len reports the number of live entries, expired ones included.
func (c *reportCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
