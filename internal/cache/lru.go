package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/devchat-app/aidebug/internal/model"
)

// DefaultMaxEntries bounds an LRUCache created with a non-positive size.
const DefaultMaxEntries = 1000

// LRUCache keeps the most recently used reports in memory. The front of
// order is the newest entry; eviction takes from the back.
type LRUCache struct {
	capacity int
	ttl      time.Duration
	now      func() time.Time

	mu     sync.Mutex
	index  map[string]*list.Element
	order  *list.List
	hits   int64
	misses int64
}

type lruItem struct {
	key     string
	report  *model.Report
	expires time.Time // zero when the cache has no TTL
}

func (it *lruItem) expired(now time.Time) bool {
	return !it.expires.IsZero() && now.After(it.expires)
}

// NewLRUCache creates an LRU cache. A zero ttl keeps entries until evicted.
func NewLRUCache(maxEntries int, ttl time.Duration) *LRUCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &LRUCache{
		capacity: maxEntries,
		ttl:      ttl,
		now:      time.Now,
		index:    make(map[string]*list.Element, maxEntries),
		order:    list.New(),
	}
}

// Get returns the report for key. Expired entries are dropped on access.
func (c *LRUCache) Get(key string) (*model.Report, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[key]
	if ok && el.Value.(*lruItem).expired(c.now()) {
		c.remove(el)
		ok = false
	}
	if !ok {
		c.misses++
		return nil, false, nil
	}

	c.order.MoveToFront(el)
	c.hits++
	return el.Value.(*lruItem).report, true, nil
}

// Set stores report under key, evicting the least recently used entry
// when the cache is full.
func (c *LRUCache) Set(key string, report *model.Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expires time.Time
	if c.ttl > 0 {
		expires = c.now().Add(c.ttl)
	}

	if el, ok := c.index[key]; ok {
		it := el.Value.(*lruItem)
		it.report, it.expires = report, expires
		c.order.MoveToFront(el)
		return nil
	}

	for c.order.Len() >= c.capacity {
		c.remove(c.order.Back())
	}
	c.index[key] = c.order.PushFront(&lruItem{key: key, report: report, expires: expires})
	return nil
}

func (c *LRUCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.index)
	c.order.Init()
	return nil
}

func (c *LRUCache) Close() error { return nil }

func (c *LRUCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Entries: c.order.Len()}
}

func (c *LRUCache) remove(el *list.Element) {
	delete(c.index, el.Value.(*lruItem).key)
	c.order.Remove(el)
}
