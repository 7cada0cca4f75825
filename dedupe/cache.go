// Package dedupe implements the decaying duplicate-request cache used by
// the dispatch pipeline to suppress reprocessing of messages APRS-IS has
// retransmitted.
package dedupe

import (
	"crypto/md5"
	"encoding/hex"
	"sync"
	"time"
)

// Key fingerprints one inbound request for duplicate detection: the hash of
// its message text, the sender's callsign, and their message number (if
// any). Keys are immutable once built.
type Key struct {
	textHash     string
	fromCallsign string
	msgNo        string
}

// NewKey builds a Key from a request's message text, sender, and optional
// message number.
func NewKey(messageText, fromCallsign, msgNo string) Key {
	sum := md5.Sum([]byte(messageText))
	return Key{
		textHash:     hex.EncodeToString(sum[:]),
		fromCallsign: fromCallsign,
		msgNo:        msgNo,
	}
}

func (k Key) String() string {
	return k.textHash + "|" + k.fromCallsign + "|" + k.msgNo
}

type entry struct {
	insertedAt time.Time
}

// Cache is a TTL- and size-bounded set of Keys. It is safe for concurrent
// use, following the mutex-guarded map shape of the teacher's own
// dedupeCache, generalized with an explicit max-entry eviction policy.
type Cache struct {
	mu         sync.Mutex
	items      map[string]entry
	order      []string // insertion order, oldest first, for size eviction
	ttl        time.Duration
	maxEntries int
}

// New constructs a Cache with the given per-entry TTL and maximum entry
// count. A non-positive maxEntries disables size-based eviction.
func New(ttl time.Duration, maxEntries int) *Cache {
	return &Cache{
		items:      make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

// Has reports whether key is present and not expired. Lookups never mutate
// the entry's age.
func (c *Cache) Has(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key.String()]
	if !ok {
		return false
	}
	if c.ttl > 0 && time.Since(e.insertedAt) > c.ttl {
		return false
	}
	return true
}

// Put records key as seen at the current time. If the cache would exceed
// maxEntries, the oldest entry is evicted first.
func (c *Cache) Put(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key.String()
	if _, exists := c.items[k]; !exists {
		c.order = append(c.order, k)
	}
	c.items[k] = entry{insertedAt: time.Now()}

	if c.maxEntries > 0 {
		for len(c.items) > c.maxEntries && len(c.order) > 0 {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.items, oldest)
		}
	}
}

// Prune removes all expired entries. The dispatch pipeline is not required
// to call this directly; Has already treats expired entries as absent. It
// is exposed so a long-running session can bound memory use between hits.
func (c *Cache) Prune() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ttl <= 0 {
		return
	}
	now := time.Now()
	kept := c.order[:0]
	for _, k := range c.order {
		e, ok := c.items[k]
		if !ok {
			continue
		}
		if now.Sub(e.insertedAt) > c.ttl {
			delete(c.items, k)
			continue
		}
		kept = append(kept, k)
	}
	c.order = kept
}

// Len returns the current entry count, including any not-yet-pruned expired
// entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
