package scheduler

import "sync"

// BulletinTable merges a static config-supplied set of bulletins with an
// optional dynamic set the host program can update at runtime. On key
// collision the dynamic entry wins. Grounded on the dynamic-bulletin-table
// design note in §9: a thread-safe setter exposed to the host, snapshotted
// atomically by the scheduler at each emission.
type BulletinTable struct {
	mu      sync.RWMutex
	static  map[string]string
	dynamic map[string]string
}

// NewBulletinTable constructs a table seeded with the static entries loaded
// from config. static is copied; callers are free to discard their map.
func NewBulletinTable(static map[string]string) *BulletinTable {
	cp := make(map[string]string, len(static))
	for k, v := range static {
		cp[k] = v
	}
	return &BulletinTable{static: cp, dynamic: make(map[string]string)}
}

// Set installs or updates a dynamic bulletin entry, called by host code from
// any goroutine.
func (t *BulletinTable) Set(id, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dynamic[id] = text
}

// Delete removes a dynamic bulletin entry, if present. It never touches the
// static set loaded from config.
func (t *BulletinTable) Delete(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.dynamic, id)
}

// Snapshot returns the merged static ∪ dynamic view at this instant, with
// dynamic entries winning on key collision. Called by the scheduler at each
// bulletin fire.
func (t *BulletinTable) Snapshot() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]string, len(t.static)+len(t.dynamic))
	for k, v := range t.static {
		out[k] = v
	}
	for k, v := range t.dynamic {
		out[k] = v
	}
	return out
}
