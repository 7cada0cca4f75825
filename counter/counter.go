// Package counter implements the persistent outbound message counter: a
// small nonnegative integer, wrapped at 677, flushed to and loaded from a
// plain-text file. Grounded on the original project's
// read_aprs_message_counter/write_aprs_message_counter pair: missing or
// unreadable files start the counter at 0 rather than failing startup.
package counter

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// WrapAt is the modulus Set and Load reduce stored values by. Next wraps
// earlier, right after handing out lastValidValue (675).
const WrapAt = 677

// Counter is a mutex-guarded nonnegative integer meant to be shared between
// the dispatch goroutine (writer) and the supervisor loop (flusher).
type Counter struct {
	mu  sync.Mutex
	val int
	log *logrus.Logger
}

// New constructs a zeroed Counter.
func New(log *logrus.Logger) *Counter {
	return &Counter{log: log}
}

// Load reads the counter value from path. Any error — missing file,
// permission error, non-integer content — results in the counter starting
// at 0, logged once rather than aborting startup.
func (c *Counter) Load(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := os.ReadFile(path)
	if err != nil {
		if c.log != nil {
			c.log.WithError(err).WithField("path", path).Info("counter file unreadable, starting at 0")
		}
		c.val = 0
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		if c.log != nil {
			c.log.WithError(err).WithField("path", path).Warn("counter file content not an integer, starting at 0")
		}
		c.val = 0
		return
	}
	c.val = ((n % WrapAt) + WrapAt) % WrapAt
}

// Get returns the current value.
func (c *Counter) Get() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.val
}

// Set stores n, wrapped modulo 677. Callers that already applied wrap logic
// (see msgnum.IsLast) pass the wrapped value directly.
func (c *Counter) Set(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.val = ((n % WrapAt) + WrapAt) % WrapAt
}

// Next returns the current value and advances the counter by one segment,
// wrapping to 0 once the value just returned is 675 — the one that encodes
// to "ZZ", the last tag of a cycle (msgnum.Encode(675) == "ZZ"). Matches
// get_alphanumeric_counter_value: the counter wraps when alpha_counter
// == "ZZ", not one past it.
func (c *Counter) Next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := c.val
	next := cur + 1
	if cur >= lastValidValue {
		next = 0
	}
	c.val = next
	return cur
}

// lastValidValue mirrors msgnum.MaxValue (msgnum.Encode(675) == "ZZ");
// duplicating this one constant keeps counter free of any dependency on
// msgnum.
const lastValidValue = 675

// Flush writes the current value to path as decimal text. Failures are
// logged and swallowed; the in-memory value is never lost because of a
// flush error.
func (c *Counter) Flush(path string) {
	c.mu.Lock()
	v := c.val
	c.mu.Unlock()

	if err := os.WriteFile(path, []byte(strconv.Itoa(v)), 0o644); err != nil {
		if c.log != nil {
			c.log.WithError(err).WithField("path", path).Warn("failed to flush counter")
		}
	}
}
