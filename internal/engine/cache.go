package engine

import (
	"time"

	"FeedAnnotator/internal/domain"
)

type cachedVerdict struct {
	verdict  domain.Verdict
	storedAt time.Time
}

// annotationCache holds resolved verdicts in two slots sharing one key
// space: a short-TTL slot that governs whether a fetch is skipped, and an
// unbounded "last known good" slot used to re-render UI without re-fetching
// when the host replaces a node. Owned by the scheduler goroutine; no
// locking.
type annotationCache struct {
	ttl      time.Duration
	now      func() time.Time
	fresh    map[string]cachedVerdict
	lastGood map[string]domain.Verdict
}

func newAnnotationCache(ttl time.Duration, now func() time.Time) *annotationCache {
	if now == nil {
		now = time.Now
	}
	return &annotationCache{
		ttl:      ttl,
		now:      now,
		fresh:    make(map[string]cachedVerdict),
		lastGood: make(map[string]domain.Verdict),
	}
}

// get returns the verdict from the TTL slot, evicting it when stale.
func (c *annotationCache) get(id string) (domain.Verdict, bool) {
	entry, ok := c.fresh[id]
	if !ok {
		return domain.Verdict{}, false
	}
	if c.now().Sub(entry.storedAt) > c.ttl {
		delete(c.fresh, id)
		return domain.Verdict{}, false
	}
	return entry.verdict, true
}

// lastKnown returns the long-lived verdict for immediate re-render while a
// background refresh may be in flight.
func (c *annotationCache) lastKnown(id string) (domain.Verdict, bool) {
	v, ok := c.lastGood[id]
	return v, ok
}

// put replaces the TTL slot. Only found verdicts are promoted to the
// last-known-good slot; a not-found result must not shadow an earlier score.
func (c *annotationCache) put(id string, v domain.Verdict) {
	c.fresh[id] = cachedVerdict{verdict: v, storedAt: c.now()}
	if v.Found {
		c.lastGood[id] = v
	}
}
