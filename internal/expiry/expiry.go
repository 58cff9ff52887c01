// Package expiry computes retention cutoffs and evicts stale domain
// groups. A group's lifecycle is Fresh until savedAt + retention passes,
// then it is evicted. The sweep is idempotent and order-independent, so
// a delayed, coalesced, or duplicated timer firing is harmless.
package expiry

import (
	"time"

	"github.com/lotas/tabsammlung/internal/types"
)

// Retention label durations. "30sec" exists for testing the eviction
// path without waiting.
var retentions = map[string]time.Duration{
	"30sec":   30 * time.Second,
	"1min":    time.Minute,
	"1hour":   time.Hour,
	"1day":    24 * time.Hour,
	"7days":   7 * 24 * time.Hour,
	"14days":  14 * 24 * time.Hour,
	"30days":  30 * 24 * time.Hour,
	"180days": 180 * 24 * time.Hour,
	"365days": 365 * 24 * time.Hour,
}

// Duration resolves a retention label. ok is false for "never" and for
// any unrecognized label — both disable eviction.
func Duration(label string) (time.Duration, bool) {
	d, ok := retentions[label]
	return d, ok
}

// ComputeCutoff maps a retention label to the eviction cutoff in unix
// millis: groups saved before the cutoff are stale. Returns ok=false
// when the label disables eviction.
func ComputeCutoff(label string, now int64) (cutoff int64, ok bool) {
	d, ok := Duration(label)
	if !ok {
		return 0, false
	}
	return now - d.Milliseconds(), true
}

// SweepResult separates surviving groups from evicted ones. Evicted
// group ids feed the parent-category cascade.
type SweepResult struct {
	Kept      []types.TabGroup
	Evicted   []types.TabGroup
	EvictedID []string
}

// Sweep partitions the snapshot by the cutoff. A group with no savedAt
// is treated as fresh-as-of-now and backfilled with the current time —
// a missing timestamp must never read as infinite age. Applying Sweep
// to its own Kept output yields the same Kept set.
func Sweep(snapshot []types.TabGroup, cutoff, now int64) SweepResult {
	var res SweepResult
	for _, g := range snapshot {
		if g.SavedAt == 0 {
			g.SavedAt = now
			res.Kept = append(res.Kept, g)
			continue
		}
		if g.SavedAt < cutoff {
			res.Evicted = append(res.Evicted, g)
			res.EvictedID = append(res.EvictedID, g.ID)
			continue
		}
		res.Kept = append(res.Kept, g)
	}
	return res
}

// Remaining reports how long a record saved at savedAt has left under
// the retention label. ok is false when the label disables eviction
// (nothing ever expires). A negative remaining means already expired.
func Remaining(savedAt int64, label string, now int64) (remaining, expiresAt int64, ok bool) {
	d, ok := Duration(label)
	if !ok {
		return 0, 0, false
	}
	expiresAt = savedAt + d.Milliseconds()
	return expiresAt - now, expiresAt, true
}
