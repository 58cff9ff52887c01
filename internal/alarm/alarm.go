// Package alarm fires the periodic expiration check. The schedule is
// best-effort and at-least-once: firings may be delayed or coalesced,
// which the idempotent sweep tolerates, so nothing here compensates for
// missed ticks.
package alarm

import (
	"context"
	"sync"
	"time"

	"github.com/lotas/tabsammlung/internal/applog"
)

// Alarm runs a callback on a fixed interval and reports its schedule.
type Alarm struct {
	interval time.Duration
	fire     func(context.Context)

	mu      sync.Mutex
	running bool
	next    time.Time
}

// New creates an alarm. An interval of zero or less makes the alarm
// unavailable: Start degrades to one immediate firing (the
// scheduler-unavailable policy — startup must not fail).
func New(interval time.Duration, fire func(context.Context)) *Alarm {
	return &Alarm{interval: interval, fire: fire}
}

// Start runs the alarm loop until ctx is cancelled. It fires once
// immediately, then on every interval tick. Blocks; run in a goroutine.
func (a *Alarm) Start(ctx context.Context) {
	a.fire(ctx)

	if a.interval <= 0 {
		applog.Info("alarm.unavailable")
		return
	}

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.mu.Lock()
	a.running = true
	a.next = time.Now().Add(a.interval)
	a.mu.Unlock()
	applog.Info("alarm.started", "interval", a.interval)

	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.mu.Lock()
			a.next = time.Now().Add(a.interval)
			a.mu.Unlock()
			a.fire(ctx)
		}
	}
}

// Status reports whether the periodic alarm exists and, if so, the next
// scheduled firing in unix millis.
func (a *Alarm) Status() (exists bool, scheduledTime int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return false, 0
	}
	return true, a.next.UnixMilli()
}
