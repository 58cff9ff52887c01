package organizer

import (
	"context"
	"sync"
	"time"

	"github.com/lotas/tabsammlung/internal/applog"
	"github.com/lotas/tabsammlung/internal/types"
)

// dragTTL bounds how long a started drag stays consumable. A drop
// arriving later refers to some other gesture.
const dragTTL = 30 * time.Second

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// dragTracker remembers the most recently dragged url as a short-lived
// value: set on urlDragStarted, consumed once on urlDropped, expired by
// TTL. It deliberately lives here and not in any store — it is
// transient gesture state, never persisted.
type dragTracker struct {
	mu        sync.Mutex
	url       string
	startedAt time.Time
	consumed  bool
}

func (d *dragTracker) start(url string, at time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.url = url
	d.startedAt = at
	d.consumed = false
}

// consume marks the pending drag consumed and returns its url, or ""
// when there is no live unconsumed drag.
func (d *dragTracker) consume(at time.Time) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.url == "" || d.consumed || at.Sub(d.startedAt) > dragTTL {
		return ""
	}
	d.consumed = true
	return d.url
}

// DragStarted records that the user began dragging a saved url.
func (o *Organizer) DragStarted(url string) {
	o.drag.start(url, time.Now())
	applog.Info("drag.started", "url", url)
}

// Dropped handles the end of a drag gesture. A drop from an external
// source is a new tab to save — its title is resolved best-effort since
// external drops carry none. A drop of one of our own urls into the
// browser means the tab was opened; when removeTabAfterOpen is set the
// url leaves the collection.
func (o *Organizer) Dropped(ctx context.Context, url string, fromExternal bool) error {
	if fromExternal {
		title := o.fetchTitle(ctx, url)
		if title == "" {
			title = url
		}
		_, err := o.SaveTabs(ctx, []types.Tab{{URL: url, Title: title}})
		return err
	}

	dragged := o.drag.consume(time.Now())
	if dragged == "" || dragged != url {
		applog.Info("drag.drop.stale", "url", url)
		return nil
	}

	settings, err := o.store.LoadSettings(ctx)
	if err != nil {
		return err
	}
	if !settings.RemoveAfterOpen() {
		return nil
	}
	return o.RemoveURL(ctx, url)
}
