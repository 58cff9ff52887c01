// Package organizer composes the stores: it reads full snapshots from
// the blob store, runs the pure store operations on them, and commits
// the results. It is the only layer that touches storage, so the
// merge→classify→stamp→commit sequence inside one call never interleaves
// with another handler between those steps.
package organizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/lotas/tabsammlung/internal/applog"
	"github.com/lotas/tabsammlung/internal/category"
	"github.com/lotas/tabsammlung/internal/expiry"
	"github.com/lotas/tabsammlung/internal/groups"
	"github.com/lotas/tabsammlung/internal/parentcat"
	"github.com/lotas/tabsammlung/internal/storage"
	"github.com/lotas/tabsammlung/internal/types"
)

// TitleFunc resolves a page title for a URL that arrived without one.
// Implementations may hit the network; a failed lookup returns "".
type TitleFunc func(ctx context.Context, url string) string

// Organizer wires the pure store packages to the blob-store boundary.
type Organizer struct {
	store      *storage.Store
	now        func() int64 // unix millis
	fetchTitle TitleFunc
	drag       dragTracker
}

// Option configures an Organizer.
type Option func(*Organizer)

// WithClock overrides the millisecond clock (tests).
func WithClock(now func() int64) Option {
	return func(o *Organizer) { o.now = now }
}

// WithTitleFunc sets the title resolver for externally dropped URLs.
func WithTitleFunc(f TitleFunc) Option {
	return func(o *Organizer) { o.fetchTitle = f }
}

// New creates an Organizer over the given store.
func New(store *storage.Store, opts ...Option) *Organizer {
	o := &Organizer{
		store:      store,
		now:        nowMillis,
		fetchTitle: func(context.Context, string) string { return "" },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SaveResult summarizes one save call.
type SaveResult struct {
	Groups   int // groups in the committed snapshot
	Added    int // url entries appended
	Skipped  int // tabs dropped (invalid, excluded scheme, exclusion pattern)
	Relinked int // fresh groups re-attached to a category via domainNames
}

// SaveTabs runs the full auto-categorization pipeline on a tab batch:
// exclusion filtering, domain merge, keyword classification, savedAt
// stamping, category re-association, one commit. SavedAt is stamped
// only on groups that actually gained entries — re-saving a duplicate
// batch never resets an existing group's expiration clock.
func (o *Organizer) SaveTabs(ctx context.Context, tabs []types.Tab) (SaveResult, error) {
	settings, err := o.store.LoadSettings(ctx)
	if err != nil {
		return SaveResult{}, fmt.Errorf("load settings: %w", err)
	}

	filtered := make([]types.Tab, 0, len(tabs))
	excluded := 0
	for _, tab := range tabs {
		if matchesAny(tab.URL, settings.ExcludePatterns) {
			excluded++
			continue
		}
		filtered = append(filtered, tab)
	}

	snapshot, err := o.store.LoadGroups(ctx)
	if err != nil {
		return SaveResult{}, fmt.Errorf("load groups: %w", err)
	}

	now := o.now()
	merged := groups.Merge(snapshot, filtered, now)

	added := 0
	for i := range merged.Groups {
		g := &merged.Groups[i]
		n, touched := merged.Appended[g.ID]
		if !touched {
			continue
		}
		added += n
		category.ApplyToGroup(g)
		g.SavedAt = now
	}

	relinked, err := o.relinkCreated(ctx, merged)
	if err != nil {
		return SaveResult{}, err
	}

	if err := o.store.SaveGroups(ctx, merged.Groups); err != nil {
		return SaveResult{}, fmt.Errorf("save groups: %w", err)
	}

	res := SaveResult{
		Groups:   len(merged.Groups),
		Added:    added,
		Skipped:  merged.Skipped + excluded,
		Relinked: relinked,
	}
	applog.Info("tabs.saved", "groups", res.Groups, "added", res.Added, "skipped", res.Skipped)
	return res, nil
}

// relinkCreated attaches freshly created groups to the category whose
// durable domainNames records their domain. Mutates merged.Groups in
// place and commits the category snapshot when membership changed.
func (o *Organizer) relinkCreated(ctx context.Context, merged groups.MergeResult) (int, error) {
	if len(merged.Created) == 0 {
		return 0, nil
	}
	cats, err := o.store.LoadParentCategories(ctx)
	if err != nil {
		return 0, fmt.Errorf("load parent categories: %w", err)
	}
	if len(cats) == 0 {
		return 0, nil
	}

	relinked := 0
	for _, id := range merged.Created {
		gi := groups.FindByID(merged.Groups, id)
		if gi < 0 {
			continue
		}
		ci := parentcat.CategoryForDomain(cats, merged.Groups[gi].Domain)
		if ci < 0 {
			continue
		}
		merged.Groups[gi].ParentCategoryID = cats[ci].ID
		cats = parentcat.Attach(cats, ci, id)
		relinked++
	}
	if relinked == 0 {
		return 0, nil
	}
	if err := o.store.SaveParentCategories(ctx, cats); err != nil {
		return 0, fmt.Errorf("save parent categories: %w", err)
	}
	return relinked, nil
}

// RemoveURL deletes a saved url. A group emptied by the removal is
// dropped and its id detached from every parent category's Domains;
// domainNames survive untouched.
func (o *Organizer) RemoveURL(ctx context.Context, url string) error {
	snapshot, err := o.store.LoadGroups(ctx)
	if err != nil {
		return fmt.Errorf("load groups: %w", err)
	}

	updated, removedIDs := groups.RemoveURL(snapshot, url)
	if err := o.cascadeRemovals(ctx, removedIDs); err != nil {
		return err
	}
	if err := o.store.SaveGroups(ctx, updated); err != nil {
		return fmt.Errorf("save groups: %w", err)
	}
	applog.Info("url.removed", "url", url, "groupsDropped", len(removedIDs))
	return nil
}

// cascadeRemovals detaches deleted group ids from parent categories.
// The cascade commits before the pruned group collection does, so a
// failure here leaves the ids dangling in Domains (harmless — migration
// and removal both tolerate stale ids) rather than the reverse.
func (o *Organizer) cascadeRemovals(ctx context.Context, removedIDs []string) error {
	if len(removedIDs) == 0 {
		return nil
	}
	cats, err := o.store.LoadParentCategories(ctx)
	if err != nil {
		return fmt.Errorf("load parent categories: %w", err)
	}
	if len(cats) == 0 {
		return nil
	}
	for _, id := range removedIDs {
		cats = parentcat.RemoveGroup(cats, id)
	}
	if err := o.store.SaveParentCategories(ctx, cats); err != nil {
		return fmt.Errorf("save parent categories: %w", err)
	}
	return nil
}

// SweepResult summarizes one expiration check.
type SweepResult struct {
	Checked int
	Evicted int
	// Disabled is true when the retention label turns eviction off.
	Disabled bool
}

// CheckExpired evicts groups whose retention elapsed. periodOverride,
// when non-empty, replaces the stored autoDeletePeriod (used by the
// test surface); "never" and unknown labels disable the sweep.
func (o *Organizer) CheckExpired(ctx context.Context, periodOverride string) (SweepResult, error) {
	period := periodOverride
	if period == "" {
		settings, err := o.store.LoadSettings(ctx)
		if err != nil {
			return SweepResult{}, fmt.Errorf("load settings: %w", err)
		}
		period = settings.AutoDeletePeriod
	}

	now := o.now()
	cutoff, ok := expiry.ComputeCutoff(period, now)
	if !ok {
		return SweepResult{Disabled: true}, nil
	}

	snapshot, err := o.store.LoadGroups(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("load groups: %w", err)
	}

	res := expiry.Sweep(snapshot, cutoff, now)
	if err := o.cascadeRemovals(ctx, res.EvictedID); err != nil {
		return SweepResult{}, err
	}
	if err := o.store.SaveGroups(ctx, res.Kept); err != nil {
		return SweepResult{}, fmt.Errorf("save groups: %w", err)
	}

	out := SweepResult{Checked: len(snapshot), Evicted: len(res.Evicted)}
	if out.Evicted > 0 {
		applog.Info("expiry.swept", "period", period, "evicted", out.Evicted, "kept", len(res.Kept))
	}
	return out, nil
}

// BackdateTimestamps stamps every group's savedAt to now minus the
// period's duration, putting the whole collection exactly at the
// eviction edge. Operator/test surface for exercising expiration
// without waiting. Returns the number of groups stamped.
func (o *Organizer) BackdateTimestamps(ctx context.Context, period string) (int, error) {
	d, ok := expiry.Duration(period)
	if !ok {
		return 0, fmt.Errorf("period %q has no duration", period)
	}
	snapshot, err := o.store.LoadGroups(ctx)
	if err != nil {
		return 0, fmt.Errorf("load groups: %w", err)
	}
	n := groups.StampSaveTime(snapshot, o.now()-d.Milliseconds())
	if err := o.store.SaveGroups(ctx, snapshot); err != nil {
		return 0, fmt.Errorf("save groups: %w", err)
	}
	applog.Info("expiry.backdated", "period", period, "groups", n)
	return n, nil
}

// MigrateParentCategories backfills durable domainNames from current
// group ids. Idempotent; runs on every startup.
func (o *Organizer) MigrateParentCategories(ctx context.Context) error {
	cats, err := o.store.LoadParentCategories(ctx)
	if err != nil {
		return fmt.Errorf("load parent categories: %w", err)
	}
	if len(cats) == 0 {
		return nil
	}
	grps, err := o.store.LoadGroups(ctx)
	if err != nil {
		return fmt.Errorf("load groups: %w", err)
	}
	migrated, changed := parentcat.MigrateToDomainNames(cats, grps)
	if !changed {
		return nil
	}
	if err := o.store.SaveParentCategories(ctx, migrated); err != nil {
		return fmt.Errorf("save parent categories: %w", err)
	}
	applog.Info("parentcat.migrated", "categories", len(migrated))
	return nil
}

// UpdateDomainCategorySettings writes sub-category keyword rules onto
// the group with this domain. A malformed domain is logged and dropped,
// never an error to the caller.
func (o *Organizer) UpdateDomainCategorySettings(ctx context.Context, domain string, subCategories []string, rules []types.KeywordRule) error {
	snapshot, err := o.store.LoadGroups(ctx)
	if err != nil {
		return fmt.Errorf("load groups: %w", err)
	}
	updated, err := category.UpdateDomainSettings(snapshot, domain, subCategories, rules)
	if err != nil {
		applog.Error("category.update", err, "domain", domain)
		return nil
	}
	return o.store.SaveGroups(ctx, updated)
}

func matchesAny(url string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(url, p) {
			return true
		}
	}
	return false
}
