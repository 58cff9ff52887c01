// Package groups owns the domain-group collection. Every operation is a
// pure function over a full snapshot: callers read the collection from
// the blob store, transform it here, and write the result back. Nothing
// in this package touches storage, so swapping in a transactional
// backend later only changes the read/write boundary.
package groups

import (
	"errors"

	"github.com/google/uuid"
	"github.com/lotas/tabsammlung/internal/applog"
	"github.com/lotas/tabsammlung/internal/domainkey"
	"github.com/lotas/tabsammlung/internal/types"
)

// MergeResult is the outcome of merging a tab batch into a snapshot.
type MergeResult struct {
	Groups []types.TabGroup
	// Appended maps group id to the number of entries added to it by
	// this merge. Groups absent from the map were not touched.
	Appended map[string]int
	// Created holds ids of groups that did not exist before the merge.
	Created []string
	// Skipped counts tabs dropped for invalid URLs or excluded schemes.
	Skipped int
}

// Merge folds a batch of tabs into the group snapshot. Tabs are grouped
// by normalized domain; a missing group is created with a fresh id and
// a tab whose exact url already exists in its group is dropped (dedupe
// is by url string equality, title is not part of the key). Tabs with
// unparseable URLs or excluded schemes are skipped and never abort the
// batch. Per-entry SavedAt is stamped with now (unix millis) on every
// appended entry; group-level SavedAt stamping is the caller's call.
func Merge(snapshot []types.TabGroup, tabs []types.Tab, now int64) MergeResult {
	res := MergeResult{
		Groups:   append([]types.TabGroup(nil), snapshot...),
		Appended: make(map[string]int),
	}

	byDomain := make(map[string]int, len(res.Groups))
	for i, g := range res.Groups {
		byDomain[g.Domain] = i
	}

	for _, tab := range tabs {
		domain, err := domainkey.Normalize(tab.URL)
		if err != nil {
			if !errors.Is(err, domainkey.ErrExcludedScheme) {
				applog.Error("groups.merge.skip", err, "url", tab.URL)
			}
			res.Skipped++
			continue
		}

		idx, ok := byDomain[domain]
		if !ok {
			g := types.TabGroup{
				ID:     uuid.NewString(),
				Domain: domain,
			}
			res.Groups = append(res.Groups, g)
			idx = len(res.Groups) - 1
			byDomain[domain] = idx
			res.Created = append(res.Created, g.ID)
		}

		if res.Groups[idx].HasURL(tab.URL) {
			continue
		}
		res.Groups[idx].URLs = append(res.Groups[idx].URLs, types.URLEntry{
			URL:     tab.URL,
			Title:   tab.Title,
			SavedAt: now,
		})
		res.Appended[res.Groups[idx].ID]++
	}

	return res
}

// RemoveURL drops the entry with this exact url from whichever group
// holds it. A group left with zero entries is removed from the snapshot
// and its id reported for the parent-category cascade. Removing an
// absent url is a no-op.
func RemoveURL(snapshot []types.TabGroup, url string) (updated []types.TabGroup, removedGroupIDs []string) {
	updated = make([]types.TabGroup, 0, len(snapshot))
	for _, g := range snapshot {
		for i, e := range g.URLs {
			if e.URL == url {
				g.URLs = append(append([]types.URLEntry(nil), g.URLs[:i]...), g.URLs[i+1:]...)
				break
			}
		}
		if len(g.URLs) == 0 {
			removedGroupIDs = append(removedGroupIDs, g.ID)
			continue
		}
		updated = append(updated, g)
	}
	return updated, removedGroupIDs
}

// StampSaveTime sets SavedAt on every group in the snapshot. Used for
// normal saves (now = current millis) and for operator-driven
// backdating. Returns the number of groups stamped.
func StampSaveTime(snapshot []types.TabGroup, now int64) int {
	for i := range snapshot {
		snapshot[i].SavedAt = now
	}
	return len(snapshot)
}

// FindByID returns the index of the group with this id, or -1.
func FindByID(snapshot []types.TabGroup, id string) int {
	for i, g := range snapshot {
		if g.ID == id {
			return i
		}
	}
	return -1
}

// FindByDomain returns the index of the group with this domain, or -1.
func FindByDomain(snapshot []types.TabGroup, domain string) int {
	for i, g := range snapshot {
		if g.Domain == domain {
			return i
		}
	}
	return -1
}
