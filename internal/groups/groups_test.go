package groups

import (
	"testing"

	"github.com/lotas/tabsammlung/internal/types"
)

const testNow = int64(1700000000000)

func TestMergeCreatesOneGroupPerDomain(t *testing.T) {
	tabs := []types.Tab{
		{URL: "https://a.com/1", Title: "A"},
		{URL: "https://a.com/2", Title: "A2"},
	}

	res := Merge(nil, tabs, testNow)

	if len(res.Groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(res.Groups))
	}
	g := res.Groups[0]
	if g.Domain != "https://a.com" {
		t.Errorf("domain = %q, want https://a.com", g.Domain)
	}
	if len(g.URLs) != 2 {
		t.Errorf("expected 2 url entries, got %d", len(g.URLs))
	}
	if g.ID == "" {
		t.Error("group should get a generated id")
	}
	if len(res.Created) != 1 || res.Created[0] != g.ID {
		t.Errorf("Created = %v, want [%s]", res.Created, g.ID)
	}
	if res.Appended[g.ID] != 2 {
		t.Errorf("Appended[%s] = %d, want 2", g.ID, res.Appended[g.ID])
	}
}

func TestMergeDedupesByExactURL(t *testing.T) {
	existing := []types.TabGroup{{
		ID:     "g1",
		Domain: "https://a.com",
		URLs:   []types.URLEntry{{URL: "https://a.com/1", Title: "old title"}},
	}}

	res := Merge(existing, []types.Tab{
		{URL: "https://a.com/1", Title: "new title"}, // duplicate, dropped
		{URL: "https://a.com/2", Title: "fresh"},
	}, testNow)

	if len(res.Groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(res.Groups))
	}
	g := res.Groups[0]
	if len(g.URLs) != 2 {
		t.Fatalf("expected 2 entries after dedupe, got %d", len(g.URLs))
	}
	if g.URLs[0].Title != "old title" {
		t.Errorf("duplicate save must not overwrite the stored entry, title = %q", g.URLs[0].Title)
	}
	if res.Appended["g1"] != 1 {
		t.Errorf("Appended[g1] = %d, want 1", res.Appended["g1"])
	}
	if len(res.Created) != 0 {
		t.Errorf("no groups should be created, got %v", res.Created)
	}

	// Invariant: no two entries share a url.
	seen := make(map[string]bool)
	for _, e := range g.URLs {
		if seen[e.URL] {
			t.Errorf("duplicate url %q in group", e.URL)
		}
		seen[e.URL] = true
	}
}

func TestMergeDomainUniqueness(t *testing.T) {
	res := Merge(nil, []types.Tab{
		{URL: "https://a.com/1"},
		{URL: "https://b.com/1"},
		{URL: "https://a.com/deep/2"},
		{URL: "http://a.com/3"}, // different scheme, different key
	}, testNow)

	domains := make(map[string]bool)
	for _, g := range res.Groups {
		if domains[g.Domain] {
			t.Errorf("duplicate domain %q", g.Domain)
		}
		domains[g.Domain] = true
	}
	if len(res.Groups) != 3 {
		t.Errorf("expected 3 groups, got %d", len(res.Groups))
	}
}

func TestMergeSkipsInvalidAndExcluded(t *testing.T) {
	res := Merge(nil, []types.Tab{
		{URL: "moz-extension://abc/popup.html"},
		{URL: "about:config"},
		{URL: "not a url"},
		{URL: "https://ok.com/x"},
	}, testNow)

	if res.Skipped != 3 {
		t.Errorf("Skipped = %d, want 3", res.Skipped)
	}
	if len(res.Groups) != 1 || res.Groups[0].Domain != "https://ok.com" {
		t.Fatalf("expected only https://ok.com to survive, got %+v", res.Groups)
	}
	for _, g := range res.Groups {
		for _, e := range g.URLs {
			if e.URL == "moz-extension://abc/popup.html" || e.URL == "about:config" {
				t.Errorf("excluded url %q persisted", e.URL)
			}
		}
	}
}

func TestMergeStampsEntrySaveTime(t *testing.T) {
	res := Merge(nil, []types.Tab{{URL: "https://a.com/1"}}, testNow)
	if got := res.Groups[0].URLs[0].SavedAt; got != testNow {
		t.Errorf("entry SavedAt = %d, want %d", got, testNow)
	}
}

func TestMergeLeavesExistingGroupsUntouched(t *testing.T) {
	existing := []types.TabGroup{{
		ID: "g1", Domain: "https://a.com", SavedAt: 42,
		URLs: []types.URLEntry{{URL: "https://a.com/1"}},
	}}

	res := Merge(existing, []types.Tab{{URL: "https://b.com/1"}}, testNow)

	if len(res.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(res.Groups))
	}
	if res.Groups[0].SavedAt != 42 {
		t.Errorf("untouched group SavedAt changed to %d", res.Groups[0].SavedAt)
	}
	if _, touched := res.Appended["g1"]; touched {
		t.Error("g1 gained no entries and must not appear in Appended")
	}
}

func TestRemoveURL(t *testing.T) {
	snapshot := []types.TabGroup{
		{ID: "g1", Domain: "https://a.com", URLs: []types.URLEntry{
			{URL: "https://a.com/1"}, {URL: "https://a.com/2"},
		}},
		{ID: "g2", Domain: "https://b.com", URLs: []types.URLEntry{
			{URL: "https://b.com/only"},
		}},
	}

	updated, removed := RemoveURL(snapshot, "https://a.com/1")
	if len(removed) != 0 {
		t.Errorf("no group should empty out, removed = %v", removed)
	}
	if len(updated[0].URLs) != 1 || updated[0].URLs[0].URL != "https://a.com/2" {
		t.Errorf("wrong entry removed: %+v", updated[0].URLs)
	}

	updated, removed = RemoveURL(updated, "https://b.com/only")
	if len(removed) != 1 || removed[0] != "g2" {
		t.Errorf("removed = %v, want [g2]", removed)
	}
	if len(updated) != 1 {
		t.Errorf("emptied group must not persist, groups = %+v", updated)
	}
}

func TestRemoveURLAbsentIsNoop(t *testing.T) {
	snapshot := []types.TabGroup{
		{ID: "g1", Domain: "https://a.com", URLs: []types.URLEntry{{URL: "https://a.com/1"}}},
	}
	updated, removed := RemoveURL(snapshot, "https://nowhere.com/x")
	if len(removed) != 0 || len(updated) != 1 || len(updated[0].URLs) != 1 {
		t.Errorf("removing absent url must be a no-op: %+v removed=%v", updated, removed)
	}
}

func TestStampSaveTime(t *testing.T) {
	snapshot := []types.TabGroup{
		{ID: "g1", Domain: "https://a.com", SavedAt: 1, URLs: []types.URLEntry{{URL: "u"}}},
		{ID: "g2", Domain: "https://b.com", URLs: []types.URLEntry{{URL: "v"}}},
	}
	n := StampSaveTime(snapshot, testNow)
	if n != 2 {
		t.Errorf("stamped %d groups, want 2", n)
	}
	for _, g := range snapshot {
		if g.SavedAt != testNow {
			t.Errorf("group %s SavedAt = %d, want %d", g.ID, g.SavedAt, testNow)
		}
	}
}
