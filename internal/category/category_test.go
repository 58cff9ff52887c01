package category

import (
	"errors"
	"testing"

	"github.com/lotas/tabsammlung/internal/types"
)

func TestClassify(t *testing.T) {
	rules := []types.KeywordRule{
		{SubCategory: "docs", Keywords: []string{"/docs/", "guide"}},
	}

	tests := []struct {
		url, title string
		want       string
	}{
		{"https://a.com/docs/x", "", "docs"},
		{"https://a.com/other", "", ""},
		{"https://a.com/page", "Setup Guide", "docs"},
		{"https://a.com/page", "Setup GUIDE", "docs"}, // case-insensitive
		{"https://a.com/DOCS/y", "", "docs"},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := Classify(tt.url, tt.title, rules); got != tt.want {
			t.Errorf("Classify(%q, %q) = %q, want %q", tt.url, tt.title, got, tt.want)
		}
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	rules := []types.KeywordRule{
		{SubCategory: "issues", Keywords: []string{"/issues/"}},
		{SubCategory: "github", Keywords: []string{"github"}},
	}
	// Both rules match; declaration order decides.
	got := Classify("https://github.com/x/y/issues/1", "", rules)
	if got != "issues" {
		t.Errorf("Classify = %q, want first-declared %q", got, "issues")
	}
}

func TestClassifyIgnoresEmptyKeywords(t *testing.T) {
	rules := []types.KeywordRule{{SubCategory: "all", Keywords: []string{""}}}
	if got := Classify("https://a.com/x", "title", rules); got != "" {
		t.Errorf("empty keyword must never match, got %q", got)
	}
}

func TestUpdateDomainSettings(t *testing.T) {
	snapshot := []types.TabGroup{
		{ID: "g1", Domain: "https://a.com", URLs: []types.URLEntry{{URL: "https://a.com/1"}}},
	}
	rules := []types.KeywordRule{{SubCategory: "docs", Keywords: []string{"/docs/"}}}

	updated, err := UpdateDomainSettings(snapshot, "https://a.com", []string{"docs"}, rules)
	if err != nil {
		t.Fatalf("UpdateDomainSettings: %v", err)
	}
	if len(updated[0].CategoryKeywords) != 1 || updated[0].CategoryKeywords[0].SubCategory != "docs" {
		t.Errorf("rules not written: %+v", updated[0].CategoryKeywords)
	}
	if len(snapshot[0].CategoryKeywords) != 0 {
		t.Error("input snapshot must not be mutated")
	}
}

func TestUpdateDomainSettingsMalformed(t *testing.T) {
	snapshot := []types.TabGroup{{ID: "g1", Domain: "https://a.com"}}
	updated, err := UpdateDomainSettings(snapshot, "a.com", []string{"x"}, nil)
	if !errors.Is(err, ErrMalformedDomain) {
		t.Errorf("err = %v, want ErrMalformedDomain", err)
	}
	if len(updated) != 1 || len(updated[0].CategoryKeywords) != 0 {
		t.Errorf("malformed domain must be a no-op: %+v", updated)
	}
}

func TestUpdateDomainSettingsUnknownDomain(t *testing.T) {
	snapshot := []types.TabGroup{{ID: "g1", Domain: "https://a.com"}}
	updated, err := UpdateDomainSettings(snapshot, "https://b.com", []string{"x"}, nil)
	if err != nil {
		t.Fatalf("unknown domain should not error: %v", err)
	}
	if len(updated[0].SubCategories) != 0 {
		t.Errorf("unknown domain must be a no-op: %+v", updated)
	}
}

func TestApplyToGroup(t *testing.T) {
	g := types.TabGroup{
		ID: "g1", Domain: "https://a.com",
		CategoryKeywords: []types.KeywordRule{{SubCategory: "docs", Keywords: []string{"/docs/"}}},
		URLs: []types.URLEntry{
			{URL: "https://a.com/docs/x"},
			{URL: "https://a.com/other"},
			{URL: "https://a.com/docs/y", SubCategory: "pinned"}, // already set
		},
	}

	n := ApplyToGroup(&g)
	if n != 1 {
		t.Errorf("classified %d entries, want 1", n)
	}
	if g.URLs[0].SubCategory != "docs" {
		t.Errorf("entry 0 = %q, want docs", g.URLs[0].SubCategory)
	}
	if g.URLs[1].SubCategory != "" {
		t.Errorf("entry 1 = %q, want empty", g.URLs[1].SubCategory)
	}
	if g.URLs[2].SubCategory != "pinned" {
		t.Errorf("existing sub-category overwritten: %q", g.URLs[2].SubCategory)
	}
}
