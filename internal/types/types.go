// Package types contains the persisted records for the tab collection
// engine, independent of the storage and transport layers. The JSON tags
// are the on-disk blob format shared with the browser extension.
package types

// URLEntry is a single saved tab within a domain group.
type URLEntry struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	SubCategory string `json:"subCategory,omitempty"`
	SavedAt     int64  `json:"savedAt,omitempty"` // unix millis; 0 = unknown
}

// KeywordRule maps a set of keywords to a sub-category. Rules are
// evaluated in declaration order; the first rule with a matching
// keyword wins.
type KeywordRule struct {
	SubCategory string   `json:"subCategory"`
	Keywords    []string `json:"keywords"`
}

// TabGroup is a collection of saved tabs sharing one domain key.
// Domain is the natural key: no two groups in a committed snapshot
// share a domain. A group never persists with zero entries.
type TabGroup struct {
	ID               string        `json:"id"`
	Domain           string        `json:"domain"` // normalized scheme://host
	URLs             []URLEntry    `json:"urls"`
	ParentCategoryID string        `json:"parentCategoryId,omitempty"`
	SubCategories    []string      `json:"subCategories,omitempty"`
	CategoryKeywords []KeywordRule `json:"categoryKeywords,omitempty"`
	SavedAt          int64         `json:"savedAt,omitempty"` // unix millis; 0 = never stamped
}

// HasURL reports whether the group already holds an entry with exactly
// this url string.
func (g *TabGroup) HasURL(url string) bool {
	for _, e := range g.URLs {
		if e.URL == url {
			return true
		}
	}
	return false
}

// ParentCategory is a coarse user-defined bucket over domain groups.
// Domains holds the ids of groups currently assigned to the category
// and may go stale when groups are deleted. DomainNames is the durable
// record: once a domain string is added it survives every group
// deletion and is only ever extended, never pruned.
type ParentCategory struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Domains     []string `json:"domains"`     // TabGroup ids, transient
	DomainNames []string `json:"domainNames"` // normalized domains, durable
}

// HasDomainName reports whether the category durably records the domain.
func (c *ParentCategory) HasDomainName(domain string) bool {
	for _, d := range c.DomainNames {
		if d == domain {
			return true
		}
	}
	return false
}

// UserSettings is the persisted user configuration, read-modify-written
// against the blob store with defaults merged under stored values.
type UserSettings struct {
	RemoveTabAfterOpen *bool    `json:"removeTabAfterOpen,omitempty"`
	ExcludePatterns    []string `json:"excludePatterns,omitempty"`
	AutoDeletePeriod   string   `json:"autoDeletePeriod,omitempty"`
}

// Built-in exclusion prefixes. Tabs whose URL starts with one of these
// are never grouped.
var DefaultExcludePatterns = []string{"moz-extension://", "about:"}

// DefaultSettings returns the documented defaults. Stored overrides are
// merged on top by the storage layer.
func DefaultSettings() UserSettings {
	remove := true
	return UserSettings{
		RemoveTabAfterOpen: &remove,
		ExcludePatterns:    append([]string(nil), DefaultExcludePatterns...),
		AutoDeletePeriod:   "never",
	}
}

// RemoveAfterOpen resolves the tri-state flag against its default.
func (s UserSettings) RemoveAfterOpen() bool {
	if s.RemoveTabAfterOpen == nil {
		return true
	}
	return *s.RemoveTabAfterOpen
}

// Tab is an open browser tab as reported by the host: either the live
// extension or an offline Firefox session file.
type Tab struct {
	URL   string
	Title string
}

// Profile is a discovered Firefox profile directory.
type Profile struct {
	Name       string
	Path       string
	IsDefault  bool
	IsRelative bool
}
