// Package category owns the per-domain sub-category keyword rules used
// to auto-classify saved tabs within a domain group.
package category

import (
	"errors"
	"strings"

	"github.com/lotas/tabsammlung/internal/domainkey"
	"github.com/lotas/tabsammlung/internal/groups"
	"github.com/lotas/tabsammlung/internal/types"
)

// ErrMalformedDomain marks a category-settings update keyed on a string
// that is not a normalized domain. The update is a no-op.
var ErrMalformedDomain = errors.New("malformed domain")

// Classify returns the sub-category of the first rule with a keyword
// occurring in the url or the title, or "" when no rule matches.
// Matching is case-insensitive: user-entered keywords are expected to
// match regardless of page-title casing.
func Classify(url, title string, rules []types.KeywordRule) string {
	lurl := strings.ToLower(url)
	ltitle := strings.ToLower(title)
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			k := strings.ToLower(kw)
			if k == "" {
				continue
			}
			if strings.Contains(lurl, k) || strings.Contains(ltitle, k) {
				return rule.SubCategory
			}
		}
	}
	return ""
}

// UpdateDomainSettings writes the sub-category list and keyword rules
// onto the group with this domain. Keying by domain rather than id keeps
// the mapping alive across group id churn (delete and re-save of the
// same domain). A malformed domain or an unknown domain is a no-op; the
// snapshot is returned unchanged with the error for logging.
func UpdateDomainSettings(snapshot []types.TabGroup, domain string, subCategories []string, rules []types.KeywordRule) ([]types.TabGroup, error) {
	if !domainkey.IsDomain(domain) {
		return snapshot, ErrMalformedDomain
	}
	idx := groups.FindByDomain(snapshot, domain)
	if idx < 0 {
		return snapshot, nil
	}
	updated := append([]types.TabGroup(nil), snapshot...)
	updated[idx].SubCategories = append([]string(nil), subCategories...)
	updated[idx].CategoryKeywords = append([]types.KeywordRule(nil), rules...)
	return updated, nil
}

// ApplyToGroup classifies every entry in the group that has no
// sub-category yet, using the group's own keyword rules. Entries that
// already carry a sub-category are left alone. Returns the number of
// entries classified.
func ApplyToGroup(g *types.TabGroup) int {
	if len(g.CategoryKeywords) == 0 {
		return 0
	}
	n := 0
	for i := range g.URLs {
		if g.URLs[i].SubCategory != "" {
			continue
		}
		if sub := Classify(g.URLs[i].URL, g.URLs[i].Title, g.CategoryKeywords); sub != "" {
			g.URLs[i].SubCategory = sub
			n++
		}
	}
	return n
}
