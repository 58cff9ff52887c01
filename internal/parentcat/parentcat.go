// Package parentcat owns the coarse-grained parent categories that
// reference domain groups. Categories reference groups two ways: by id
// (Domains, transient — ids go stale when groups are deleted) and by
// normalized domain string (DomainNames, durable — survives every group
// deletion). All operations are pure functions over a full snapshot.
package parentcat

import (
	"github.com/google/uuid"
	"github.com/lotas/tabsammlung/internal/groups"
	"github.com/lotas/tabsammlung/internal/types"
)

// New creates a parent category with a generated id.
func New(name string) types.ParentCategory {
	return types.ParentCategory{ID: uuid.NewString(), Name: name}
}

// MigrateToDomainNames backfills DomainNames from the current group ids:
// for every id in a category's Domains, the owning group's domain string
// is recorded if absent. Idempotent — a second run changes nothing — and
// cheap when already migrated, so it runs unconditionally on startup.
// Ids that no longer resolve to a group are left in place; they carry no
// domain to record.
func MigrateToDomainNames(cats []types.ParentCategory, grps []types.TabGroup) ([]types.ParentCategory, bool) {
	updated := append([]types.ParentCategory(nil), cats...)
	changed := false
	for i := range updated {
		for _, id := range updated[i].Domains {
			gi := groups.FindByID(grps, id)
			if gi < 0 {
				continue
			}
			domain := grps[gi].Domain
			if updated[i].HasDomainName(domain) {
				continue
			}
			updated[i].DomainNames = append(updated[i].DomainNames, domain)
			changed = true
		}
	}
	return updated, changed
}

// RemoveGroup strips a deleted group's id from every category's Domains
// set. DomainNames is deliberately untouched: the category's historical
// association with the domain outlives the group, so a re-saved domain
// can be routed back to its category.
func RemoveGroup(cats []types.ParentCategory, groupID string) []types.ParentCategory {
	updated := append([]types.ParentCategory(nil), cats...)
	for i := range updated {
		for j, id := range updated[i].Domains {
			if id == groupID {
				updated[i].Domains = append(
					append([]string(nil), updated[i].Domains[:j]...),
					updated[i].Domains[j+1:]...)
				break
			}
		}
	}
	return updated
}

// CategoryForDomain returns the first category (in stored order) whose
// durable DomainNames records this domain, or -1. Used to re-associate a
// freshly created group with the category its domain historically
// belonged to.
func CategoryForDomain(cats []types.ParentCategory, domain string) int {
	for i := range cats {
		if cats[i].HasDomainName(domain) {
			return i
		}
	}
	return -1
}

// Attach adds a group id to a category's Domains set if absent.
func Attach(cats []types.ParentCategory, catIdx int, groupID string) []types.ParentCategory {
	updated := append([]types.ParentCategory(nil), cats...)
	for _, id := range updated[catIdx].Domains {
		if id == groupID {
			return updated
		}
	}
	updated[catIdx].Domains = append(updated[catIdx].Domains, groupID)
	return updated
}
