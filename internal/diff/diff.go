// Package diff compares two catalog snapshots by item identity.
package diff

import "storewatch/internal/catalog"

// Result is the delta between two collections.
// Added keeps the fresh collection's order, Removed keeps the old one's.
type Result struct {
	Added   catalog.Collection
	Removed catalog.Collection
}

// Empty reports whether nothing was added or removed.
func (r Result) Empty() bool { return len(r.Added) == 0 && len(r.Removed) == 0 }

// Compute returns the items whose id appears only in fresh (Added) and only
// in old (Removed). Items present on both sides are unchanged regardless of
// any other field. Runs in O(len(old)+len(fresh)).
//
// A duplicated id is reported at most once, at its first position.
func Compute(old, fresh catalog.Collection) Result {
	oldIDs := idSet(old)
	freshIDs := idSet(fresh)
	return Result{
		Added:   missingFrom(fresh, oldIDs),
		Removed: missingFrom(old, freshIDs),
	}
}

func idSet(items catalog.Collection) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it.ID] = struct{}{}
	}
	return set
}

func missingFrom(items catalog.Collection, other map[string]struct{}) catalog.Collection {
	var out catalog.Collection
	seen := map[string]struct{}{}
	for _, it := range items {
		if _, ok := other[it.ID]; ok {
			continue
		}
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}
