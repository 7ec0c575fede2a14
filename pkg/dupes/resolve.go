// Package dupes finds Python packages installed through more than one
// package manager.
//
// [Resolve] is a pure function of its input: the same record slice always
// yields the same [Duplicates], and nothing is cached between calls.
package dupes

import (
	"sort"

	"github.com/nikromen/pyclean/pkg/manager"
)

// Group is one duplicate group: every record sharing a canonical name,
// spanning at least two manager kinds.
type Group struct {
	Name    string
	Records []manager.Record
}

// Kinds returns the distinct manager kinds in the group, in record order.
func (g Group) Kinds() []manager.Kind {
	var kinds []manager.Kind
	seen := make(map[manager.Kind]bool)
	for _, r := range g.Records {
		if !seen[r.Kind] {
			seen[r.Kind] = true
			kinds = append(kinds, r.Kind)
		}
	}
	return kinds
}

// Duplicates maps canonical names to their duplicate groups. Iteration
// order is the order in which each name first appeared in the resolved input.
type Duplicates struct {
	groups []Group
	index  map[string]int
}

// Resolve aggregates records from all sources into duplicate groups.
//
// Records of kind unknown never take part in grouping. Within each manager
// kind the native preference rule collapses records sharing a canonical
// name; names attributed to fewer than two kinds are dropped; exact repeats
// of the same installation (kind, name and location) are listed once.
func Resolve(records []manager.Record) Duplicates {
	kept := preferWithinKind(records)

	kindsByName := make(map[string]map[manager.Kind]bool)
	for _, r := range kept {
		if kindsByName[r.Name] == nil {
			kindsByName[r.Name] = make(map[manager.Kind]bool)
		}
		kindsByName[r.Name][r.Kind] = true
	}

	d := Duplicates{index: make(map[string]int)}
	for _, r := range kept {
		if len(kindsByName[r.Name]) < 2 {
			continue
		}
		i, ok := d.index[r.Name]
		if !ok {
			i = len(d.groups)
			d.index[r.Name] = i
			d.groups = append(d.groups, Group{Name: r.Name})
		}
		if containsInstall(d.groups[i].Records, r) {
			continue
		}
		d.groups[i].Records = append(d.groups[i].Records, r)
	}
	return d
}

// preferWithinKind drops unknown records and applies the intra-manager
// preference rule, preserving the input order of the survivors.
//
// For native kinds, when several records share a canonical name the one
// whose package name equals the canonical name wins (the unprefixed
// executable package). If none does, the first one seen is kept; which
// record that is depends only on the adapter's listing order.
func preferWithinKind(records []manager.Record) []manager.Record {
	type key struct {
		kind manager.Kind
		name string
	}
	chosen := make(map[key]int)
	for i, r := range records {
		if !r.Kind.Native() {
			continue
		}
		k := key{r.Kind, r.Name}
		j, ok := chosen[k]
		if !ok || (!records[j].Preferred() && r.Preferred()) {
			chosen[k] = i
		}
	}

	kept := make([]manager.Record, 0, len(records))
	for i, r := range records {
		if r.Kind == manager.KindUnknown {
			continue
		}
		if r.Kind.Native() && chosen[key{r.Kind, r.Name}] != i {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

func containsInstall(records []manager.Record, r manager.Record) bool {
	for _, existing := range records {
		if existing.SameInstall(r) {
			return true
		}
	}
	return false
}

// Len returns the number of duplicate groups.
func (d Duplicates) Len() int {
	return len(d.groups)
}

// Names returns the canonical names in iteration order.
func (d Duplicates) Names() []string {
	names := make([]string, len(d.groups))
	for i, g := range d.groups {
		names[i] = g.Name
	}
	return names
}

// Get returns a copy of the records grouped under name.
func (d Duplicates) Get(name string) ([]manager.Record, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return append([]manager.Record(nil), d.groups[i].Records...), true
}

// Groups returns a copy of every group in iteration order. Callers may
// modify the returned groups without affecting d.
func (d Duplicates) Groups() []Group {
	out := make([]Group, len(d.groups))
	for i, g := range d.groups {
		out[i] = Group{Name: g.Name, Records: append([]manager.Record(nil), g.Records...)}
	}
	return out
}

// OfKind returns the canonical names of groups that include at least one
// record attributed to kind, in iteration order.
func (d Duplicates) OfKind(kind manager.Kind) []string {
	var names []string
	for _, g := range d.groups {
		for _, r := range g.Records {
			if r.Kind == kind {
				names = append(names, g.Name)
				break
			}
		}
	}
	return names
}

// PackageNames returns the sorted, de-duplicated manager-native names of
// every grouped record attributed to kind. This is the set a batch removal
// hands to that manager.
func (d Duplicates) PackageNames(kind manager.Kind) []string {
	seen := make(map[string]bool)
	var names []string
	for _, g := range d.groups {
		for _, r := range g.Records {
			if r.Kind == kind && !seen[r.PackageName] {
				seen[r.PackageName] = true
				names = append(names, r.PackageName)
			}
		}
	}
	sort.Strings(names)
	return names
}
