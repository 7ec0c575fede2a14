package manager

import "context"

// Source is the capability contract implemented by every package manager
// adapter.
type Source interface {
	// Kind returns the tag attached to every record this source produces.
	Kind() Kind

	// Exists reports whether the package manager is present on the host.
	// Sources that do not exist are excluded for the whole run.
	Exists() bool

	// List enumerates installed Python packages attributable to this
	// manager, after applying its own ownership rules. The result is fully
	// materialized and its order is stable for a fixed system state.
	List(ctx context.Context) ([]Record, error)

	// Remove uninstalls the named packages in one operation. Names are
	// manager-native package names. autoRemove asks the manager to also
	// remove dependencies it pulled in, where supported.
	Remove(ctx context.Context, names []string, autoRemove bool) error
}

// Owner is implemented by native sources that can tell whether a package
// seen by another manager is actually owned by the distribution.
type Owner interface {
	// Owns reports whether the distribution has name installed at version.
	Owns(ctx context.Context, name, version string) bool
}

// Owners combines several Owner implementations; the package is owned if
// any of them owns it.
type Owners []Owner

// Owns implements Owner.
func (o Owners) Owns(ctx context.Context, name, version string) bool {
	for _, owner := range o {
		if owner != nil && owner.Owns(ctx, name, version) {
			return true
		}
	}
	return false
}

// OwnerCandidates returns the native names under which a distribution may
// ship the Python project name, in lookup order.
func OwnerCandidates(name string) []string {
	candidates := []string{name}
	for _, p := range []string{"python3", "python"} {
		candidates = append(candidates, p+"-"+name)
	}
	return candidates
}
