package manager

// Record is one observed installation of a package through one manager.
// Records are built fresh on every scan and treated as immutable values.
type Record struct {
	Name        string   // Canonical name used as the grouping key
	PackageName string   // Manager-native name, e.g. "python3-requests"
	Version     string   // Manager-native version string
	Location    string   // Best-effort install path, empty when unknown
	Files       []string // Absolute paths owned by this installation
	Kind        Kind
}

// HasLocation reports whether the adapter could determine an install path.
func (r Record) HasLocation() bool {
	return r.Location != ""
}

// SameInstall reports whether r and o describe the same physical
// installation: same manager kind, canonical name and location.
func (r Record) SameInstall(o Record) bool {
	return r.Kind == o.Kind && r.Name == o.Name && r.Location == o.Location
}

// Preferred reports whether r is the unprefixed record of a native package,
// i.e. its manager-native name equals its canonical name.
func (r Record) Preferred() bool {
	return r.PackageName == r.Name
}
