package manager

import (
	"strings"

	"github.com/nikromen/pyclean/pkg/errors"
)

// Kind identifies which package manager produced a record.
type Kind string

const (
	KindRPM     Kind = "rpm"
	KindDpkg    Kind = "dpkg"
	KindPip     Kind = "pip"
	KindPipx    Kind = "pipx"
	KindUnknown Kind = "unknown"
)

// Kinds returns every attributable kind in adapter enumeration order.
// KindUnknown is not included.
func Kinds() []Kind {
	return []Kind{KindRPM, KindDpkg, KindPip, KindPipx}
}

// Native reports whether k is a distribution package manager whose package
// names carry a runtime prefix.
func (k Kind) Native() bool {
	return k == KindRPM || k == KindDpkg
}

// Known reports whether k is attributable to a concrete adapter.
func (k Kind) Known() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}

// ParseKind converts a user-supplied manager name into a Kind.
// Matching is case-insensitive. "unknown" is rejected because no adapter
// can remove records of unknown provenance.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Known() {
		return "", errors.New(errors.ErrCodeInvalidKind, "unknown package type %q (valid: %s)", s, strings.Join(KindNames(), ", "))
	}
	return k, nil
}

// KindNames returns the string form of every attributable kind.
func KindNames() []string {
	kinds := Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}
