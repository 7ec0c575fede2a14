package manager

import "strings"

// runtimePrefixes are the leading name segments native distributions use to
// mark Python library packages.
var runtimePrefixes = []string{"python", "python3"}

// Normalize maps a manager-native package name to its canonical name.
//
// For native kinds the first dash-separated segment is dropped when it is a
// recognized runtime prefix ("python3-requests" and "python-requests" both
// become "requests"). A native name without a prefix is already canonical.
// Names from every other kind are returned unmodified.
func Normalize(raw string, kind Kind) string {
	if !kind.Native() {
		return raw
	}
	head, rest, ok := strings.Cut(raw, "-")
	if !ok || rest == "" || !isRuntimePrefix(head) {
		return raw
	}
	return rest
}

// HasRuntimePrefix reports whether a native package name starts with a
// recognized runtime prefix followed by a dash.
func HasRuntimePrefix(raw string) bool {
	head, rest, ok := strings.Cut(raw, "-")
	return ok && rest != "" && isRuntimePrefix(head)
}

func isRuntimePrefix(segment string) bool {
	for _, p := range runtimePrefixes {
		if segment == p {
			return true
		}
	}
	return false
}
