// Package manager defines the data model shared by every package manager
// adapter: the [Kind] tag, the [Record] value describing one observed
// installation, the [Source] capability contract, and the identity
// normalization that maps manager-native names to canonical Python project
// names.
//
// # Adapters
//
// Concrete adapters live in subpackages:
//
//   - rpm: Fedora/RHEL native packages (rpm, dnf)
//   - dpkg: Debian/Ubuntu native packages (dpkg-query, apt-get)
//   - pip: packages installed with pip into user or system site-packages
//   - pipx: isolated application environments managed by pipx
//
// Every adapter returns a fully materialized, order-stable slice of records
// from [Source.List]. Adapters may fan out internally, but callers never
// observe partial results.
//
// # Canonical Names
//
// Native distribution packages usually carry a runtime prefix such as
// "python3-". [Normalize] strips the first such segment so that
// "python3-requests" installed by rpm and "requests" installed by pip share
// the canonical name "requests". Names from non-native managers are kept
// verbatim; no case folding is applied.
package manager
