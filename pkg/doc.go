// Package pkg provides the core libraries for pyclean.
//
// # Overview
//
// pyclean finds Python packages that are installed more than once by
// different package managers, for example requests installed both as the
// python3-requests rpm and by pip into ~/.local. The pkg directory is
// organized into these areas:
//
//  1. [manager] - Package manager kinds, install records, name normalization
//     and the Source contract, with one adapter per manager ([manager/rpm],
//     [manager/dpkg], [manager/pip], [manager/pipx])
//  2. [dupes] - Duplicate resolution over the records of every source
//  3. [cleaner] - Removal coordination, in batch or interactively
//  4. [command] - Running package manager processes, optionally with sudo
//  5. [config], [errors], [observability], [io] - Supporting infrastructure
//
// # Architecture
//
// The typical data flow through pyclean:
//
//	rpm / dpkg / pip / pipx
//	         ↓
//	    [manager] sources (list installed Python packages)
//	         ↓
//	    [dupes] package (group records installed by more than one manager)
//	         ↓
//	    [cleaner] package (remove the copies of one manager, or one by one)
//
// # Quick Start
//
//	runner := command.NewExec(logger, "sudo")
//	c := cleaner.New([]manager.Source{
//	    rpm.New(runner, logger),
//	    pip.New(runner, logger),
//	}, logger)
//
//	d, err := c.Duplicates(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, g := range d.Groups() {
//	    fmt.Println(g.Name, g.Kinds())
//	}
//
//	// Remove every pip copy of a package that rpm also provides.
//	removed, err := c.Clean(ctx, manager.KindPip, false)
//
// # Snapshots
//
// A scan is a snapshot: the cleaner lists every source once per operation
// and never re-queries the system mid-session. Removals are issued one at a
// time.
//
// [manager]: https://pkg.go.dev/github.com/nikromen/pyclean/pkg/manager
// [manager/rpm]: https://pkg.go.dev/github.com/nikromen/pyclean/pkg/manager/rpm
// [manager/dpkg]: https://pkg.go.dev/github.com/nikromen/pyclean/pkg/manager/dpkg
// [manager/pip]: https://pkg.go.dev/github.com/nikromen/pyclean/pkg/manager/pip
// [manager/pipx]: https://pkg.go.dev/github.com/nikromen/pyclean/pkg/manager/pipx
// [dupes]: https://pkg.go.dev/github.com/nikromen/pyclean/pkg/dupes
// [cleaner]: https://pkg.go.dev/github.com/nikromen/pyclean/pkg/cleaner
// [command]: https://pkg.go.dev/github.com/nikromen/pyclean/pkg/command
// [config]: https://pkg.go.dev/github.com/nikromen/pyclean/pkg/config
// [errors]: https://pkg.go.dev/github.com/nikromen/pyclean/pkg/errors
// [observability]: https://pkg.go.dev/github.com/nikromen/pyclean/pkg/observability
// [io]: https://pkg.go.dev/github.com/nikromen/pyclean/pkg/io
package pkg
