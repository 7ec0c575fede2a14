// Package dpkg implements the native package source for Debian based
// distributions. Packages are listed through dpkg-query and removed through
// apt-get.
package dpkg

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/nikromen/pyclean/pkg/command"
	"github.com/nikromen/pyclean/pkg/errors"
	"github.com/nikromen/pyclean/pkg/manager"
)

// DefaultWorkers is the number of concurrent per-package dpkg-query calls.
const DefaultWorkers = 8

const listFormat = `${db:Status-Abbrev}\t${Package}\t${Version}\t${Depends}\n`

// Source lists and removes Python packages managed by dpkg.
type Source struct {
	runner   command.Runner
	logger   *log.Logger
	workers  int
	lookPath func(string) bool
	isDir    func(string) bool
}

// Option configures a Source.
type Option func(*Source)

// WithWorkers sets the metadata fan-out limit. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(s *Source) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLookPath replaces the PATH lookup used by Exists.
func WithLookPath(fn func(string) bool) Option {
	return func(s *Source) { s.lookPath = fn }
}

// WithDirCheck replaces the check used to drop directories from file lists.
func WithDirCheck(fn func(string) bool) Option {
	return func(s *Source) { s.isDir = fn }
}

// New creates a dpkg source.
func New(runner command.Runner, logger *log.Logger, opts ...Option) *Source {
	if logger == nil {
		logger = log.Default()
	}
	s := &Source{
		runner:   runner,
		logger:   logger,
		workers:  DefaultWorkers,
		lookPath: command.Exists,
		isDir:    isDir,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Kind implements manager.Source.
func (s *Source) Kind() manager.Kind { return manager.KindDpkg }

// Exists implements manager.Source.
func (s *Source) Exists() bool { return s.lookPath("dpkg-query") }

type entry struct {
	name    string
	version string
	depends []string
}

// List implements manager.Source.
func (s *Source) List(ctx context.Context) ([]manager.Record, error) {
	res, err := s.runner.Run(ctx, command.Command{Name: "dpkg-query", Args: []string{"-W", "-f", listFormat}})
	if err != nil {
		return nil, err
	}

	var entries []entry
	for _, line := range strings.Split(res.Stdout, "\n") {
		if e, ok := parseEntry(line); ok {
			entries = append(entries, e)
		}
	}

	var (
		mu       sync.Mutex
		degraded *multierror.Error
	)
	records := make([]*manager.Record, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			rec, err := s.inspect(gctx, e)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				mu.Lock()
				degraded = multierror.Append(degraded, err)
				mu.Unlock()
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if degraded != nil {
		s.logger.Warn("some dpkg packages could not be fully inspected", "count", len(degraded.Errors))
		s.logger.Debug("dpkg inspection errors", "err", degraded.ErrorOrNil())
	}

	out := make([]manager.Record, 0, len(records))
	for _, rec := range records {
		if rec != nil {
			out = append(out, *rec)
		}
	}
	return out, nil
}

// parseEntry parses one dpkg-query line, keeping only fully installed
// packages.
func parseEntry(line string) (entry, bool) {
	fields := strings.Split(line, "\t")
	if len(fields) < 3 {
		return entry{}, false
	}
	if !strings.HasPrefix(strings.TrimSpace(fields[0]), "ii") {
		return entry{}, false
	}
	e := entry{name: fields[1], version: fields[2]}
	if len(fields) > 3 {
		e.depends = parseDepends(fields[3])
	}
	return e, e.name != ""
}

// parseDepends flattens a Depends field into bare package names, including
// every alternative.
func parseDepends(field string) []string {
	var names []string
	for _, clause := range strings.Split(field, ",") {
		for _, alt := range strings.Split(clause, "|") {
			alt = strings.TrimSpace(alt)
			if i := strings.IndexAny(alt, " ("); i >= 0 {
				alt = alt[:i]
			}
			if alt != "" {
				names = append(names, alt)
			}
		}
	}
	return names
}

func (s *Source) inspect(ctx context.Context, e entry) (*manager.Record, error) {
	prefixed := manager.HasRuntimePrefix(e.name)
	files, err := s.files(ctx, e.name)
	if err != nil {
		if !prefixed && !manager.RequiresPython(e.depends) {
			return nil, err
		}
		return s.record(e, nil), err
	}
	if !manager.IsPythonPackage(e.name, e.depends, files) {
		return nil, nil
	}
	return s.record(e, files), nil
}

func (s *Source) files(ctx context.Context, name string) ([]string, error) {
	res, err := s.runner.Run(ctx, command.Command{Name: "dpkg-query", Args: []string{"-L", name}})
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range res.Lines() {
		if line == "/." || !strings.HasPrefix(line, "/") || s.isDir(line) {
			continue
		}
		files = append(files, line)
	}
	return files, nil
}

func (s *Source) record(e entry, files []string) *manager.Record {
	return &manager.Record{
		Name:        manager.Normalize(e.name, manager.KindDpkg),
		PackageName: e.name,
		Version:     e.version,
		Location:    manager.LocationOf(files),
		Files:       files,
		Kind:        manager.KindDpkg,
	}
}

// Remove implements manager.Source with a single apt-get transaction.
func (s *Source) Remove(ctx context.Context, names []string, autoRemove bool) error {
	if len(names) == 0 {
		return nil
	}
	if err := errors.ValidatePackageNames(names); err != nil {
		return err
	}

	args := []string{"remove"}
	if autoRemove {
		args = append(args, "--auto-remove")
	}
	args = append(args, names...)

	s.logger.Info("Removing dpkg packages", "packages", strings.Join(names, " "))
	_, err := s.runner.Run(ctx, command.Command{Name: "apt-get", Args: args, Sudo: true, Interactive: true})
	return err
}

// Owns implements manager.Owner. Debian versions carry an epoch and a
// packaging revision, so only the upstream part is compared.
func (s *Source) Owns(ctx context.Context, name, version string) bool {
	for _, candidate := range manager.OwnerCandidates(name) {
		res, err := s.runner.Run(ctx, command.Command{
			Name: "dpkg-query",
			Args: []string{"-W", "-f", `${db:Status-Abbrev}\t${Version}\n`, candidate},
		})
		if err != nil {
			continue
		}
		for _, line := range res.Lines() {
			status, v, ok := strings.Cut(line, "\t")
			if ok && strings.HasPrefix(status, "ii") && UpstreamVersion(v) == version {
				return true
			}
		}
	}
	return false
}

// UpstreamVersion strips the epoch and Debian revision from a package
// version: "1:2.31.0+dfsg-1ubuntu1" becomes "2.31.0+dfsg".
func UpstreamVersion(v string) string {
	if _, rest, ok := strings.Cut(v, ":"); ok {
		v = rest
	}
	if i := strings.LastIndex(v, "-"); i > 0 {
		v = v[:i]
	}
	return v
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
