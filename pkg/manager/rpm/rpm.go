// Package rpm implements the native package source for rpm based
// distributions. Packages are listed through rpm and removed through dnf.
package rpm

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/nikromen/pyclean/pkg/command"
	"github.com/nikromen/pyclean/pkg/errors"
	"github.com/nikromen/pyclean/pkg/manager"
)

// DefaultWorkers is the number of concurrent per-package rpm queries.
const DefaultWorkers = 8

const noFiles = "(contains no files)"

// Source lists and removes Python packages managed by rpm.
type Source struct {
	runner   command.Runner
	logger   *log.Logger
	workers  int
	lookPath func(string) bool
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

// New creates an rpm source.
func New(runner command.Runner, logger *log.Logger, opts ...Option) *Source {
	if logger == nil {
		logger = log.Default()
	}
	s := &Source{
		runner:   runner,
		logger:   logger,
		workers:  DefaultWorkers,
		lookPath: command.Exists,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Kind implements manager.Source.
func (s *Source) Kind() manager.Kind { return manager.KindRPM }

// Exists implements manager.Source.
func (s *Source) Exists() bool { return s.lookPath("rpm") }

// List implements manager.Source. Every installed package is inspected
// concurrently; packages whose metadata cannot be read are skipped or
// reported without files, and the failures are logged once as a warning.
func (s *Source) List(ctx context.Context) ([]manager.Record, error) {
	res, err := s.runner.Run(ctx, command.Command{
		Name: "rpm",
		Args: []string{"-qa", "--queryformat", `%{NAME} %{VERSION}\n`},
	})
	if err != nil {
		return nil, err
	}
	lines := res.Lines()

	var (
		mu       sync.Mutex
		degraded *multierror.Error
	)
	records := make([]*manager.Record, len(lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, line := range lines {
		i, line := i, line
		g.Go(func() error {
			rec, err := s.inspect(gctx, line)
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
		s.logger.Warn("some rpm packages could not be fully inspected", "count", len(degraded.Errors))
		s.logger.Debug("rpm inspection errors", "err", degraded.ErrorOrNil())
	}

	out := make([]manager.Record, 0, len(records))
	for _, rec := range records {
		if rec != nil {
			out = append(out, *rec)
		}
	}
	s.logger.Debug("rpm scan complete", "installed", len(lines), "python", len(out))
	return out, nil
}

// inspect classifies one "NAME VERSION" line. It returns a nil record for
// packages that are not Python packages. A non-nil record together with an
// error means the record was degraded (its file list is unavailable).
func (s *Source) inspect(ctx context.Context, line string) (*manager.Record, error) {
	name, version, ok := strings.Cut(line, " ")
	if !ok {
		return nil, errors.New(errors.ErrCodeParseFailed, "malformed rpm query line %q", line)
	}

	prefixed := manager.HasRuntimePrefix(name)
	var requires []string
	if !prefixed {
		res, err := s.runner.Run(ctx, command.Command{Name: "rpm", Args: []string{"-qR", name}})
		if err != nil {
			return nil, err
		}
		requires = res.Lines()
	}

	files, err := s.files(ctx, name)
	if err != nil {
		if !prefixed && !manager.RequiresPython(requires) {
			return nil, err
		}
		return s.record(name, version, nil), err
	}

	if !manager.IsPythonPackage(name, requires, files) {
		return nil, nil
	}
	return s.record(name, version, files), nil
}

func (s *Source) files(ctx context.Context, name string) ([]string, error) {
	res, err := s.runner.Run(ctx, command.Command{Name: "rpm", Args: []string{"-ql", name}})
	if err != nil {
		return nil, err
	}
	lines := res.Lines()
	if len(lines) == 1 && lines[0] == noFiles {
		return nil, nil
	}
	return lines, nil
}

func (s *Source) record(name, version string, files []string) *manager.Record {
	return &manager.Record{
		Name:        manager.Normalize(name, manager.KindRPM),
		PackageName: name,
		Version:     version,
		Location:    manager.LocationOf(files),
		Files:       files,
		Kind:        manager.KindRPM,
	}
}

// Remove implements manager.Source. All names are passed to a single dnf
// transaction, which asks the operator for confirmation on the terminal.
func (s *Source) Remove(ctx context.Context, names []string, autoRemove bool) error {
	if len(names) == 0 {
		return nil
	}
	if err := errors.ValidatePackageNames(names); err != nil {
		return err
	}

	args := []string{"remove"}
	if !autoRemove {
		args = append(args, "--noautoremove")
	}
	args = append(args, names...)

	s.logger.Info("Removing rpm packages", "packages", strings.Join(names, " "))
	_, err := s.runner.Run(ctx, command.Command{Name: "dnf", Args: args, Sudo: true, Interactive: true})
	return err
}

// Owns implements manager.Owner: it reports whether rpm has the project
// installed at exactly version, under its bare or runtime-prefixed name.
func (s *Source) Owns(ctx context.Context, name, version string) bool {
	for _, candidate := range manager.OwnerCandidates(name) {
		res, err := s.runner.Run(ctx, command.Command{
			Name: "rpm",
			Args: []string{"-q", "--queryformat", `%{VERSION}\n`, candidate},
		})
		if err != nil {
			continue
		}
		for _, v := range res.Lines() {
			if v == version {
				return true
			}
		}
	}
	return false
}
