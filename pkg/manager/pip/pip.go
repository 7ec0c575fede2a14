// Package pip implements the package source for distributions installed
// with pip into the user or system site-packages.
package pip

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-multierror"

	"github.com/nikromen/pyclean/pkg/command"
	"github.com/nikromen/pyclean/pkg/errors"
	"github.com/nikromen/pyclean/pkg/manager"
)

// DefaultPython is the interpreter used to drive pip.
const DefaultPython = "python3"

// foreignInstallers are INSTALLER values written by other package managers.
// Distributions carrying one of them belong to that manager, not to pip.
var foreignInstallers = map[string]bool{
	"rpm":    true,
	"dnf":    true,
	"debian": true,
	"dpkg":   true,
	"apt":    true,
	"pipx":   true,
}

// Source lists and removes pip-installed distributions.
type Source struct {
	runner command.Runner
	logger *log.Logger
	python string
	system bool
	owner  manager.Owner

	lookPath func(string) bool
	euid     func() int
	open     func(string) (io.ReadCloser, error)
}

// Option configures a Source.
type Option func(*Source)

// WithPython sets the interpreter used to run "python -m pip".
func WithPython(python string) Option {
	return func(s *Source) {
		if python != "" {
			s.python = python
		}
	}
}

// WithSystem widens the scan from the user site to every site directory.
func WithSystem(system bool) Option {
	return func(s *Source) { s.system = system }
}

// WithOwner sets the native owner consulted for distributions that carry
// no INSTALLER metadata.
func WithOwner(owner manager.Owner) Option {
	return func(s *Source) { s.owner = owner }
}

// WithLookPath replaces the PATH lookup used by Exists.
func WithLookPath(fn func(string) bool) Option {
	return func(s *Source) { s.lookPath = fn }
}

// WithEUID replaces the effective user id lookup used by Remove.
func WithEUID(fn func() int) Option {
	return func(s *Source) { s.euid = fn }
}

// New creates a pip source.
func New(runner command.Runner, logger *log.Logger, opts ...Option) *Source {
	if logger == nil {
		logger = log.Default()
	}
	s := &Source{
		runner:   runner,
		logger:   logger,
		python:   DefaultPython,
		owner:    manager.Owners{},
		lookPath: command.Exists,
		euid:     os.Geteuid,
		open:     func(p string) (io.ReadCloser, error) { return os.Open(p) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Kind implements manager.Source.
func (s *Source) Kind() manager.Kind { return manager.KindPip }

// Exists implements manager.Source.
func (s *Source) Exists() bool {
	if !s.lookPath(s.python) {
		return false
	}
	return s.lookPath("pip") || s.lookPath("pip3")
}

// inspectReport is the subset of the "pip inspect" JSON report we use.
type inspectReport struct {
	Installed []installed `json:"installed"`
}

type installed struct {
	Metadata struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"metadata"`
	MetadataLocation string `json:"metadata_location"`
	Installer        string `json:"installer"`
}

// List implements manager.Source.
//
// Only distributions with a RECORD file are considered. Attribution follows
// the INSTALLER metadata: another manager's name excludes the distribution,
// an empty installer excludes it when a native manager owns the same
// version and marks it unknown otherwise, and anything else is pip.
func (s *Source) List(ctx context.Context) ([]manager.Record, error) {
	args := []string{"-m", "pip", "inspect"}
	if !s.system {
		args = append(args, "--user")
	}
	res, err := s.runner.Run(ctx, command.Command{Name: s.python, Args: args})
	if err != nil {
		return nil, err
	}

	var report inspectReport
	if err := json.Unmarshal([]byte(res.Stdout), &report); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParseFailed, err, "cannot parse pip inspect output")
	}

	var (
		records  []manager.Record
		degraded *multierror.Error
	)
	for _, dist := range report.Installed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, ok, err := s.record(ctx, dist)
		if err != nil {
			degraded = multierror.Append(degraded, err)
		}
		if ok {
			records = append(records, rec)
		}
	}

	if degraded != nil {
		s.logger.Warn("some pip distributions could not be read", "count", len(degraded.Errors))
		s.logger.Debug("pip read errors", "err", degraded.ErrorOrNil())
	}
	return records, nil
}

func (s *Source) record(ctx context.Context, dist installed) (manager.Record, bool, error) {
	name, version := dist.Metadata.Name, dist.Metadata.Version
	if name == "" || dist.MetadataLocation == "" {
		return manager.Record{}, false, nil
	}

	site := filepath.Dir(dist.MetadataLocation)
	files, err := s.recordFiles(dist.MetadataLocation, site)
	if err != nil {
		if os.IsNotExist(err) {
			return manager.Record{}, false, nil
		}
		return manager.Record{}, false, errors.Wrap(errors.ErrCodeParseFailed, err, "cannot read RECORD of %s", name)
	}

	kind, ok := s.attribute(ctx, name, version, dist.Installer)
	if !ok {
		s.logger.Debug("skipping distribution owned by another manager", "name", name, "installer", dist.Installer)
		return manager.Record{}, false, nil
	}

	return manager.Record{
		Name:        manager.Normalize(name, kind),
		PackageName: name,
		Version:     version,
		Location:    site,
		Files:       files,
		Kind:        kind,
	}, true, nil
}

// attribute decides the kind of a distribution from its INSTALLER value.
// The boolean is false when the distribution must be excluded.
func (s *Source) attribute(ctx context.Context, name, version, installer string) (manager.Kind, bool) {
	installer = strings.ToLower(strings.TrimSpace(installer))
	switch {
	case foreignInstallers[installer]:
		return "", false
	case installer == "":
		if s.owner.Owns(ctx, name, version) {
			return "", false
		}
		return manager.KindUnknown, true
	default:
		return manager.KindPip, true
	}
}

// recordFiles reads the first column of the RECORD manifest and resolves
// every entry against the site directory.
func (s *Source) recordFiles(metadataDir, site string) ([]string, error) {
	f, err := s.open(filepath.Join(metadataDir, "RECORD"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	var files []string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 || row[0] == "" {
			continue
		}
		path := row[0]
		if !filepath.IsAbs(path) {
			path = filepath.Join(site, path)
		}
		files = append(files, filepath.Clean(path))
	}
	return files, nil
}

// Remove implements manager.Source. pip has no dependency auto-removal, so
// autoRemove is ignored. Removing from the system site requires root and is
// refused up front otherwise.
func (s *Source) Remove(ctx context.Context, names []string, autoRemove bool) error {
	if len(names) == 0 {
		return nil
	}
	if s.system && s.euid() != 0 {
		return errors.New(errors.ErrCodePermissionDenied, "you need to be root to remove pip packages system-wide")
	}
	if err := errors.ValidatePackageNames(names); err != nil {
		return err
	}
	if autoRemove {
		s.logger.Debug("pip does not support removing dependencies, ignoring auto-remove")
	}

	s.logger.Info("Removing pip packages", "packages", strings.Join(names, " "))
	args := append([]string{"-m", "pip", "uninstall"}, names...)
	_, err := s.runner.Run(ctx, command.Command{Name: s.python, Args: args, Interactive: true})
	return err
}
