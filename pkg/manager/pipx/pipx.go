// Package pipx implements the package source for applications installed
// into isolated virtual environments by pipx.
package pipx

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/ini.v1"

	"github.com/nikromen/pyclean/pkg/command"
	"github.com/nikromen/pyclean/pkg/errors"
	"github.com/nikromen/pyclean/pkg/manager"
)

// Source lists and removes pipx-managed applications.
type Source struct {
	runner   command.Runner
	logger   *log.Logger
	lookPath func(string) bool
}

// Option configures a Source.
type Option func(*Source)

// WithLookPath replaces the PATH lookup used by Exists.
func WithLookPath(fn func(string) bool) Option {
	return func(s *Source) { s.lookPath = fn }
}

// New creates a pipx source.
func New(runner command.Runner, logger *log.Logger, opts ...Option) *Source {
	if logger == nil {
		logger = log.Default()
	}
	s := &Source{runner: runner, logger: logger, lookPath: command.Exists}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Kind implements manager.Source.
func (s *Source) Kind() manager.Kind { return manager.KindPipx }

// Exists implements manager.Source.
func (s *Source) Exists() bool { return s.lookPath("pipx") }

type pathValue struct {
	Path string `json:"__Path__"`
}

// listing is the subset of "pipx list --json" we use.
type listing struct {
	Venvs map[string]struct {
		Metadata struct {
			MainPackage struct {
				Package        string      `json:"package"`
				PackageVersion string      `json:"package_version"`
				AppPaths       []pathValue `json:"app_paths"`
			} `json:"main_package"`
			SourceInterpreter *pathValue `json:"source_interpreter"`
		} `json:"metadata"`
	} `json:"venvs"`
}

// List implements manager.Source. Venvs are reported in name order.
func (s *Source) List(ctx context.Context) ([]manager.Record, error) {
	res, err := s.runner.Run(ctx, command.Command{Name: "pipx", Args: []string{"list", "--json"}})
	if err != nil {
		return nil, err
	}

	var l listing
	if err := json.Unmarshal([]byte(res.Stdout), &l); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParseFailed, err, "cannot parse pipx list output")
	}

	venvs := make([]string, 0, len(l.Venvs))
	for name := range l.Venvs {
		venvs = append(venvs, name)
	}
	sort.Strings(venvs)

	records := make([]manager.Record, 0, len(venvs))
	for _, venv := range venvs {
		meta := l.Venvs[venv].Metadata
		pkg := meta.MainPackage
		if pkg.Package == "" {
			continue
		}

		var location string
		if len(pkg.AppPaths) > 0 && pkg.AppPaths[0].Path != "" {
			location = filepath.Dir(filepath.Dir(pkg.AppPaths[0].Path))
		} else {
			s.logger.Debug("pipx venv has no app paths, location unknown", "venv", venv)
		}

		var files []string
		if location != "" {
			interpreter := ""
			if meta.SourceInterpreter != nil {
				interpreter = meta.SourceInterpreter.Path
			}
			files = venvFiles(location, interpreter, pkg.Package)
		}

		records = append(records, manager.Record{
			Name:        pkg.Package,
			PackageName: pkg.Package,
			Version:     pkg.PackageVersion,
			Location:    location,
			Files:       files,
			Kind:        manager.KindPipx,
		})
	}
	return records, nil
}

// venvFiles returns the Python sources of pkg inside the venv rooted at
// dir. The lib/pythonX.Y directory is taken from the source interpreter
// name, then from pyvenv.cfg, then from the first lib/python* entry.
func venvFiles(dir, interpreter, pkg string) []string {
	lib := filepath.Join(dir, "lib")

	var candidates []string
	if interpreter != "" {
		candidates = append(candidates, filepath.Join(lib, filepath.Base(interpreter)))
	}
	if v := venvPythonVersion(dir); v != "" {
		candidates = append(candidates, filepath.Join(lib, "python"+v))
	}
	if entries, err := os.ReadDir(lib); err == nil {
		for _, e := range entries {
			if e.IsDir() && strings.HasPrefix(e.Name(), "python") {
				candidates = append(candidates, filepath.Join(lib, e.Name()))
				break
			}
		}
	}

	for _, pyDir := range candidates {
		if !isDir(pyDir) {
			continue
		}
		for _, name := range packageDirs(pkg) {
			root := filepath.Join(pyDir, "site-packages", name)
			if isDir(root) {
				return pythonFiles(root)
			}
		}
		return nil
	}
	return nil
}

// venvPythonVersion reads "X.Y" from the venv's pyvenv.cfg.
func venvPythonVersion(dir string) string {
	cfg, err := ini.Load(filepath.Join(dir, "pyvenv.cfg"))
	if err != nil {
		return ""
	}
	sec := cfg.Section(ini.DefaultSection)
	v := sec.Key("version_info").String()
	if v == "" {
		v = sec.Key("version").String()
	}
	parts := strings.Split(v, ".")
	if len(parts) < 2 {
		return ""
	}
	return parts[0] + "." + parts[1]
}

// packageDirs lists the import directory names a distribution may use.
func packageDirs(pkg string) []string {
	dirs := []string{pkg}
	if alt := strings.ReplaceAll(pkg, "-", "_"); alt != pkg {
		dirs = append(dirs, alt)
	}
	if lower := strings.ToLower(dirs[len(dirs)-1]); lower != dirs[len(dirs)-1] {
		dirs = append(dirs, lower)
	}
	return dirs
}

func pythonFiles(root string) []string {
	var files []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && filepath.Ext(path) == ".py" {
			files = append(files, path)
		}
		return nil
	})
	return files
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Remove implements manager.Source. pipx uninstalls one application per
// invocation, so names are removed sequentially and the first failure
// stops the run. autoRemove is ignored because every venv is self-contained.
func (s *Source) Remove(ctx context.Context, names []string, autoRemove bool) error {
	if err := errors.ValidatePackageNames(names); err != nil {
		return err
	}
	for _, name := range names {
		s.logger.Info("Removing pipx package", "package", name)
		if _, err := s.runner.Run(ctx, command.Command{Name: "pipx", Args: []string{"uninstall", name}, Interactive: true}); err != nil {
			return err
		}
	}
	return nil
}
