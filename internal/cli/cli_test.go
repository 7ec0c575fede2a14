package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nikromen/pyclean/pkg/buildinfo"
	"github.com/nikromen/pyclean/pkg/config"
	"github.com/nikromen/pyclean/pkg/errors"
	"github.com/nikromen/pyclean/pkg/manager"
	"github.com/nikromen/pyclean/pkg/observability"
)

// fakeSource is a testify mock of manager.Source with canned records.
type fakeSource struct {
	mock.Mock
	kind    manager.Kind
	exists  bool
	records []manager.Record
}

func newFakeSource(kind manager.Kind, records ...manager.Record) *fakeSource {
	return &fakeSource{kind: kind, exists: true, records: records}
}

func (f *fakeSource) Kind() manager.Kind { return f.kind }
func (f *fakeSource) Exists() bool       { return f.exists }

func (f *fakeSource) List(context.Context) ([]manager.Record, error) {
	return f.records, nil
}

func (f *fakeSource) Remove(_ context.Context, names []string, autoRemove bool) error {
	return f.Called(names, autoRemove).Error(0)
}

// scenario has "requests" installed both as rpm and by pip into the user
// site, and "six" installed by pip only.
type scenario struct {
	rpm, dpkg, pip, pipx *fakeSource
}

func newScenario() *scenario {
	return &scenario{
		rpm: newFakeSource(manager.KindRPM, manager.Record{
			Name: "requests", PackageName: "python3-requests", Version: "2.31.0",
			Location: "/usr/lib/python3.12/site-packages/requests",
			Files:    []string{"/usr/lib/python3.12/site-packages/requests/__init__.py"},
			Kind:     manager.KindRPM,
		}),
		dpkg: &fakeSource{kind: manager.KindDpkg},
		pip: newFakeSource(manager.KindPip,
			manager.Record{
				Name: "requests", PackageName: "requests", Version: "2.32.3",
				Location: "/home/user/.local/lib/python3.12/site-packages",
				Files:    []string{"/home/user/.local/lib/python3.12/site-packages/requests/api.py"},
				Kind:     manager.KindPip,
			},
			manager.Record{
				Name: "six", PackageName: "six", Version: "1.16.0",
				Location: "/home/user/.local/lib/python3.12/site-packages",
				Kind:     manager.KindPip,
			},
		),
		pipx: newFakeSource(manager.KindPipx),
	}
}

func (s *scenario) sources() []manager.Source {
	return []manager.Source{s.rpm, s.dpkg, s.pip, s.pipx}
}

// run executes pyclean with args, feeding input as stdin.
func run(t *testing.T, sources []manager.Source, input string, args ...string) (string, error) {
	t.Helper()
	out, _, err := runLogged(t, sources, input, args...)
	return out, err
}

// runLogged is run that also returns what pyclean logged.
func runLogged(t *testing.T, sources []manager.Source, input string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Cleanup(observability.Reset)

	var logs bytes.Buffer
	c := New(&logs, LogInfo)
	c.sources = func(*config.Config) []manager.Source { return sources }
	c.interactive = func() bool { return false }

	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(input))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), logs.String(), err
}

// noDelayConfig writes a config file that disables the confirmation pause.
func noDelayConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`confirm_delay = "0s"`+"\n"), 0o644))
	return path
}

func TestShowNoDuplicates(t *testing.T) {
	s := newScenario()
	s.rpm.records = nil

	out, err := run(t, s.sources(), "", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "No duplicate packages found")
}

func TestShowRendersGroups(t *testing.T) {
	s := newScenario()

	out, err := run(t, s.sources(), "", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "requests")
	assert.Contains(t, out, "python3-requests")
	assert.Contains(t, out, "2.32.3")
	assert.Contains(t, out, "Installer")
	assert.NotContains(t, out, "six")
	assert.NotContains(t, out, "api.py")
	assert.Contains(t, out, "pyclean clean -i")
}

func TestShowVerboseListsFiles(t *testing.T) {
	s := newScenario()

	out, err := run(t, s.sources(), "", "show", "-v")
	require.NoError(t, err)
	assert.Contains(t, out, "/home/user/.local/lib/python3.12/site-packages/requests/api.py")
	assert.Contains(t, out, "/usr/lib/python3.12/site-packages/requests/__init__.py")
}

func TestShowSystemSuggestion(t *testing.T) {
	s := newScenario()

	out, err := run(t, s.sources(), "", "-s", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "pyclean -s clean -i")
}

func TestShowOutputFile(t *testing.T) {
	for _, name := range []string{"report.json", "report.yaml"} {
		t.Run(name, func(t *testing.T) {
			s := newScenario()
			path := filepath.Join(t.TempDir(), name)

			out, logs, err := runLogged(t, s.sources(), "", "show", "--output-file", path)
			require.NoError(t, err)
			assert.Contains(t, out, "python3-requests")
			assert.Contains(t, logs, "Report written")

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Contains(t, string(data), "python3-requests")
			assert.NotContains(t, string(data), "six")
		})
	}
}

func TestShowOutputFileUnwritable(t *testing.T) {
	s := newScenario()
	path := filepath.Join(t.TempDir(), "missing", "report.json")

	_, err := run(t, s.sources(), "", "show", "--output-file", path)
	require.Error(t, err)
}

func TestCleanRequiresPackageType(t *testing.T) {
	s := newScenario()

	out, err := run(t, s.sources(), "", "clean")
	require.NoError(t, err)
	assert.Contains(t, out, "You have to specify package type")
	s.pip.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
	s.rpm.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
}

func TestCleanInvalidPackageType(t *testing.T) {
	s := newScenario()

	_, err := run(t, s.sources(), "", "clean", "-t", "conda")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidKind))
}

func TestCleanBatchPip(t *testing.T) {
	s := newScenario()
	s.pip.On("Remove", []string{"requests"}, false).Return(nil).Once()

	out, err := run(t, s.sources(), "", "clean", "-t", "pip")
	require.NoError(t, err)

	s.pip.AssertExpectations(t)
	s.rpm.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
	assert.Contains(t, out, "Removed 1 pip packages")
}

func TestCleanBatchNothingToRemove(t *testing.T) {
	s := newScenario()

	out, err := run(t, s.sources(), "", "clean", "-t", "pipx")
	require.NoError(t, err)
	assert.Contains(t, out, "No duplicate pipx packages to remove")
}

func TestCleanInactiveManager(t *testing.T) {
	s := newScenario()

	out, err := run(t, s.sources(), "", "clean", "-t", "dpkg")
	require.NoError(t, err)
	assert.Contains(t, out, "dpkg is not available on this system")
	assert.NotContains(t, out, "You are about to remove")
	s.rpm.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
	s.pip.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
}

func TestCleanNativeGate(t *testing.T) {
	t.Run("declined", func(t *testing.T) {
		s := newScenario()

		out, err := run(t, s.sources(), "n\n", "clean", "-t", "rpm")
		require.NoError(t, err)
		assert.Contains(t, out, "You are about to remove rpm packages")
		s.rpm.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
	})

	t.Run("empty answer declines", func(t *testing.T) {
		s := newScenario()

		_, err := run(t, s.sources(), "\n", "clean", "-t", "rpm")
		require.NoError(t, err)
		s.rpm.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
	})

	t.Run("accepted", func(t *testing.T) {
		s := newScenario()
		s.rpm.On("Remove", []string{"python3-requests"}, true).Return(nil).Once()

		out, err := run(t, s.sources(), "y\n", "clean", "-t", "rpm", "--auto-remove")
		require.NoError(t, err)
		s.rpm.AssertExpectations(t)
		assert.Contains(t, out, "python3-requests")
	})
}

func TestCleanSystemGates(t *testing.T) {
	t.Run("system gate declined", func(t *testing.T) {
		s := newScenario()

		out, err := run(t, s.sources(), "n\n", "-s", "clean", "-t", "pip")
		require.NoError(t, err)
		assert.Contains(t, out, "System clean is enabled")
		assert.NotContains(t, out, "As you wish")
		s.pip.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
	})

	t.Run("second gate declined", func(t *testing.T) {
		s := newScenario()

		out, err := run(t, s.sources(), "y\nn\n", "-s", "clean", "-t", "pip")
		require.NoError(t, err)
		assert.Contains(t, out, "Do you still want to continue?")
		assert.NotContains(t, out, "As you wish")
		s.pip.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
	})

	t.Run("both accepted", func(t *testing.T) {
		s := newScenario()
		s.pip.On("Remove", []string{"requests"}, false).Return(nil).Once()

		out, err := run(t, s.sources(), "y\nyes\n", "-s", "--config", noDelayConfig(t), "clean", "-t", "pip")
		require.NoError(t, err)
		assert.Contains(t, out, "As you wish...")
		s.pip.AssertExpectations(t)
	})
}

func TestCleanInteractive(t *testing.T) {
	s := newScenario()
	s.pip.On("Remove", []string{"requests"}, true).Return(nil).Once()

	out, err := run(t, s.sources(), "2\ny\ny\n", "clean", "-i")
	require.NoError(t, err)

	s.pip.AssertExpectations(t)
	s.rpm.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
	assert.Contains(t, out, "Choose package for removal")
	assert.Contains(t, out, "requests: removed requests (pip)")
}

func TestCleanInteractiveIgnoresBatchFlags(t *testing.T) {
	s := newScenario()

	out, err := run(t, s.sources(), "1\nn\nn\n", "clean", "-i", "-t", "rpm", "--auto-remove")
	require.NoError(t, err)

	assert.Contains(t, out, "options will be ignored")
	assert.Contains(t, out, "requests: skipped")
	s.rpm.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
}

func TestCleanInteractiveInvalidAnswers(t *testing.T) {
	s := newScenario()
	s.rpm.On("Remove", []string{"python3-requests"}, false).Return(nil).Once()

	out, err := run(t, s.sources(), "7\nx\n1\nmaybe\nn\ny\n", "clean", "-i")
	require.NoError(t, err)

	s.rpm.AssertExpectations(t)
	assert.Contains(t, out, "Invalid package number.")
	assert.Contains(t, out, "Invalid input.")
}

func TestCleanInteractiveInputClosed(t *testing.T) {
	s := newScenario()

	out, err := run(t, s.sources(), "2\n", "clean", "-i")
	require.NoError(t, err)
	assert.Contains(t, out, "Stopped: input closed")
	s.pip.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
}

func TestCleanInteractiveNoDuplicates(t *testing.T) {
	s := newScenario()
	s.rpm.records = nil

	out, err := run(t, s.sources(), "", "clean", "-i")
	require.NoError(t, err)
	assert.Contains(t, out, "No duplicate packages found")
}

func TestManagers(t *testing.T) {
	s := newScenario()

	out, err := run(t, s.sources(), "", "managers")
	require.NoError(t, err)
	for _, name := range manager.KindNames() {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "missing")
	assert.Contains(t, out, "found")
}

func TestManagersRespectsConfig(t *testing.T) {
	s := newScenario()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("managers: [rpm, pip]\n"), 0o644))

	out, err := run(t, s.sources(), "", "--config", path, "managers")
	require.NoError(t, err)
	assert.Contains(t, out, "no")
}

func TestDisabledManagerIsNotScanned(t *testing.T) {
	s := newScenario()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`managers = ["pip", "pipx"]`+"\n"), 0o644))

	out, err := run(t, s.sources(), "", "--config", path, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "No duplicate packages found")
}

func TestInvalidConfig(t *testing.T) {
	s := newScenario()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("managers = [\n"), 0o644))

	_, err := run(t, s.sources(), "", "--config", path, "show")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}

func TestCompletion(t *testing.T) {
	out, err := run(t, nil, "", "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "pyclean")
}

func TestVersion(t *testing.T) {
	out, err := run(t, nil, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, out, buildinfo.Version)
}

func TestShowJSON(t *testing.T) {
	s := newScenario()

	out, err := run(t, s.sources(), "", "show", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"package": "python3-requests"`)
	assert.NotContains(t, out, "Remove duplicates")
}

func TestShowUnsupportedOutput(t *testing.T) {
	s := newScenario()

	_, err := run(t, s.sources(), "", "show", "-o", "xml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}
