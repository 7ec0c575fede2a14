package cleaner

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nikromen/pyclean/pkg/errors"
	"github.com/nikromen/pyclean/pkg/manager"
)

// mockSource is a testify mock of manager.Source.
type mockSource struct {
	mock.Mock
	kind    manager.Kind
	exists  bool
	records []manager.Record
}

func newMockSource(kind manager.Kind, records ...manager.Record) *mockSource {
	return &mockSource{kind: kind, exists: true, records: records}
}

func (m *mockSource) Kind() manager.Kind { return m.kind }
func (m *mockSource) Exists() bool       { return m.exists }

func (m *mockSource) List(context.Context) ([]manager.Record, error) {
	return m.records, nil
}

func (m *mockSource) Remove(_ context.Context, names []string, autoRemove bool) error {
	args := m.Called(names, autoRemove)
	return args.Error(0)
}

type failingSource struct{ *mockSource }

func (f *failingSource) List(context.Context) ([]manager.Record, error) {
	return nil, errors.New(errors.ErrCodeCommandFailed, "rpm exploded")
}

func rec(kind manager.Kind, pkgName, location string) manager.Record {
	return manager.Record{
		Name:        manager.Normalize(pkgName, kind),
		PackageName: pkgName,
		Version:     "1.0",
		Location:    location,
		Kind:        kind,
	}
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestNewDropsMissingSources(t *testing.T) {
	rpm := newMockSource(manager.KindRPM)
	pip := newMockSource(manager.KindPip)
	pip.exists = false

	c := New([]manager.Source{rpm, nil, pip}, quietLogger())

	require.Len(t, c.Sources(), 1)
	_, ok := c.Source(manager.KindPip)
	assert.False(t, ok)
	src, ok := c.Source(manager.KindRPM)
	assert.True(t, ok)
	assert.Equal(t, rpm, src)
}

func TestDuplicatesFollowSourceOrder(t *testing.T) {
	rpm := newMockSource(manager.KindRPM, rec(manager.KindRPM, "python3-pkg", "/usr/lib"))
	pip := newMockSource(manager.KindPip, rec(manager.KindPip, "pkg", "/home/u"))
	pipx := newMockSource(manager.KindPipx, rec(manager.KindPipx, "pkg", "/home/u/.local/pipx/venvs/pkg"))

	c := New([]manager.Source{rpm, pip, pipx}, quietLogger())
	d, err := c.Duplicates(context.Background())
	require.NoError(t, err)

	got, ok := d.Get("pkg")
	require.True(t, ok)
	require.Len(t, got, 3)
	assert.Equal(t, []manager.Kind{manager.KindRPM, manager.KindPip, manager.KindPipx},
		[]manager.Kind{got[0].Kind, got[1].Kind, got[2].Kind})
}

func TestDuplicatesListFailureIsFatal(t *testing.T) {
	bad := &failingSource{mockSource: newMockSource(manager.KindRPM)}
	c := New([]manager.Source{bad}, quietLogger())

	_, err := c.Duplicates(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeCommandFailed))
}

func TestCleanIssuesOneBatchCall(t *testing.T) {
	rpm := newMockSource(manager.KindRPM,
		rec(manager.KindRPM, "python3-pkgX", "/usr/lib"),
		rec(manager.KindRPM, "python3-solo", "/usr/lib"),
	)
	pip := newMockSource(manager.KindPip,
		rec(manager.KindPip, "pkgX", "/home/u"),
		rec(manager.KindPip, "onlypip", "/home/u"),
	)
	pip.On("Remove", []string{"pkgX"}, false).Return(nil).Once()

	c := New([]manager.Source{rpm, pip}, quietLogger())
	removed, err := c.Clean(context.Background(), manager.KindPip, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"pkgX"}, removed)
	pip.AssertNumberOfCalls(t, "Remove", 1)
	rpm.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
}

func TestCleanPassesNativeNames(t *testing.T) {
	rpm := newMockSource(manager.KindRPM,
		rec(manager.KindRPM, "python3-b", "/usr/lib"),
		rec(manager.KindRPM, "python3-a", "/usr/lib"),
	)
	pip := newMockSource(manager.KindPip,
		rec(manager.KindPip, "a", "/home/u"),
		rec(manager.KindPip, "b", "/home/u"),
	)
	rpm.On("Remove", []string{"python3-a", "python3-b"}, true).Return(nil).Once()

	c := New([]manager.Source{rpm, pip}, quietLogger())
	_, err := c.Clean(context.Background(), manager.KindRPM, true)
	require.NoError(t, err)

	rpm.AssertExpectations(t)
	pip.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
}

func TestCleanNothingToDo(t *testing.T) {
	pip := newMockSource(manager.KindPip, rec(manager.KindPip, "solo", "/home/u"))

	c := New([]manager.Source{pip}, quietLogger())
	removed, err := c.Clean(context.Background(), manager.KindPip, false)
	require.NoError(t, err)

	assert.Empty(t, removed)
	pip.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
}

func TestCleanInactiveManager(t *testing.T) {
	rpm := newMockSource(manager.KindRPM, rec(manager.KindRPM, "python3-pkg", "/usr/lib"))
	pip := newMockSource(manager.KindPip, rec(manager.KindPip, "pkg", "/home/u"))
	c := New([]manager.Source{rpm, pip}, quietLogger())

	names, err := c.Clean(context.Background(), manager.KindPipx, false)
	require.NoError(t, err)
	assert.Empty(t, names)
	pip.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
}

func TestCleanPropagatesRemoveFailure(t *testing.T) {
	rpm := newMockSource(manager.KindRPM, rec(manager.KindRPM, "python3-pkg", "/usr/lib"))
	pip := newMockSource(manager.KindPip, rec(manager.KindPip, "pkg", "/home/u"))
	pip.On("Remove", []string{"pkg"}, false).Return(errors.New(errors.ErrCodePermissionDenied, "root required"))

	c := New([]manager.Source{rpm, pip}, quietLogger())
	_, err := c.Clean(context.Background(), manager.KindPip, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodePermissionDenied))
}

func TestRecordsLogsWithScanID(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)

	c := New([]manager.Source{newMockSource(manager.KindPip)}, logger)
	_, err := c.Records(context.Background())
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "scan=")
}
