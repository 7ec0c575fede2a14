package pip

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikromen/pyclean/pkg/command/commandtest"
	"github.com/nikromen/pyclean/pkg/errors"
	"github.com/nikromen/pyclean/pkg/manager"
)

type ownerFunc func(name, version string) bool

func (f ownerFunc) Owns(_ context.Context, name, version string) bool { return f(name, version) }

// writeDist creates a dist-info directory with a RECORD file and returns
// its metadata location.
func writeDist(t *testing.T, site, name, record string) string {
	t.Helper()
	dir := filepath.Join(site, name+".dist-info")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	if record != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "RECORD"), []byte(record), 0o644))
	}
	return dir
}

func inspectJSON(t *testing.T, dists ...map[string]any) string {
	t.Helper()
	data, err := json.Marshal(map[string]any{"version": "1", "installed": dists})
	require.NoError(t, err)
	return string(data)
}

func dist(name, version, location, installer string) map[string]any {
	return map[string]any{
		"metadata":          map[string]any{"name": name, "version": version},
		"metadata_location": location,
		"installer":         installer,
	}
}

func TestListAttribution(t *testing.T) {
	site := t.TempDir()
	requests := writeDist(t, site, "requests-2.31.0", "requests/__init__.py,sha256=abc,100\nrequests/api.py,,\n../../../bin/req,,\n")
	rpmOwned := writeDist(t, site, "six-1.16.0", "six.py,,\n")
	unknown := writeDist(t, site, "attrs-23.1.0", "attrs/__init__.py,,\n")
	dnfOwned := writeDist(t, site, "idna-3.4", "idna/__init__.py,,\n")
	noRecord := writeDist(t, site, "legacy-0.1", "")

	r := &commandtest.Runner{}
	r.Stdout("python3 -m pip inspect --user", inspectJSON(t,
		dist("requests", "2.31.0", requests, "pip"),
		dist("six", "1.16.0", rpmOwned, ""),
		dist("attrs", "23.1.0", unknown, ""),
		dist("idna", "3.4", dnfOwned, "dnf"),
		dist("legacy", "0.1", noRecord, "pip"),
	))

	owner := ownerFunc(func(name, version string) bool { return name == "six" && version == "1.16.0" })
	s := New(r, log.New(&bytes.Buffer{}), WithOwner(owner))

	records, err := s.List(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, manager.Record{
		Name:        "requests",
		PackageName: "requests",
		Version:     "2.31.0",
		Location:    site,
		Files: []string{
			filepath.Join(site, "requests/__init__.py"),
			filepath.Join(site, "requests/api.py"),
			filepath.Clean(filepath.Join(site, "../../../bin/req")),
		},
		Kind: manager.KindPip,
	}, records[0])
	assert.Equal(t, "attrs", records[1].Name)
	assert.Equal(t, manager.KindUnknown, records[1].Kind)
}

func TestListSystemScanDropsUserFlag(t *testing.T) {
	r := &commandtest.Runner{}
	r.Stdout("python3.12 -m pip inspect", inspectJSON(t))

	s := New(r, log.New(&bytes.Buffer{}), WithSystem(true), WithPython("python3.12"))
	records, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
	r.AssertExpectations(t)
}

func TestListMalformedJSON(t *testing.T) {
	r := &commandtest.Runner{}
	r.Stdout("python3 -m pip inspect --user", "not json")

	_, err := New(r, log.New(&bytes.Buffer{})).List(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeParseFailed))
}

func TestListPipFailure(t *testing.T) {
	r := &commandtest.Runner{}
	r.Fail("python3 -m pip inspect --user", 2, "ERROR: unknown command \"inspect\"")

	_, err := New(r, log.New(&bytes.Buffer{})).List(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeCommandFailed))
}

func TestRemoveUser(t *testing.T) {
	rec := &commandtest.Recorder{}
	s := New(rec, log.New(&bytes.Buffer{}), WithEUID(func() int { return 1000 }))

	require.NoError(t, s.Remove(context.Background(), []string{"requests", "attrs"}, true))

	require.Len(t, rec.Calls, 1)
	assert.Equal(t, "python3", rec.Calls[0].Name)
	assert.Equal(t, []string{"-m", "pip", "uninstall", "requests", "attrs"}, rec.Calls[0].Args)
	assert.True(t, rec.Calls[0].Interactive)
	assert.False(t, rec.Calls[0].Sudo)
}

func TestRemoveSystemRequiresRoot(t *testing.T) {
	rec := &commandtest.Recorder{}
	s := New(rec, log.New(&bytes.Buffer{}), WithSystem(true), WithEUID(func() int { return 1000 }))

	err := s.Remove(context.Background(), []string{"requests"}, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodePermissionDenied))
	assert.Empty(t, rec.Calls)

	s = New(rec, log.New(&bytes.Buffer{}), WithSystem(true), WithEUID(func() int { return 0 }))
	require.NoError(t, s.Remove(context.Background(), []string{"requests"}, false))
	assert.Len(t, rec.Calls, 1)
}

func TestExists(t *testing.T) {
	tests := []struct {
		name string
		path map[string]bool
		want bool
	}{
		{"python and pip", map[string]bool{"python3": true, "pip": true}, true},
		{"python and pip3", map[string]bool{"python3": true, "pip3": true}, true},
		{"no pip", map[string]bool{"python3": true}, false},
		{"no python", map[string]bool{"pip": true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&commandtest.Recorder{}, nil, WithLookPath(func(n string) bool { return tt.path[n] }))
			assert.Equal(t, tt.want, s.Exists())
		})
	}
}

var _ manager.Source = (*Source)(nil)
