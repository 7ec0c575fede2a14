package command

import (
	"bytes"
	"context"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikromen/pyclean/pkg/errors"
)

func newTestExec(euid int) *Exec {
	e := NewExec(log.New(&bytes.Buffer{}), "")
	e.euid = func() int { return euid }
	return e
}

func TestRunCapturesOutput(t *testing.T) {
	e := newTestExec(1000)

	res, err := e.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo one; echo two; echo err >&2"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "two"}, res.Lines())
	assert.Equal(t, "err\n", res.Stderr)
	assert.Equal(t, 0, res.ExitCode)
}

func TestRunNonZeroExit(t *testing.T) {
	e := newTestExec(1000)

	res, err := e.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo boom >&2; exit 3"}})
	require.Error(t, err)

	assert.True(t, errors.Is(err, errors.ErrCodeCommandFailed))
	assert.Equal(t, 3, res.ExitCode)

	var exit *errors.ExitError
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 3, exit.ExitCode)
	assert.Equal(t, "boom", exit.Stderr)
}

func TestRunMissingBinary(t *testing.T) {
	e := newTestExec(1000)

	_, err := e.Run(context.Background(), Command{Name: "pyclean-no-such-binary"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeManagerNotFound))
}

func TestRunInteractiveUsesTerminalStreams(t *testing.T) {
	e := newTestExec(1000)
	var out bytes.Buffer
	e.Stdin = bytes.NewBufferString("y\n")
	e.Stdout = &out

	res, err := e.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "read a; echo got $a"}, Interactive: true})
	require.NoError(t, err)

	assert.Equal(t, "got y\n", out.String())
	assert.Empty(t, res.Stdout)
}

func TestRunCancelledContext(t *testing.T) {
	e := newTestExec(1000)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Run(ctx, Command{Name: "sleep", Args: []string{"5"}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestArgvSudo(t *testing.T) {
	tests := []struct {
		name     string
		euid     int
		sudo     bool
		wantName string
		wantArgs []string
	}{
		{"plain", 1000, false, "dnf", []string{"remove", "x"}},
		{"sudo as user", 1000, true, "sudo", []string{"dnf", "remove", "x"}},
		{"sudo as root", 0, true, "dnf", []string{"remove", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestExec(tt.euid)
			name, args := e.argv(Command{Name: "dnf", Args: []string{"remove", "x"}, Sudo: tt.sudo})
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestArgvCustomSudo(t *testing.T) {
	e := NewExec(log.New(&bytes.Buffer{}), "doas")
	e.euid = func() int { return 1000 }

	name, args := e.argv(Command{Name: "apt-get", Args: []string{"remove"}, Sudo: true})
	assert.Equal(t, "doas", name)
	assert.Equal(t, []string{"apt-get", "remove"}, args)
}

func TestCommandString(t *testing.T) {
	c := Command{Name: "rpm", Args: []string{"-q", "--queryformat", "%{VERSION}", "python3-requests"}}
	assert.Equal(t, "rpm -q --queryformat %{VERSION} python3-requests", c.String())
}

func TestExists(t *testing.T) {
	assert.True(t, Exists("sh"))
	assert.False(t, Exists("pyclean-no-such-binary"))
}
