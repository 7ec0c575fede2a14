// Package command runs external package manager processes.
//
// Adapters never call os/exec directly; they describe the process with a
// [Command] and hand it to a [Runner]. Tests substitute a scripted runner
// (see the commandtest subpackage), so no adapter test needs rpm, dpkg, pip
// or pipx installed.
package command

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nikromen/pyclean/pkg/errors"
)

// DefaultSudo is the privilege escalation command used when none is configured.
const DefaultSudo = "sudo"

// Command describes one external process invocation.
type Command struct {
	Name string
	Args []string

	// Sudo runs the command through the configured escalation command unless
	// the current process is already root.
	Sudo bool

	// Interactive attaches the process to the terminal instead of capturing
	// its output, so the package manager can ask its own confirmations.
	Interactive bool

	// Env holds extra KEY=VALUE pairs appended to the inherited environment.
	Env []string
}

// String returns the command line as it would be typed in a shell.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Result holds the outcome of a finished process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Lines splits Stdout into trimmed, non-empty lines.
func (r Result) Lines() []string {
	var lines []string
	for _, line := range strings.Split(r.Stdout, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, c Command) (Result, error)
}

// Exec runs commands on the local host with os/exec.
type Exec struct {
	// SudoCommand is the escalation binary. Empty means DefaultSudo.
	SudoCommand string

	// Terminal streams used in interactive mode.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	logger *log.Logger
	euid   func() int
}

// NewExec creates a local runner wired to the process's standard streams.
func NewExec(logger *log.Logger, sudo string) *Exec {
	if logger == nil {
		logger = log.Default()
	}
	if sudo == "" {
		sudo = DefaultSudo
	}
	return &Exec{
		SudoCommand: sudo,
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		logger:      logger,
		euid:        os.Geteuid,
	}
}

// Run executes c and waits for it to finish. A process that exits non-zero
// yields an error with code COMMAND_FAILED wrapping an *errors.ExitError; a
// binary missing from PATH yields MANAGER_NOT_FOUND.
func (e *Exec) Run(ctx context.Context, c Command) (Result, error) {
	name, args := e.argv(c)
	cmd := exec.CommandContext(ctx, name, args...)
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	var stdout, stderr bytes.Buffer
	if c.Interactive {
		cmd.Stdin = e.Stdin
		cmd.Stdout = e.Stdout
		cmd.Stderr = e.Stderr
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	e.logger.Debug("exec", "cmd", strings.Join(append([]string{name}, args...), " "), "interactive", c.Interactive)

	start := time.Now()
	err := cmd.Run()
	result := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode(err),
		Duration: time.Since(start),
	}
	if err == nil {
		return result, nil
	}

	if ctx.Err() != nil {
		return result, ctx.Err()
	}

	var execErr *exec.Error
	if stderrors.As(err, &execErr) {
		return result, errors.Wrap(errors.ErrCodeManagerNotFound, err, "%s is not installed", name)
	}

	exit := &errors.ExitError{
		Command:  c.String(),
		ExitCode: result.ExitCode,
		Stderr:   strings.TrimSpace(result.Stderr),
	}
	return result, errors.Wrap(errors.ErrCodeCommandFailed, exit, "%s failed", c.Name)
}

func (e *Exec) argv(c Command) (string, []string) {
	if !c.Sudo || e.euid() == 0 {
		return c.Name, c.Args
	}
	sudo := e.SudoCommand
	if sudo == "" {
		sudo = DefaultSudo
	}
	return sudo, append([]string{c.Name}, c.Args...)
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// Exists reports whether name resolves to an executable on PATH.
func Exists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
