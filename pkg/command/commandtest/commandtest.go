// Package commandtest provides a scripted command.Runner for adapter tests.
package commandtest

import (
	"context"
	"strings"

	"github.com/stretchr/testify/mock"

	"github.com/nikromen/pyclean/pkg/command"
	"github.com/nikromen/pyclean/pkg/errors"
)

// Runner is a testify mock of command.Runner. Expectations are keyed by the
// full command line, e.g. "rpm -ql python3-requests".
type Runner struct {
	mock.Mock
}

// Run implements command.Runner.
func (r *Runner) Run(ctx context.Context, c command.Command) (command.Result, error) {
	args := r.Called(c.String())
	res, _ := args.Get(0).(command.Result)
	return res, args.Error(1)
}

// Stdout registers a successful invocation of line printing out.
func (r *Runner) Stdout(line, out string) *mock.Call {
	return r.On("Run", line).Return(command.Result{Stdout: out}, nil)
}

// Fail registers an invocation of line exiting with status code.
func (r *Runner) Fail(line string, code int, stderr string) *mock.Call {
	exit := &errors.ExitError{Command: line, ExitCode: code, Stderr: stderr}
	err := errors.Wrap(errors.ErrCodeCommandFailed, exit, "%s failed", strings.Fields(line)[0])
	return r.On("Run", line).Return(command.Result{Stderr: stderr, ExitCode: code}, err)
}

// Recorder captures every command it is asked to run and answers from a
// fixed table. Lines without an entry succeed with empty output. It is safe
// for sequential use only.
type Recorder struct {
	Outputs map[string]string
	Calls   []command.Command
}

// Run implements command.Runner.
func (r *Recorder) Run(_ context.Context, c command.Command) (command.Result, error) {
	r.Calls = append(r.Calls, c)
	return command.Result{Stdout: r.Outputs[c.String()]}, nil
}
