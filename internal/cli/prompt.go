package cli

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/fatih/color"

	"github.com/nikromen/pyclean/internal/terminal"
	"github.com/nikromen/pyclean/pkg/cleaner"
	"github.com/nikromen/pyclean/pkg/dupes"
	"github.com/nikromen/pyclean/pkg/errors"
)

// prompter drives interactive removal and the yes/no gates that guard
// destructive commands.
type prompter interface {
	cleaner.Prompter

	// Gate asks a yes/no question that defaults to no.
	Gate(question string) (bool, error)
}

var (
	_ prompter = (*LinePrompter)(nil)
	_ prompter = (*HuhPrompter)(nil)
)

// errInputClosed ends an interactive session when input runs out.
var errInputClosed = errors.New(errors.ErrCodeCancelled, "input closed")

// errAborted ends an interactive session when the operator aborts a form.
var errAborted = errors.New(errors.ErrCodeCancelled, "aborted")

// =============================================================================
// LinePrompter - plain line-based prompts
// =============================================================================

// LinePrompter reads answers one line at a time. It is used when pyclean
// is not attached to a terminal, for example when answers are piped in.
type LinePrompter struct {
	in   *bufio.Reader
	out  io.Writer
	warn *color.Color
}

// NewLinePrompter creates a prompter reading from in and writing to out.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{
		in:   bufio.NewReader(in),
		out:  out,
		warn: color.New(color.FgYellow),
	}
}

func (p *LinePrompter) Present(group dupes.Group) {
	fmt.Fprint(p.out, renderGroup(group, false))
	fmt.Fprintln(p.out, "Choose package for removal (write the number of the package above):")
}

func (p *LinePrompter) Select(dupes.Group) (string, error) {
	return p.readLine()
}

func (p *LinePrompter) Confirm(question string) (string, error) {
	fmt.Fprintf(p.out, "%s [y/N] ", question)
	return p.readLine()
}

func (p *LinePrompter) Invalid(message string) {
	p.warn.Fprintln(p.out, message)
}

// Gate prints question as a warning. Anything but "y" or "yes" declines,
// including end of input.
func (p *LinePrompter) Gate(question string) (bool, error) {
	p.warn.Fprintf(p.out, "%s [y/N] ", question)
	answer, err := p.readLine()
	if stderrors.Is(err, errInputClosed) {
		fmt.Fprintln(p.out)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// readLine returns the next line without surrounding whitespace. A final
// line without a newline is still returned.
func (p *LinePrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			if line != "" {
				return strings.TrimSpace(line), nil
			}
			return "", errInputClosed
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// =============================================================================
// HuhPrompter - terminal forms
// =============================================================================

// HuhPrompter asks questions with huh forms rendered on stderr.
type HuhPrompter struct {
	out        io.Writer
	isTerminal func() bool
}

var runFormFunc = func(form *huh.Form) error { return form.Run() }

// NewHuhPrompter creates a form-based prompter that prints tables to out.
func NewHuhPrompter(out io.Writer) *HuhPrompter {
	return &HuhPrompter{out: out, isTerminal: terminal.IsInteractive}
}

func (p *HuhPrompter) Present(group dupes.Group) {
	fmt.Fprint(p.out, renderGroup(group, false))
}

// Select offers every member of group and returns the chosen 1-based
// number as a string.
func (p *HuhPrompter) Select(group dupes.Group) (string, error) {
	opts := make([]huh.Option[string], len(group.Records))
	for i, rec := range group.Records {
		n := strconv.Itoa(i + 1)
		label := fmt.Sprintf("%s. %s %s via %s (%s)", n, rec.PackageName, rec.Version, rec.Kind, recordLocation(rec))
		opts[i] = huh.NewOption(label, n)
	}

	var choice string
	err := p.runForm(huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Choose package for removal").
			Options(opts...).
			Value(&choice),
	)))
	return choice, err
}

func (p *HuhPrompter) Confirm(question string) (string, error) {
	yes, err := p.confirm(question)
	if err != nil {
		return "", err
	}
	if yes {
		return "y", nil
	}
	return "n", nil
}

func (p *HuhPrompter) Invalid(message string) {
	printWarning(p.out, "%s", message)
}

// Gate asks question; aborting the form declines.
func (p *HuhPrompter) Gate(question string) (bool, error) {
	yes, err := p.confirm(question)
	if stderrors.Is(err, errAborted) {
		return false, nil
	}
	return yes, err
}

func (p *HuhPrompter) confirm(question string) (bool, error) {
	var yes bool
	err := p.runForm(huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(question).
			Affirmative("Yes").
			Negative("No").
			Value(&yes),
	)))
	return yes, err
}

// promptKeyMap lets both esc and ctrl+c abort a form.
func promptKeyMap() *huh.KeyMap {
	km := huh.NewDefaultKeyMap()
	km.Quit = key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "abort"))
	km.Select.Filter.SetEnabled(false)
	km.Select.SetFilter.SetEnabled(false)
	km.Select.ClearFilter.SetEnabled(false)
	return km
}

// runForm runs form on stderr and maps an operator abort to errAborted.
func (p *HuhPrompter) runForm(form *huh.Form) error {
	checker := p.isTerminal
	if checker == nil {
		checker = terminal.IsInteractive
	}
	if !checker() {
		return errors.New(errors.ErrCodeUnsupported, "interactive prompts require a terminal")
	}

	form.WithKeyMap(promptKeyMap())
	form.WithProgramOptions(tea.WithOutput(os.Stderr))

	err := runFormFunc(form)
	if stderrors.Is(err, huh.ErrUserAborted) {
		return errAborted
	}
	return err
}
