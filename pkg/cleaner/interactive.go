package cleaner

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nikromen/pyclean/pkg/dupes"
	"github.com/nikromen/pyclean/pkg/errors"
	"github.com/nikromen/pyclean/pkg/manager"
)

// State is a step of the interactive removal loop for one duplicate group.
type State int

const (
	StatePresent State = iota
	StateSelect
	StateConfirmDeps
	StateConfirmRemove
	StateRemoved
	StateCancelled
	StateDone
)

var stateNames = [...]string{
	StatePresent:       "present",
	StateSelect:        "select",
	StateConfirmDeps:   "confirm-deps",
	StateConfirmRemove: "confirm-remove",
	StateRemoved:       "removed",
	StateCancelled:     "cancelled",
	StateDone:          "done",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

// Prompter is the operator-facing side of interactive removal. It returns
// raw answers; validation and re-prompting belong to the Cleaner. Prompts
// block until the operator answers and have no timeout.
type Prompter interface {
	// Present shows the current members of a group.
	Present(group dupes.Group)

	// Select asks which member to remove and returns the raw answer,
	// expected to be a 1-based index.
	Select(group dupes.Group) (string, error)

	// Confirm asks a yes/no question and returns the raw answer.
	Confirm(question string) (string, error)

	// Invalid tells the operator their last answer was not accepted.
	Invalid(message string)
}

// Outcome summarizes what happened to one duplicate group.
type Outcome struct {
	Name      string
	Removed   []manager.Record
	Cancelled bool
}

// CleanInteractive walks every duplicate group in iteration order and lets
// the operator remove copies one at a time until at most one remains.
// Declining the final confirmation abandons the rest of that group. A
// failed removal or a prompter error (for example end of input) stops the
// whole session.
func (c *Cleaner) CleanInteractive(ctx context.Context, p Prompter) ([]Outcome, error) {
	d, err := c.Duplicates(ctx)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0, d.Len())
	for _, group := range d.Groups() {
		s := &session{cleaner: c, prompter: p, group: group}
		err := s.run(ctx)
		outcomes = append(outcomes, s.outcome())
		if err != nil {
			return outcomes, err
		}
	}
	return outcomes, nil
}

// session is the state machine for a single group.
type session struct {
	cleaner  *Cleaner
	prompter Prompter
	group    dupes.Group

	state      State
	chosen     int
	autoRemove bool

	removed   []manager.Record
	cancelled bool
}

func (s *session) outcome() Outcome {
	return Outcome{Name: s.group.Name, Removed: s.removed, Cancelled: s.cancelled}
}

func (s *session) run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		next, err := s.step(ctx)
		if err != nil {
			return err
		}
		s.cleaner.logger.Debug("interactive transition", "package", s.group.Name, "from", s.state, "to", next)
		s.state = next
		if s.state == StateDone || s.state == StateCancelled {
			s.cancelled = s.state == StateCancelled
			return nil
		}
	}
}

// step performs the work of the current state and returns the next one.
// Invalid answers keep the machine in the same state.
func (s *session) step(ctx context.Context) (State, error) {
	switch s.state {
	case StatePresent:
		if len(s.group.Records) <= 1 {
			return StateDone, nil
		}
		s.prompter.Present(s.group)
		return StateSelect, nil

	case StateSelect:
		answer, err := s.prompter.Select(s.group)
		if err != nil {
			return s.state, err
		}
		i, ok := parseIndex(answer, len(s.group.Records))
		if !ok {
			s.prompter.Invalid("Invalid package number.")
			return s.state, nil
		}
		s.chosen = i
		return StateConfirmDeps, nil

	case StateConfirmDeps:
		yes, ok, err := s.confirm(fmt.Sprintf("Do you want to automatically remove dependencies of the package %s?", s.current().PackageName))
		if err != nil || !ok {
			return s.state, err
		}
		s.autoRemove = yes
		return StateConfirmRemove, nil

	case StateConfirmRemove:
		rec := s.current()
		yes, ok, err := s.confirm(fmt.Sprintf("Do you really want to remove package %s via %s?", rec.PackageName, rec.Kind))
		if err != nil || !ok {
			return s.state, err
		}
		if !yes {
			return StateCancelled, nil
		}
		if err := s.removeCurrent(ctx); err != nil {
			return s.state, err
		}
		return StateRemoved, nil

	case StateRemoved:
		s.removed = append(s.removed, s.current())
		s.group.Records = append(s.group.Records[:s.chosen:s.chosen], s.group.Records[s.chosen+1:]...)
		return StatePresent, nil
	}
	return StateDone, nil
}

func (s *session) current() manager.Record {
	return s.group.Records[s.chosen]
}

// confirm asks question and reports (answer, valid, error).
func (s *session) confirm(question string) (bool, bool, error) {
	answer, err := s.prompter.Confirm(question)
	if err != nil {
		return false, false, err
	}
	yes, ok := parseYesNo(answer)
	if !ok {
		s.prompter.Invalid("Invalid input.")
	}
	return yes, ok, nil
}

func (s *session) removeCurrent(ctx context.Context) error {
	rec := s.current()
	src, ok := s.cleaner.Source(rec.Kind)
	if !ok {
		return errors.New(errors.ErrCodeManagerNotFound, "no active package manager for %s", rec.Kind)
	}
	return s.cleaner.remove(ctx, src, []string{rec.PackageName}, s.autoRemove)
}

// parseIndex converts a 1-based answer into a slice index.
func parseIndex(answer string, n int) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i - 1, true
}

// parseYesNo recognizes y/yes/n/no in any case.
func parseYesNo(answer string) (yes, ok bool) {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, true
	case "n", "no":
		return false, true
	}
	return false, false
}
