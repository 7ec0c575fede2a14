package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nikromen/pyclean/pkg/cleaner"
	"github.com/nikromen/pyclean/pkg/errors"
	"github.com/nikromen/pyclean/pkg/manager"
)

// cleanOptions holds the flags of the clean command.
type cleanOptions struct {
	kind        string
	autoRemove  bool
	interactive bool
}

// cleanCommand creates the clean command for removing duplicates.
func (c *CLI) cleanCommand() *cobra.Command {
	var opts cleanOptions

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove duplicate packages",
		Long: `Remove packages installed by more than one package manager.

With --package-type every duplicate installed by that manager is removed in
a single call to it. Packages installed by only one manager are never
touched. With --interactive you choose, for every duplicate, which
installation to remove and confirm each removal.

Cleaning together with --system-clean is not recommended: system-wide
duplicates usually need manual inspection.`,
		Example: `  # Remove pip copies of packages that are also installed as rpm
  pyclean clean -t pip

  # Decide package by package
  pyclean clean -i`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runClean(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.kind, "package-type", "t", "", "package manager to remove duplicates from ("+strings.Join(manager.KindNames(), ", ")+")")
	cmd.Flags().BoolVar(&opts.autoRemove, "auto-remove", false, "also remove dependencies pulled in by the package (dnf and apt only)")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "choose the installation to remove and confirm every removal")

	_ = cmd.RegisterFlagCompletionFunc("package-type", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return manager.KindNames(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func (c *CLI) runClean(ctx context.Context, in io.Reader, out io.Writer, opts cleanOptions) error {
	defer c.stopProgress()

	if opts.interactive && (opts.autoRemove || opts.kind != "") {
		printInfo(out, "Interactive mode is enabled, auto-remove and package type options will be ignored.")
	}
	if !opts.interactive && opts.kind == "" {
		printInfo(out, "You have to specify package type when not running in interactive mode.")
		return nil
	}

	var kind manager.Kind
	if !opts.interactive {
		k, err := manager.ParseKind(opts.kind)
		if err != nil {
			return err
		}
		kind = k
	}

	p := c.prompter(in, out)

	if c.cfg.SystemClean {
		ok, err := p.Gate("System clean is enabled, this operation may remove system packages. " +
			"Please make sure you know what you are doing. Do you want to continue?")
		if err != nil || !ok {
			return err
		}
	}

	if opts.interactive {
		return c.cleanInteractive(ctx, p, out)
	}

	if _, active := c.cleaner.Source(kind); !active {
		printInfo(out, "%s is not available on this system", kind)
		return nil
	}

	ok, err := c.gateKind(ctx, p, out, kind)
	if err != nil || !ok {
		return err
	}

	names, err := c.cleaner.Clean(ctx, kind, opts.autoRemove)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		printSuccess(out, "No duplicate %s packages to remove", kind)
		return nil
	}
	printSuccess(out, "Removed %d %s packages", len(names), kind)
	for _, name := range names {
		printRemoved(out, name)
	}
	return nil
}

// gateKind asks the confirmation specific to the manager about to remove
// packages in batch mode.
func (c *CLI) gateKind(ctx context.Context, p prompter, out io.Writer, kind manager.Kind) (bool, error) {
	if kind.Native() {
		return p.Gate(fmt.Sprintf("You are about to remove %s packages, this operation may remove system packages "+
			"and requires manual confirmation for removal or manual intervention. Do you want to continue?", kind))
	}
	if !c.cfg.SystemClean {
		return true, nil
	}

	ok, err := p.Gate("You are about to remove python packages from the whole system. This will probably require " +
		"running pyclean as root, which is not recommended. Instead, list the packages with --system-clean " +
		"and remove them manually. Do you still want to continue?")
	if err != nil || !ok {
		return false, err
	}
	printWarning(out, "As you wish...")
	if err := pause(ctx, c.cfg.Delay()); err != nil {
		return false, err
	}
	return true, nil
}

// cleanInteractive runs the interactive session and reports what happened
// to every group. Running out of input or aborting a prompt ends the
// session without an error.
func (c *CLI) cleanInteractive(ctx context.Context, p prompter, out io.Writer) error {
	outcomes, err := c.cleaner.CleanInteractive(ctx, p)
	if len(outcomes) == 0 && err == nil {
		printSuccess(out, "No duplicate packages found")
		return nil
	}

	printOutcomes(out, outcomes)

	if stderrors.Is(err, errInputClosed) || stderrors.Is(err, errAborted) {
		printWarning(out, "Stopped: %s", errors.UserMessage(err))
		return nil
	}
	return err
}

func printOutcomes(out io.Writer, outcomes []cleaner.Outcome) {
	fmt.Fprintln(out)
	for _, o := range outcomes {
		switch {
		case len(o.Removed) > 0:
			names := make([]string, len(o.Removed))
			for i, rec := range o.Removed {
				names[i] = fmt.Sprintf("%s (%s)", rec.PackageName, rec.Kind)
			}
			printSuccess(out, "%s: removed %s", o.Name, strings.Join(names, ", "))
		case o.Cancelled:
			printInfo(out, "%s: skipped", o.Name)
		default:
			printDetail(out, "%s: unchanged", o.Name)
		}
	}
}

// pause waits for d unless ctx ends first.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
