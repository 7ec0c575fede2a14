package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	pio "github.com/nikromen/pyclean/pkg/io"
)

const outputTable = "table"

// showCommand creates the show command for listing duplicate packages.
func (c *CLI) showCommand() *cobra.Command {
	var (
		verbose    bool
		output     string
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show packages installed by more than one package manager",
		Long: `Show every Python package that is installed by more than one package manager.

Each duplicate is printed as a table of its installations. Use --verbose to
also list the files owned by each installation.`,
		Example: `  # Duplicates between the user site and native packages
  pyclean show

  # Include system-wide pip installations and list files
  pyclean -s show -v

  # Machine-readable report
  pyclean show -o json

  # Save the report; the extension picks JSON or YAML
  pyclean show --output-file duplicates.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runShow(cmd.Context(), cmd.OutOrStdout(), showOptions{
				output:     output,
				outputFile: outputFile,
				verbose:    verbose,
			})
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show the files of every installation")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json, yaml")
	cmd.Flags().StringVar(&outputFile, "output-file", "", "also write the report to this file (.json, .yaml or .yml)")

	_ = cmd.RegisterFlagCompletionFunc("output", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return append([]string{outputTable}, pio.Formats()...), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

type showOptions struct {
	output     string
	outputFile string
	verbose    bool
}

func (c *CLI) runShow(ctx context.Context, out io.Writer, opts showOptions) error {
	defer c.stopProgress()

	if opts.output != outputTable {
		if _, err := pio.ParseFormat(opts.output); err != nil {
			return err
		}
	}

	prog := newProgress(loggerFromContext(ctx))
	d, err := c.cleaner.Duplicates(ctx)
	if err != nil {
		return err
	}

	if opts.outputFile != "" {
		if err := pio.Export(d, opts.outputFile, opts.verbose); err != nil {
			return err
		}
		c.Logger.Info("Report written", "path", opts.outputFile, "duplicates", d.Len())
	}

	if opts.output != outputTable {
		return pio.Write(d, out, opts.output, opts.verbose)
	}

	if d.Len() == 0 {
		printSuccess(out, "No duplicate packages found")
		return nil
	}

	for _, group := range d.Groups() {
		fmt.Fprintln(out, renderGroup(group, opts.verbose))
	}
	prog.done("Found %d duplicate packages", d.Len())

	printNextStep(out, "Remove duplicates one by one", c.suggest("clean -i"))
	return nil
}

// suggest returns a pyclean invocation that keeps the current scan scope.
func (c *CLI) suggest(args string) string {
	if c.cfg != nil && c.cfg.SystemClean {
		return appName + " -s " + args
	}
	return appName + " " + args
}
