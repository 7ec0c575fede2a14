package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/nikromen/pyclean/pkg/manager"
)

// managersCommand creates the managers command for listing package managers.
func (c *CLI) managersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "managers",
		Short: "List supported package managers and whether they are available",
		Long: `List every supported package manager, whether it was found on this host and
whether it is enabled by the configuration. Only managers that are both
present and enabled take part in show and clean.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.printManagers(cmd.OutOrStdout())
			return nil
		},
	}
}

func (c *CLI) printManagers(out io.Writer) {
	rows := make([][]string, 0, len(c.all))
	for _, src := range c.all {
		rows = append(rows, []string{
			src.Kind().String(),
			kindScope(src.Kind()),
			yesNo(src.Exists(), "found", "missing"),
			yesNo(c.cfg.Enabled(src.Kind()), "yes", "no"),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorderStyle).
		Headers("Manager", "Scope", "Present", "Enabled").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return tableHeaderStyle.Padding(0, 1)
			}
			switch col {
			case 2:
				if rows[row][col] == "found" {
					return stylePresent.Padding(0, 1)
				}
				return styleMissing.Padding(0, 1)
			case 3:
				if rows[row][col] == "yes" {
					return stylePresent.Padding(0, 1)
				}
				return styleMissing.Padding(0, 1)
			}
			return tableCellStyle.Foreground(colorWhite)
		})

	fmt.Fprintln(out, t.Render())
}

func kindScope(k manager.Kind) string {
	if k.Native() {
		return "native"
	}
	return "python"
}

func yesNo(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}
