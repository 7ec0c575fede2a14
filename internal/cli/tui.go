package cli

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nikromen/pyclean/pkg/dupes"
	"github.com/nikromen/pyclean/pkg/manager"
)

// Table styles
var (
	tableHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	tableBorderStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// noLocation is shown when an adapter could not determine an install path.
const noLocation = "-"

// =============================================================================
// Duplicate table
// =============================================================================

// renderGroup renders one duplicate group as a titled table. Rows are
// numbered from 1 so the number can be typed back in interactive mode.
// With verbose set, every record's file list follows the table.
func renderGroup(group dupes.Group, verbose bool) string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(group.Name))
	b.WriteString(StyleDim.Render("  " + strconv.Itoa(len(group.Records)) + " installations"))
	b.WriteString("\n")

	rows := make([][]string, 0, len(group.Records))
	for i, rec := range group.Records {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			recordLocation(rec),
			rec.PackageName,
			rec.Version,
			rec.Kind.String(),
			strconv.Itoa(len(rec.Files)),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorderStyle).
		Headers("#", "Location", "Package", "Version", "Installer", "Files").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return tableHeaderStyle.Padding(0, 1)
			}
			switch col {
			case 0:
				return tableCellStyle.Foreground(colorCyan)
			case 1, 5:
				return tableCellStyle.Foreground(colorGray)
			case 4:
				return tableCellStyle.Foreground(kindColor(group.Records[row].Kind))
			}
			return tableCellStyle.Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n")

	if verbose {
		for i, rec := range group.Records {
			b.WriteString(renderFiles(i+1, rec))
		}
	}
	return b.String()
}

// renderFiles lists the files of one numbered record.
func renderFiles(n int, rec manager.Record) string {
	var b strings.Builder
	b.WriteString(StyleNumber.Render(strconv.Itoa(n)+". ") + StyleValue.Render(rec.PackageName) + StyleDim.Render(" files:"))
	b.WriteString("\n")
	if len(rec.Files) == 0 {
		b.WriteString("   " + StyleDim.Render("(none)") + "\n")
		return b.String()
	}
	for _, f := range rec.Files {
		b.WriteString("   " + StyleDim.Render(iconArrow) + " " + f + "\n")
	}
	return b.String()
}

func recordLocation(rec manager.Record) string {
	if !rec.HasLocation() {
		return noLocation
	}
	return rec.Location
}

// kindColor distinguishes native installations from Python-level ones.
func kindColor(k manager.Kind) lipgloss.Color {
	if k.Native() {
		return colorYellow
	}
	return colorGreen
}
