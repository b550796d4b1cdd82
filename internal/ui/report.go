package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used when rendering the sync report.
var reportStyles = struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Count  lipgloss.Style
	Muted  lipgloss.Style
	Box    lipgloss.Style
}{
	Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 1),
	Header: lipgloss.NewStyle().Bold(true),
	Count:  lipgloss.NewStyle().Foreground(lipgloss.Color("229")),
	Muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	Box:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
}

// ReportLine is a single labelled count in the sync report.
type ReportLine struct {
	Label string
	Count int
}

// RenderReport renders the post-sync summary box shown after copy/move.
// Lines with a zero count are rendered dimmed rather than omitted so the
// shape of the report stays stable between runs.
func RenderReport(title string, lines []ReportLine) string {
	var b strings.Builder
	b.WriteString(reportStyles.Title.Render(title))
	b.WriteString("\n")
	for _, line := range lines {
		text := fmt.Sprintf("%-10s %s", line.Label, reportStyles.Count.Render(fmt.Sprintf("%d", line.Count)))
		if line.Count == 0 {
			text = reportStyles.Muted.Render(fmt.Sprintf("%-10s 0", line.Label))
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return reportStyles.Box.Render(strings.TrimRight(b.String(), "\n"))
}
