package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/raphaelgruber/regextract/internal/models"
	"github.com/raphaelgruber/regextract/internal/service"
)

// printSummary renders the per-file outcome table and status counts.
func printSummary(result *service.BatchResult) {
	theme := defaultTheme
	rows := service.SummaryRows(result)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Hint)).
		Headers(service.SummaryHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return style.Bold(true)
			case row == len(rows)-1:
				return style.Bold(true)
			case col == 4 && row < len(result.Records):
				return theme.outcomeStyle(result.Records[row].Status).Padding(0, 1)
			}
			return style
		})

	fmt.Println()
	fmt.Println(theme.statusStyle().Bold(true).Render("Extraction Summary"))
	fmt.Println(t)
	fmt.Println(formatCounts(result.Counts()))
}

// formatCounts renders "success: 3, skipped: 1" in a stable order.
func formatCounts(counts map[models.RunStatus]int) string {
	statuses := make([]string, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, string(s))
	}
	sort.Strings(statuses)

	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = fmt.Sprintf("%s: %d", s, counts[models.RunStatus(s)])
	}
	return strings.Join(parts, ", ")
}
