package display

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"snapvault/internal/store"
)

const (
	minDescriptionWidth = 10
	defaultTermWidth    = 100
)

// SummaryTable renders stored backup summaries as an aligned text table.
// The description column shrinks to fit the terminal width.
func (p *Printer) SummaryTable(summaries []store.Summary) {
	if len(summaries) == 0 {
		p.Muted("No backups found.")
		return
	}

	headers := []string{"ID", "NAME", "CREATED", "SIZE", "TABLES", "RECORDS", "DESCRIPTION"}
	rows := make([][]string, len(summaries))
	for i, summary := range summaries {
		rows[i] = []string{
			summary.ID,
			summary.Name,
			summary.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			FormatBytes(summary.SizeBytes),
			fmt.Sprintf("%d", summary.TableCount),
			fmt.Sprintf("%d", summary.TotalRecords),
			summary.Description,
		}
	}

	widths := columnWidths(headers, rows)
	fitDescription(widths, rows, terminalWidth())

	p.Header(formatRow(headers, widths))
	p.Muted("%s", strings.Repeat("-", rowWidth(widths)))
	for _, row := range rows {
		p.Info("%s", formatRow(row, widths))
	}
}

func terminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return defaultTermWidth
}

func columnWidths(headers []string, rows [][]string) []int {
	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = len(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	return widths
}

// fitDescription truncates the last column so the table fits the terminal
func fitDescription(widths []int, rows [][]string, termWidth int) {
	last := len(widths) - 1
	if rowWidth(widths) <= termWidth {
		return
	}

	overflow := rowWidth(widths) - termWidth
	widths[last] -= overflow
	if widths[last] < minDescriptionWidth {
		widths[last] = minDescriptionWidth
	}

	for _, row := range rows {
		if len(row[last]) > widths[last] {
			row[last] = row[last][:widths[last]-3] + "..."
		}
	}
}

func rowWidth(widths []int) int {
	total := 0
	for _, w := range widths {
		total += w
	}
	return total + 2*(len(widths)-1)
}

func formatRow(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		if i == len(cells)-1 {
			parts[i] = cell
		} else {
			parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
	}
	return strings.Join(parts, "  ")
}
