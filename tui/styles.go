package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/lukemcguire/crawlkeep/result"
)

var (
	titleStyle       = lipgloss.NewStyle().Bold(true)
	successStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errorStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	headerStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	categoryStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	dimStyle         = lipgloss.NewStyle().Faint(true)
	urlStyle         = lipgloss.NewStyle()
	statusErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// categoryOrder defines the display order for error categories (most to least actionable).
var categoryOrder = []result.ErrorCategory{
	result.Category4xx,
	result.Category5xx,
	result.CategoryPolicy,
	result.CategoryNotHTML,
	result.CategoryTimeout,
	result.CategoryDNSFailure,
	result.CategoryConnectionRefused,
	result.CategoryRedirectLoop,
	result.CategoryUnknown,
}

// RenderSummary produces a Lip Gloss styled summary of a crawl session.
func RenderSummary(sum *result.Summary) string {
	if sum == nil {
		return errorStyle.Render("No results available.")
	}

	var builder strings.Builder

	if len(sum.FailedLinks) == 0 {
		builder.WriteString(successStyle.Render("Crawl finished, no failed URLs!"))
		builder.WriteString("\n")
		builder.WriteString(dimStyle.Render(fmt.Sprintf(
			"Crawled %d pages in %s",
			sum.PagesCrawled,
			sum.Duration.Round(1_000_000), // round to ms
		)))
		builder.WriteString("\n")
		return builder.String()
	}

	// Group failed links by error category
	grouped := make(map[result.ErrorCategory][]result.FailedLink)
	for _, link := range sum.FailedLinks {
		cat := link.ErrorCategory
		if cat == "" {
			cat = result.CategoryUnknown
		}
		grouped[cat] = append(grouped[cat], link)
	}

	// Display each category in order
	for _, cat := range categoryOrder {
		links, exists := grouped[cat]
		if !exists || len(links) == 0 {
			continue
		}

		// Category header
		builder.WriteString(categoryStyle.Render(fmt.Sprintf("## %s (%d)", result.FormatCategory(cat), len(links))))
		builder.WriteString("\n")

		// Build table for this category
		rows := make([][]string, 0, len(links))
		for _, link := range links {
			rows = append(rows, []string{link.URL, link.Error, fmt.Sprintf("%d", link.RetryCount)})
		}

		catTable := table.New().
			Border(lipgloss.RoundedBorder()).
			Headers("URL", "Error", "Retries").
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				if col == 1 { // Error column
					return statusErrorStyle
				}
				return urlStyle
			}).
			Rows(rows...)

		builder.WriteString(catTable.Render())
		builder.WriteString("\n\n")
	}

	// Summary stats
	builder.WriteString(titleStyle.Render(fmt.Sprintf(
		"Crawled %d pages, %d failed URLs, %d errors encountered (%s)",
		sum.PagesCrawled,
		len(sum.FailedLinks),
		sum.ErrorsEncountered,
		sum.Duration.Round(1_000_000),
	)))
	builder.WriteString("\n")

	return builder.String()
}
