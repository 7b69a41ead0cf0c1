// Package ui renders engine results for the terminal.
package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Nomadcxx/jellybridge/internal/enrich"
	"github.com/Nomadcxx/jellybridge/internal/media"
)

// Verdict renders the status word of a verdict in its colour.
func Verdict(a media.Availability) string {
	label := strings.ToUpper(string(a.Status()))
	return media.SwitchAvailability(a,
		func(media.Unconfigured) string { return unconfiguredStyle.Render(label) },
		func(media.Unavailable) string { return dimStyle.Render(label) },
		func(media.Partial) string { return warningStyle.Render(label) },
		func(media.Available) string { return successStyle.Render(label) },
		func(media.Failed) string { return errorStyle.Render(label) },
	)
}

// PrintVerdict writes a short report of an availability check.
func PrintVerdict(w io.Writer, detected media.DetectedMedia, a media.Availability) {
	fmt.Fprintf(w, "%s  %s\n", Verdict(a), headerStyle.Render(media.Describe(detected)))

	view := media.ViewOf(a)
	if view.Item != nil {
		name := view.Item.Name
		if view.Item.Year > 0 {
			name = fmt.Sprintf("%s (%d)", name, view.Item.Year)
		}
		fmt.Fprintf(w, "  item:     %s [%s]\n", name, view.Item.ID)
	}
	if view.ServerURL != "" {
		fmt.Fprintf(w, "  server:   %s\n", view.ServerURL)
	}
	if view.DeepLink != "" {
		fmt.Fprintf(w, "  link:     %s\n", view.DeepLink)
	}
	if view.Details != "" {
		fmt.Fprintf(w, "  details:  %s\n", Dim(view.Details))
	}
	if view.Message != "" {
		fmt.Fprintf(w, "  error:    %s\n", view.Message)
	}
}

// StatusLabel colours a recommendation status label.
func StatusLabel(s enrich.Status) string {
	switch s {
	case enrich.StatusAvailable:
		return successStyle.Render(s.Label())
	case enrich.StatusPartial, enrich.StatusProcessing, enrich.StatusPending:
		return warningStyle.Render(s.Label())
	default:
		return dimStyle.Render(s.Label())
	}
}

// PrintResults writes enriched search results as a compact table.
func PrintResults(w io.Writer, results []enrich.EnrichedResult) {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		year := ""
		if r.Year > 0 {
			year = fmt.Sprintf("%d", r.Year)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", r.TMDbID),
			string(r.MediaType),
			truncate(r.Title, 40),
			year,
			r.Status.Label(),
			r.ServerDeepLink,
		})
	}
	CompactTable(w, []string{"TMDB", "TYPE", "TITLE", "YEAR", "STATUS", "LINK"}, rows)
}

// CompactTable writes a borderless table.
func CompactTable(w io.Writer, headers []string, rows [][]string) {
	if len(headers) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
		for _, row := range rows {
			if i < len(row) && len(row[i]) > widths[i] {
				widths[i] = len(row[i])
			}
		}
	}

	writeRow := func(cells []string) {
		parts := make([]string, len(headers))
		for i := range headers {
			val := ""
			if i < len(cells) {
				val = cells[i]
			}
			parts[i] = fmt.Sprintf("%-*s", widths[i], val)
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	writeRow(headers)
	seps := make([]string, len(headers))
	for i, width := range widths {
		seps[i] = strings.Repeat("─", width)
	}
	writeRow(seps)
	for _, row := range rows {
		writeRow(row)
	}
}

// FormatDuration formats duration to human-readable format
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
