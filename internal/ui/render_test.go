package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/Nomadcxx/jellybridge/internal/enrich"
	"github.com/Nomadcxx/jellybridge/internal/media"
	"github.com/Nomadcxx/jellybridge/internal/seerr"
	"github.com/stretchr/testify/assert"
)

func init() {
	DisableColors()
}

func TestVerdict(t *testing.T) {
	tests := []struct {
		verdict  media.Availability
		expected string
	}{
		{media.Unconfigured{}, "UNCONFIGURED"},
		{media.Unavailable{}, "UNAVAILABLE"},
		{media.Partial{}, "PARTIAL"},
		{media.Available{}, "AVAILABLE"},
		{media.Failed{Message: "x"}, "ERROR"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Verdict(tt.verdict))
	}
}

func TestPrintVerdict(t *testing.T) {
	var buf bytes.Buffer
	PrintVerdict(&buf, media.Season{SeriesTitle: "Dark", SeasonNumber: 4, Year: 2017}, media.Partial{
		Item:      media.ServerItem{ID: "s1", Name: "Dark", Year: 2017},
		ServerURL: "http://lan:8096",
		DeepLink:  "http://lan:8096/web/index.html#!/details?id=s1",
		Details:   "Season 4 not found, but series exists",
	})

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "PARTIAL  Dark (2017) Season 4\n"))
	assert.Contains(t, out, "item:     Dark (2017) [s1]")
	assert.Contains(t, out, "details:  Season 4 not found, but series exists")
}

func TestPrintVerdict_Failed(t *testing.T) {
	var buf bytes.Buffer
	PrintVerdict(&buf, media.Movie{Title: "Heat"}, media.Failed{Message: "Could not reach server"})

	assert.Equal(t, "ERROR  Heat\n  error:    Could not reach server\n", buf.String())
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	PrintResults(&buf, []enrich.EnrichedResult{
		{TMDbID: 603, MediaType: seerr.MediaTypeMovie, Title: "The Matrix", Year: 1999, Status: enrich.StatusAvailable, ServerDeepLink: "http://jf/x"},
		{TMDbID: 1399, MediaType: seerr.MediaTypeTV, Title: "Game of Thrones", Status: enrich.StatusNotRequested},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "TMDB"))
	assert.Contains(t, lines[2], "The Matrix")
	assert.Contains(t, lines[2], "http://jf/x")
	assert.Contains(t, lines[3], "Not Requested")
}

func TestCompactTable_PadsColumns(t *testing.T) {
	var buf bytes.Buffer
	CompactTable(&buf, []string{"A", "B"}, [][]string{{"long", "x"}})

	assert.Equal(t, "A     B\n────  ─\nlong  x\n", buf.String())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "1.5s", FormatDuration(1500*time.Millisecond))
	assert.Equal(t, "2.0m", FormatDuration(2*time.Minute))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
