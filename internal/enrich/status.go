package enrich

import (
	"strings"

	"github.com/Nomadcxx/jellybridge/internal/seerr"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Status is the recommendation service's view of a title, independent of
// whether it is on the user's server.
type Status string

const (
	StatusAvailable    Status = "available"
	StatusPartial      Status = "partial"
	StatusProcessing   Status = "processing"
	StatusPending      Status = "pending"
	StatusUnknown      Status = "unknown"
	StatusNotRequested Status = "not_requested"
)

// StatusFromCode maps the service's integer media status.
func StatusFromCode(code seerr.MediaStatus) Status {
	switch code {
	case seerr.MediaStatusAvailable:
		return StatusAvailable
	case seerr.MediaStatusPartiallyAvail:
		return StatusPartial
	case seerr.MediaStatusProcessing:
		return StatusProcessing
	case seerr.MediaStatusPending:
		return StatusPending
	case seerr.MediaStatusUnknown:
		return StatusUnknown
	default:
		return StatusNotRequested
	}
}

// Label is the human-readable form shown next to a search result.
func (s Status) Label() string {
	if s == StatusPartial {
		return "Partially Available"
	}
	return cases.Title(language.English).String(strings.ReplaceAll(string(s), "_", " "))
}

// Linkable reports whether a result with this status may have a deep link
// on the user's server.
func (s Status) Linkable() bool {
	return s == StatusAvailable || s == StatusPartial
}
