package media

import "fmt"

// Status is the wire name of an Availability variant.
type Status string

const (
	StatusUnconfigured Status = "unconfigured"
	StatusUnavailable  Status = "unavailable"
	StatusPartial      Status = "partial"
	StatusAvailable    Status = "available"
	StatusError        Status = "error"
)

// Availability is the terminal verdict of an availability check. The
// variants are Unconfigured, Unavailable, Partial, Available and Failed;
// use SwitchAvailability to consume one.
type Availability interface {
	Status() Status
	isAvailability()
}

// Unconfigured means the media server credentials are missing.
type Unconfigured struct{}

// Unavailable means no plausible match exists on the server.
type Unavailable struct{}

// Partial means the series exists but the requested season or episode does not.
type Partial struct {
	Item      ServerItem
	ServerURL string
	DeepLink  string
	Details   string
}

// Available means an exact match was found.
type Available struct {
	Item      ServerItem
	ServerURL string
	DeepLink  string
}

// Failed means the lookup itself could not complete. It is distinct from
// Unavailable: the engine could not tell.
type Failed struct {
	Message string
}

func (Unconfigured) Status() Status { return StatusUnconfigured }
func (Unavailable) Status() Status  { return StatusUnavailable }
func (Partial) Status() Status      { return StatusPartial }
func (Available) Status() Status    { return StatusAvailable }
func (Failed) Status() Status       { return StatusError }

func (Unconfigured) isAvailability() {}
func (Unavailable) isAvailability()  {}
func (Partial) isAvailability()      {}
func (Available) isAvailability()    {}
func (Failed) isAvailability()       {}

// SwitchAvailability dispatches a to the handler for its variant.
func SwitchAvailability[T any](
	a Availability,
	unconfigured func(Unconfigured) T,
	unavailable func(Unavailable) T,
	partial func(Partial) T,
	available func(Available) T,
	failed func(Failed) T,
) T {
	switch v := a.(type) {
	case Unconfigured:
		return unconfigured(v)
	case Unavailable:
		return unavailable(v)
	case Partial:
		return partial(v)
	case Available:
		return available(v)
	case Failed:
		return failed(v)
	default:
		panic(fmt.Sprintf("media: unknown Availability variant %T", a))
	}
}

// AvailabilityView is the flat JSON rendering of a verdict.
type AvailabilityView struct {
	Status    Status      `json:"status"`
	Item      *ServerItem `json:"item,omitempty"`
	ServerURL string      `json:"serverUrl,omitempty"`
	DeepLink  string      `json:"deepLink,omitempty"`
	Details   string      `json:"details,omitempty"`
	Message   string      `json:"message,omitempty"`
}

// ViewOf flattens a verdict for transport.
func ViewOf(a Availability) AvailabilityView {
	return SwitchAvailability(a,
		func(Unconfigured) AvailabilityView { return AvailabilityView{Status: StatusUnconfigured} },
		func(Unavailable) AvailabilityView { return AvailabilityView{Status: StatusUnavailable} },
		func(v Partial) AvailabilityView {
			item := v.Item
			return AvailabilityView{Status: StatusPartial, Item: &item, ServerURL: v.ServerURL, DeepLink: v.DeepLink, Details: v.Details}
		},
		func(v Available) AvailabilityView {
			item := v.Item
			return AvailabilityView{Status: StatusAvailable, Item: &item, ServerURL: v.ServerURL, DeepLink: v.DeepLink}
		},
		func(v Failed) AvailabilityView { return AvailabilityView{Status: StatusError, Message: v.Message} },
	)
}
