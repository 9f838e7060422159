package model

// DefaultEventTitle is used for calendar events that have no summary.
const DefaultEventTitle = "No Title"

// Event is a calendar entry as returned by the calendar source.
type Event struct {
	// Title is the event summary.
	Title string `json:"title"`

	// Date is the event start exactly as the calendar reported it:
	// either an all-day date (2024-03-01) or an RFC 3339 date-time.
	Date string `json:"date"`

	// Description is the free-text event body.
	Description string `json:"description"`
}

// SearchText returns the text scanned for branch identifiers.
func (e Event) SearchText() string {
	return e.Title + " " + e.Description
}
