package models

// Price source tags
const (
	SourceNetworkCapture = "network-capture"
	SourceResourceReplay = "resource-replay"
	SourceEndpointProbe  = "endpoint-probe"
	SourceDOMOnly        = "DOM-only"
	SourcePopupRow       = "popup_row"
)

// PricePlaceholder is reported when no tier produced a price for a slot
const PricePlaceholder = "n/a"

// Slot is one normalized, bookable interval on a resource
type Slot struct {
	VenueID      string `json:"slug"`
	VenueName    string `json:"venueName,omitempty"`
	ResourceID   string `json:"resourceId"`
	ResourceName string `json:"resourceName,omitempty"`
	Size         string `json:"size,omitempty"`
	Location     string `json:"location,omitempty"`
	Date         string `json:"slotDate"`
	StartLocal   string `json:"startLocal"`
	EndLocal     string `json:"endLocal"`
	StartMinute  int    `json:"startMin"`
	EndMinute    int    `json:"endMin"`
	Duration     int    `json:"duration,omitempty"`
	Start        string `json:"start"`
	End          string `json:"end"`
	Price        string `json:"price"`
	PriceSource  string `json:"priceSource"`
}

// Resource is the display metadata of a bookable unit
type Resource struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Size     string `json:"size,omitempty"`
	Location string `json:"location,omitempty"`
}
