package models

// Verdict classifies the outcome of a multi-venue run
type Verdict string

const (
	VerdictOK        Verdict = "ok"
	VerdictPartialOK Verdict = "partial_ok"
	VerdictEmptyOK   Verdict = "empty_ok"
	VerdictError     Verdict = "error"
)

// RunSummary aggregates per-venue outcomes
type RunSummary struct {
	Requested  int     `json:"requested"`
	Succeeded  int     `json:"succeeded"`
	Failed     int     `json:"failed"`
	TotalSlots int     `json:"totalSlots"`
	Verdict    Verdict `json:"verdict"`
}

// VenueOutcome is the result of visiting a single venue
type VenueOutcome struct {
	VenueID   string       `json:"slug"`
	VenueName string       `json:"venueName,omitempty"`
	OK        bool         `json:"ok"`
	Slots     int          `json:"slots"`
	Error     string       `json:"error,omitempty"`
	Debug     *Diagnostics `json:"debug,omitempty"`
}

// AvailabilityQuery is the inbound availability request
type AvailabilityQuery struct {
	Venues     []string `json:"venues"`
	Date       string   `json:"date"`
	Duration   int      `json:"duration,omitempty"`
	Earliest   string   `json:"earliest,omitempty"`
	Latest     string   `json:"latest,omitempty"`
	Screenshot bool     `json:"screenshot,omitempty"`
}

// AvailabilityResult is the outbound availability payload
type AvailabilityResult struct {
	RunID   string         `json:"runId"`
	Date    string         `json:"date"`
	Venues  []VenueOutcome `json:"venues"`
	Slots   []Slot         `json:"slots"`
	Summary RunSummary     `json:"summary"`
}

// PriceQuery identifies one exact slot to verify
type PriceQuery struct {
	VenueID    string `json:"slug"`
	Date       string `json:"date"`
	ResourceID string `json:"resourceId"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

// PriceResult is the verified price of one slot
type PriceResult struct {
	RunID      string             `json:"runId"`
	ResourceID string             `json:"resourceId"`
	Date       string             `json:"date"`
	Start      string             `json:"start"`
	End        string             `json:"end"`
	Price      string             `json:"price,omitempty"`
	Source     string             `json:"source"`
	Debug      *VerifyDiagnostics `json:"debug,omitempty"`
}
