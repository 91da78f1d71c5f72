package models

// Diagnostics describes what happened inside one venue visit. The shape is
// not part of the stable contract.
type Diagnostics struct {
	VenueID             string             `json:"slug"`
	Date                string             `json:"date"`
	URL                 string             `json:"url"`
	Steps               []string           `json:"steps"`
	Picker              PickerDiagnostics  `json:"picker"`
	Prices              PriceDiagnostics   `json:"prices"`
	SawAvailability     bool               `json:"sawAvail"`
	LastAvailabilityURL string             `json:"lastAvailUrl,omitempty"`
	BlocksFound         int                `json:"blocksFound"`
	BannerUnbookable    bool               `json:"bannerUnbookable"`
	Errors              []string           `json:"errors"`
	Infos               []string           `json:"infos"`
	Next                NetworkDiagnostics `json:"next"`
	RootDivs            int                `json:"rootDivs"`
	HTMLSnippet         string             `json:"htmlSnippet,omitempty"`
	Screenshot          string             `json:"screenshot,omitempty"`
}

// PickerDiagnostics mirrors the calendar navigation state
type PickerDiagnostics struct {
	Reached            string `json:"reached"`
	Opened             bool   `json:"opened"`
	HeaderText         string `json:"headerText,omitempty"`
	MonthDelta         int    `json:"monthDelta"`
	MonthClicks        int    `json:"monthClicks"`
	MonthClickSelector string `json:"monthClickSelector,omitempty"`
	Day                int    `json:"day"`
	DayButtonFound     bool   `json:"dayButtonFound"`
	XHRCommitted       *bool  `json:"xhrOk"`
	Pill               string `json:"pill,omitempty"`
}

// PriceDiagnostics records which acquisition tier produced the index
type PriceDiagnostics struct {
	Tier         string   `json:"tier,omitempty"`
	Payloads     int      `json:"payloads"`
	Entries      int      `json:"entries"`
	DateFiltered bool     `json:"dateFiltered"`
	CapturedURLs []string `json:"capturedUrls,omitempty"`
	ReplayURL    string   `json:"replayUrl,omitempty"`
	VenueUUID    string   `json:"venueUuid,omitempty"`
	ProbesTried  []string `json:"probesTried,omitempty"`
	Misses       int      `json:"misses"`
}

// NetworkDiagnostics counts framework asset responses and failed requests
type NetworkDiagnostics struct {
	OK      int             `json:"ok"`
	Blocked int             `json:"blocked"`
	Failed  []FailedRequest `json:"failed"`
}

// FailedRequest is a request the engine reported as failed
type FailedRequest struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// VerifyDiagnostics describes the single-slot verification sequence
type VerifyDiagnostics struct {
	URL          string            `json:"url"`
	Steps        []string          `json:"steps"`
	Picker       PickerDiagnostics `json:"picker"`
	Sweeps       int               `json:"sweeps"`
	Clicked      bool              `json:"clicked"`
	PopoversSeen int               `json:"popoversSeen"`
	ResourceName string            `json:"resourceName,omitempty"`
	Rows         []PopoverRow      `json:"rows,omitempty"`
	DeadlineHit  bool              `json:"deadlineHit"`
}

// PopoverRow is one duration/price row read from a slot popover
type PopoverRow struct {
	Label   string `json:"label"`
	Minutes int    `json:"minutes"`
	Price   string `json:"price"`
}
