// Package locator holds the structural locators the scraping pipeline uses to
// find things in the rendered booking page. Markup drift is fixed here (or in
// config.yaml) without touching the pipeline.
package locator

import (
	"fmt"
	"strings"
)

// Selector picks elements by CSS and, optionally, by their visible text.
type Selector struct {
	CSS     string `mapstructure:"css" json:"css"`
	Text    string `mapstructure:"text" json:"text,omitempty"`
	HasText string `mapstructure:"has_text" json:"hasText,omitempty"`
}

// Matches reports whether an element with the given visible text satisfies
// the text constraints of the selector. Text is an exact match after trimming,
// HasText a case-insensitive substring match.
func (s Selector) Matches(text string) bool {
	text = strings.TrimSpace(text)
	if s.Text != "" && text != s.Text {
		return false
	}
	if s.HasText != "" && !strings.Contains(strings.ToLower(text), strings.ToLower(s.HasText)) {
		return false
	}
	return true
}

// WithText returns a copy constrained to an exact visible text.
func (s Selector) WithText(text string) Selector {
	s.Text = text
	return s
}

// Empty reports whether the selector has no CSS to match on.
func (s Selector) Empty() bool {
	return strings.TrimSpace(s.CSS) == ""
}

func (s Selector) String() string {
	switch {
	case s.Text != "":
		return fmt.Sprintf("%s:text(%q)", s.CSS, s.Text)
	case s.HasText != "":
		return fmt.Sprintf("%s:has-text(%q)", s.CSS, s.HasText)
	default:
		return s.CSS
	}
}

// MarkerAttrs names the data attributes carried by availability markers.
type MarkerAttrs struct {
	Resource string `mapstructure:"resource" json:"resource"`
	Start    string `mapstructure:"start" json:"start"`
	End      string `mapstructure:"end" json:"end"`
}

// Set is the full collection of structural locators, one per data kind.
type Set struct {
	AppRoot          Selector   `mapstructure:"app_root"`
	RootElements     Selector   `mapstructure:"root_elements"`
	ConsentButtons   []Selector `mapstructure:"consent_buttons"`
	NotFound         Selector   `mapstructure:"not_found"`
	VenueName        Selector   `mapstructure:"venue_name"`
	HydrationPayload Selector   `mapstructure:"hydration_payload"`

	PickerOpeners  []Selector `mapstructure:"picker_openers"`
	CalendarHeader Selector   `mapstructure:"calendar_header"`
	NextMonth      Selector   `mapstructure:"next_month"`
	PrevMonth      Selector   `mapstructure:"prev_month"`
	DayButton      Selector   `mapstructure:"day_button"`
	DatePill       Selector   `mapstructure:"date_pill"`

	SlotMarker       Selector    `mapstructure:"slot_marker"`
	Marker           MarkerAttrs `mapstructure:"marker"`
	UnbookableBanner Selector    `mapstructure:"unbookable_banner"`
	ScrollContainer  Selector    `mapstructure:"scroll_container"`

	ResourceRow    Selector `mapstructure:"resource_row"`
	ResourceIDAttr string   `mapstructure:"resource_id_attr"`
	ResourceName   Selector `mapstructure:"resource_name"`
	ResourceTags   Selector `mapstructure:"resource_tags"`

	Popover    Selector `mapstructure:"popover"`
	PopoverRow Selector `mapstructure:"popover_row"`
}

// Default returns the locators matching the booking site's current markup.
func Default() Set {
	return Set{
		AppRoot:      Selector{CSS: "#__next"},
		RootElements: Selector{CSS: "#__next div"},
		ConsentButtons: []Selector{
			{CSS: "#onetrust-accept-btn-handler"},
			{CSS: "button", Text: "Accept all"},
			{CSS: "button", Text: "ACCEPT ALL"},
			{CSS: "button", Text: "Accept"},
			{CSS: `[aria-label="Accept all"]`},
			{CSS: `[data-testid*="consent"] button`},
			{CSS: "button", HasText: "I agree"},
			{CSS: "button", Text: "Agree"},
			{CSS: "button", Text: "OK"},
		},
		NotFound:         Selector{CSS: "h1, h2", HasText: "page not found"},
		VenueName:        Selector{CSS: "h1"},
		HydrationPayload: Selector{CSS: "script#__NEXT_DATA__"},

		PickerOpeners: []Selector{
			{CSS: "button", HasText: "Today"},
			{CSS: "button", HasText: "Tomorrow"},
		},
		CalendarHeader: Selector{CSS: "div.text-center.font-medium"},
		NextMonth:      Selector{CSS: `button:has(svg path[d="M9 5l7 7-7 7"])`},
		PrevMonth:      Selector{CSS: `button:has(svg path[d="M15 19l-7-7 7-7"])`},
		DayButton:      Selector{CSS: "div.text-center > button.rounded-full"},
		DatePill:       Selector{CSS: "button.flex.cursor-pointer.items-center.text-sm.font-medium"},

		SlotMarker: Selector{CSS: "div[data-court-id][data-start-hour][data-end-hour]"},
		Marker: MarkerAttrs{
			Resource: "data-court-id",
			Start:    "data-start-hour",
			End:      "data-end-hour",
		},
		UnbookableBanner: Selector{CSS: "div, p, span", HasText: "You cannot book in the selected date"},
		ScrollContainer:  Selector{CSS: "div.overflow-y-auto"},

		ResourceRow:    Selector{CSS: "div[data-resource-id]"},
		ResourceIDAttr: "data-resource-id",
		ResourceName:   Selector{CSS: "p.font-medium, span.font-medium"},
		ResourceTags:   Selector{CSS: "p.text-xs, span.text-xs"},

		Popover:    Selector{CSS: `[role="tooltip"], [data-radix-popper-content-wrapper]`},
		PopoverRow: Selector{CSS: "div.flex.justify-between"},
	}
}

// MarkerFor returns the selectors that address one exact availability marker.
// Hours are tried as given and in their zero-padded and unpadded forms, since
// the grid is not consistent about which one it renders.
func (s Set) MarkerFor(resourceID, start, end string) []Selector {
	var out []Selector
	seen := map[string]bool{}
	for _, st := range hourForms(start) {
		for _, en := range hourForms(end) {
			css := fmt.Sprintf(`div[%s=%s][%s=%s][%s=%s]`,
				s.Marker.Resource, Quote(resourceID),
				s.Marker.Start, Quote(st),
				s.Marker.End, Quote(en),
			)
			if seen[css] {
				continue
			}
			seen[css] = true
			out = append(out, Selector{CSS: css})
		}
	}
	return out
}

func hourForms(hhmm string) []string {
	forms := []string{hhmm}
	if strings.HasPrefix(hhmm, "0") && len(hhmm) == 5 {
		forms = append(forms, hhmm[1:])
	} else if len(hhmm) == 4 {
		forms = append(forms, "0"+hhmm)
	}
	return forms
}

// Quote renders s as a double-quoted CSS string.
func Quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\a `)
	return `"` + r.Replace(s) + `"`
}
