package commands

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/shehryarbajwa/courtscout/pkg/models"
)

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

func slotTable(out io.Writer, slots []models.Slot) table.Writer {
	t := newTable(out)
	t.AppendHeader(table.Row{"Venue", "Court", "Size", "Location", "Start", "End", "Minutes", "Price", "Source"})
	for _, s := range slots {
		court := s.ResourceName
		if court == "" {
			court = s.ResourceID
		}
		minutes := ""
		if s.Duration > 0 {
			minutes = fmt.Sprint(s.Duration)
		}
		t.AppendRow(table.Row{s.VenueID, court, s.Size, s.Location, s.StartLocal, s.EndLocal, minutes, s.Price, s.PriceSource})
	}
	return t
}

func venueTable(out io.Writer, venues []models.VenueOutcome) table.Writer {
	t := newTable(out)
	t.AppendHeader(table.Row{"Venue", "Name", "OK", "Slots", "Error"})
	for _, v := range venues {
		t.AppendRow(table.Row{v.VenueID, v.VenueName, v.OK, v.Slots, v.Error})
	}
	return t
}

func priceTable(out io.Writer, r *models.PriceResult) table.Writer {
	t := newTable(out)
	t.AppendHeader(table.Row{"Court", "Date", "Start", "End", "Price", "Source"})
	t.AppendRow(table.Row{r.ResourceID, r.Date, r.Start, r.End, r.Price, r.Source})
	return t
}

func summaryLine(s models.RunSummary) string {
	return fmt.Sprintf("%s: %d/%d venues, %d failed, %d slots",
		s.Verdict, s.Succeeded, s.Requested, s.Failed, s.TotalSlots)
}
