package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shehryarbajwa/courtscout/pkg/models"
)

func TestSlotTable(t *testing.T) {
	var buf bytes.Buffer
	slotTable(&buf, []models.Slot{
		{VenueID: "padel-tallinn", ResourceID: "c1", ResourceName: "Court 1", StartLocal: "18:00", EndLocal: "19:30", Duration: 90, Price: "28 EUR", PriceSource: models.SourceNetworkCapture},
		{VenueID: "padel-tallinn", ResourceID: "c2", StartLocal: "08:00", EndLocal: "08:00", Price: models.PricePlaceholder, PriceSource: models.SourceDOMOnly},
	}).Render()

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "╭"))
	require.Contains(t, out, "Court 1")
	require.Contains(t, out, "28 EUR")
	require.Contains(t, out, "network-capture")
	// unnamed courts fall back to their id
	require.Contains(t, out, "c2")
	require.Contains(t, out, "DOM-only")
}

func TestPriceTable(t *testing.T) {
	var buf bytes.Buffer
	priceTable(&buf, &models.PriceResult{
		ResourceID: "c1",
		Date:       "2025-10-16",
		Start:      "18:00",
		End:        "19:30",
		Price:      "€28.50",
		Source:     models.SourcePopupRow,
	}).Render()

	require.Contains(t, buf.String(), "€28.50")
	require.Contains(t, buf.String(), "popup_row")
}

func TestSummaryLine(t *testing.T) {
	got := summaryLine(models.RunSummary{Requested: 3, Succeeded: 2, Failed: 1, TotalSlots: 7, Verdict: models.VerdictPartialOK})
	require.Equal(t, "partial_ok: 2/3 venues, 1 failed, 7 slots", got)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	require.True(t, names["availability"])
	require.True(t, names["price"])

	require.NotNil(t, priceCmd.Flags().Lookup("court"))
	require.NotNil(t, availabilityCmd.Flags().Lookup("venue"))
}
