package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shehryarbajwa/courtscout/pkg/models"
)

var availabilityQuery models.AvailabilityQuery

func init() {
	f := availabilityCmd.Flags()
	f.StringSliceVar(&availabilityQuery.Venues, "venue", nil, "Venue slug; repeat or comma-separate for several.")
	f.StringVar(&availabilityQuery.Date, "date", "", "Date to scrape, YYYY-MM-DD.")
	f.IntVar(&availabilityQuery.Duration, "duration", 0, "Only keep slots of this many minutes.")
	f.StringVar(&availabilityQuery.Earliest, "earliest", "", "Earliest start time, HH:MM.")
	f.StringVar(&availabilityQuery.Latest, "latest", "", "Latest start time, HH:MM.")
	_ = availabilityCmd.MarkFlagRequired("venue")
	_ = availabilityCmd.MarkFlagRequired("date")
	rootCmd.AddCommand(availabilityCmd)
}

var availabilityCmd = &cobra.Command{
	Use:   "availability --venue <slug> --date <YYYY-MM-DD>",
	Short: "Lists the bookable slots of one or more venues on a date.",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newApp()
		if err != nil {
			return err
		}
		defer rt.close()

		result, err := rt.svc.Availability(cmd.Context(), availabilityQuery)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		slotTable(out, result.Slots).Render()
		fmt.Fprintln(out)
		venueTable(out, result.Venues).Render()
		fmt.Fprintln(out, summaryLine(result.Summary))
		return nil
	},
}
