package commands

import (
	"github.com/spf13/cobra"

	"github.com/shehryarbajwa/courtscout/pkg/models"
)

var priceQuery models.PriceQuery

func init() {
	f := priceCmd.Flags()
	f.StringVar(&priceQuery.VenueID, "venue", "", "Venue slug.")
	f.StringVar(&priceQuery.Date, "date", "", "Date of the slot, YYYY-MM-DD.")
	f.StringVar(&priceQuery.ResourceID, "court", "", "Resource id of the court.")
	f.StringVar(&priceQuery.Start, "start", "", "Slot start, HH:MM.")
	f.StringVar(&priceQuery.End, "end", "", "Slot end, HH:MM.")
	for _, name := range []string{"venue", "date", "court", "start", "end"} {
		_ = priceCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(priceCmd)
}

var priceCmd = &cobra.Command{
	Use:   "price --venue <slug> --date <YYYY-MM-DD> --court <id> --start <HH:MM> --end <HH:MM>",
	Short: "Reads the price of one exact slot from its popover.",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newApp()
		if err != nil {
			return err
		}
		defer rt.close()

		result, err := rt.svc.VerifyPrice(cmd.Context(), priceQuery)
		if err != nil {
			return err
		}
		priceTable(cmd.OutOrStdout(), result).Render()
		return nil
	},
}
