package cli

import (
	"fmt"

	"github.com/felixgeelhaar/advising/internal/advising/application/queries"
	"github.com/spf13/cobra"
)

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "List the bookable start times",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		slots := queries.ListSlots()
		if JSONOutput() {
			return PrintJSON(cmd.OutOrStdout(), slots)
		}
		for _, s := range slots {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s - %s\n", s.StartTime, s.EndTime)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(slotsCmd)
}
