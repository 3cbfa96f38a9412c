package availability

import "github.com/spf13/cobra"

// Cmd is the availability command group.
var Cmd = &cobra.Command{
	Use:   "availability",
	Short: "Read and change booking availability",
	Long: `Bookings are open unless switched off. A global switch covers every
advisor; a per-advisor switch overrides it for one advisor.`,
}

func init() {
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(setCmd)
}
