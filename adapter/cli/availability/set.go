package availability

import (
	"fmt"
	"strconv"

	"github.com/felixgeelhaar/advising/adapter/cli"
	"github.com/felixgeelhaar/advising/internal/advising/application/commands"
	"github.com/spf13/cobra"
)

var setAdvisor string

var setCmd = &cobra.Command{
	Use:   "set <on|off>",
	Short: "Open or close bookings",
	Long: `Switch bookings on or off globally, or for one advisor.
Only advisors and administrators may change availability.

Examples:
  advising availability set off
  advising availability set on --advisor 6f1c...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		enabled, err := parseSwitch(args[0])
		if err != nil {
			return err
		}
		advisorID, err := optionalAdvisor(setAdvisor)
		if err != nil {
			return err
		}

		policy, err := app.SetAvailabilityHandler.Handle(cmd.Context(), commands.SetAvailabilityCommand{
			Caller:    app.Caller,
			AdvisorID: advisorID,
			Enabled:   enabled,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Availability for %s set to %s (version %d)\n",
			policy.Scope(), args[0], policy.Version())
		return nil
	},
}

// parseSwitch accepts on/off as well as anything strconv.ParseBool does.
func parseSwitch(s string) (bool, error) {
	switch s {
	case "on", "open":
		return true, nil
	case "off", "closed":
		return false, nil
	}
	enabled, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
	return enabled, nil
}

func init() {
	setCmd.Flags().StringVar(&setAdvisor, "advisor", "", "advisor ID (omit for the global setting)")
}
