package availability

import (
	"fmt"

	"github.com/felixgeelhaar/advising/adapter/cli"
	"github.com/felixgeelhaar/advising/internal/advising/application/queries"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var getAdvisor string

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Show effective availability",
	Long: `Show whether bookings are open, and which switch decided it.

Examples:
  advising availability get
  advising availability get --advisor 6f1c...`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		advisorID, err := optionalAdvisor(getAdvisor)
		if err != nil {
			return err
		}

		result, err := app.GetAvailabilityHandler.Handle(cmd.Context(), queries.GetAvailabilityQuery{
			Caller:    app.Caller,
			AdvisorID: advisorID,
		})
		if err != nil {
			return err
		}

		if cli.JSONOutput() {
			return cli.PrintJSON(cmd.OutOrStdout(), result)
		}

		state := "closed"
		if result.Enabled {
			state = "open"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Bookings are %s (decided by %s setting)\n", state, result.DecidedBy)
		if result.UpdatedAt != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "  version %d, updated %s by %s\n",
				result.Version, result.UpdatedAt.Format("2006-01-02 15:04"), result.UpdatedBy)
		}
		return nil
	},
}

func optionalAdvisor(value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := cli.ParseID("advisor", value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func init() {
	getCmd.Flags().StringVar(&getAdvisor, "advisor", "", "advisor ID (omit for the global setting)")
}
