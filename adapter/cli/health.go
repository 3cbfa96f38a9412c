package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/advising/internal/advising/application/queries"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the CLI can reach the session store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}

		// Resolving global availability is a read against the policy store.
		if _, err := app.GetAvailabilityHandler.Handle(cmd.Context(), queries.GetAvailabilityQuery{Caller: app.Caller}); err != nil {
			return fmt.Errorf("store check failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
