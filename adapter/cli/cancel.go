package cli

import (
	"fmt"

	"github.com/felixgeelhaar/advising/internal/advising/application/commands"
	"github.com/felixgeelhaar/advising/internal/advising/application/queries"
	"github.com/spf13/cobra"
)

var cancelReason string

var cancelCmd = &cobra.Command{
	Use:   "cancel <session-id>",
	Short: "Cancel a scheduled session",
	Long: `Cancel a scheduled session. Either participant, or an administrator,
may cancel; a reason is required.

Examples:
  advising cancel 0d5e... --reason "conflict"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}

		sessionID, err := ParseID("session", args[0])
		if err != nil {
			return err
		}

		session, err := app.CancelSessionHandler.Handle(cmd.Context(), commands.CancelSessionCommand{
			Caller:    app.Caller,
			SessionID: sessionID,
			Reason:    cancelReason,
		})
		if err != nil {
			return err
		}

		if !JSONOutput() {
			fmt.Fprintln(cmd.OutOrStdout(), "Session cancelled.")
		}
		return PrintSession(cmd.OutOrStdout(), queries.NewSessionDTO(session))
	},
}

func init() {
	cancelCmd.Flags().StringVarP(&cancelReason, "reason", "r", "", "why the session is cancelled")
	rootCmd.AddCommand(cancelCmd)
}
