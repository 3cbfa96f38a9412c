package cli

import (
	"github.com/felixgeelhaar/advising/internal/advising/application/queries"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show one session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}

		sessionID, err := ParseID("session", args[0])
		if err != nil {
			return err
		}

		session, err := app.GetSessionHandler.Handle(cmd.Context(), queries.GetSessionQuery{
			Caller:    app.Caller,
			SessionID: sessionID,
		})
		if err != nil {
			return err
		}
		return PrintSession(cmd.OutOrStdout(), *session)
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
