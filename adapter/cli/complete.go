package cli

import (
	"fmt"

	"github.com/felixgeelhaar/advising/internal/advising/application/commands"
	"github.com/felixgeelhaar/advising/internal/advising/application/queries"
	"github.com/spf13/cobra"
)

var completeNotes string

var completeCmd = &cobra.Command{
	Use:   "complete <session-id>",
	Short: "Mark a session as completed",
	Long: `Close a scheduled session, optionally recording notes.
Only advisors and administrators may complete sessions.

Examples:
  advising complete 0d5e...
  advising complete 0d5e... --notes "Discussed internship options"`,
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

		session, err := app.CompleteSessionHandler.Handle(cmd.Context(), commands.CompleteSessionCommand{
			Caller:    app.Caller,
			SessionID: sessionID,
			Notes:     completeNotes,
		})
		if err != nil {
			return err
		}

		if !JSONOutput() {
			fmt.Fprintln(cmd.OutOrStdout(), "Session completed.")
		}
		return PrintSession(cmd.OutOrStdout(), queries.NewSessionDTO(session))
	},
}

func init() {
	completeCmd.Flags().StringVarP(&completeNotes, "notes", "n", "", "session notes")
	rootCmd.AddCommand(completeCmd)
}
