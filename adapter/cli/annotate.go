package cli

import (
	"fmt"

	"github.com/felixgeelhaar/advising/internal/advising/application/commands"
	"github.com/felixgeelhaar/advising/internal/advising/application/queries"
	"github.com/spf13/cobra"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate <session-id> <notes>",
	Short: "Replace a session's notes",
	Long: `Replace the notes of a scheduled or completed session.
Only advisors and administrators may annotate sessions.

Examples:
  advising annotate 0d5e... "Follow up on transcript request"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}

		sessionID, err := ParseID("session", args[0])
		if err != nil {
			return err
		}

		session, err := app.AnnotateSessionHandler.Handle(cmd.Context(), commands.AnnotateSessionCommand{
			Caller:    app.Caller,
			SessionID: sessionID,
			Notes:     args[1],
		})
		if err != nil {
			return err
		}

		if !JSONOutput() {
			fmt.Fprintln(cmd.OutOrStdout(), "Notes saved.")
		}
		return PrintSession(cmd.OutOrStdout(), queries.NewSessionDTO(session))
	},
}

func init() {
	rootCmd.AddCommand(annotateCmd)
}
