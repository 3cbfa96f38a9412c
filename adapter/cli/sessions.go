package cli

import (
	"github.com/felixgeelhaar/advising/internal/advising/application/queries"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"ls", "list"},
	Short:   "List your sessions",
	Long: `List the caller's sessions split into upcoming and past.

Students see the sessions they booked; advisors and administrators see
the sessions they advise. Upcoming sessions are soonest first, past
sessions most recent first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}

		buckets, err := app.ListSessionsHandler.Handle(cmd.Context(), queries.ListSessionsQuery{Caller: app.Caller})
		if err != nil {
			return err
		}

		if JSONOutput() {
			return PrintJSON(cmd.OutOrStdout(), buckets)
		}
		PrintSessionRows(cmd.OutOrStdout(), "upcoming", buckets.Upcoming)
		PrintSessionRows(cmd.OutOrStdout(), "past", buckets.Past)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}
