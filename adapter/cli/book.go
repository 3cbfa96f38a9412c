package cli

import (
	"fmt"

	"github.com/felixgeelhaar/advising/internal/advising/application/commands"
	"github.com/felixgeelhaar/advising/internal/advising/application/queries"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	bookStudent  string
	bookAdvisor  string
	bookDate     string
	bookTime     string
	bookLocation string
)

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Book an advising session",
	Long: `Book a one-hour session with an advisor.

Students book for themselves; advisors and administrators pass --student.
Run "advising slots" for the bookable start times.

Examples:
  advising book --advisor 6f1c... --date 2025-04-01 --time 09:00
  advising book --advisor 6f1c... --date 2025-04-01 --time 13:00 --location Virtual
  advising book --student 2b7e... --advisor 6f1c... --date 2025-04-02 --time 10:00`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}

		studentID := app.Caller.ID
		if bookStudent != "" {
			if studentID, err = ParseID("student", bookStudent); err != nil {
				return err
			}
		}
		var advisorID uuid.UUID
		if bookAdvisor != "" {
			if advisorID, err = ParseID("advisor", bookAdvisor); err != nil {
				return err
			}
		}

		session, err := app.BookSessionHandler.Handle(cmd.Context(), commands.BookSessionCommand{
			Caller:    app.Caller,
			StudentID: studentID,
			AdvisorID: advisorID,
			Date:      bookDate,
			StartTime: bookTime,
			Location:  bookLocation,
		})
		if err != nil {
			return err
		}

		if !JSONOutput() {
			fmt.Fprintln(cmd.OutOrStdout(), "Session booked.")
		}
		return PrintSession(cmd.OutOrStdout(), queries.NewSessionDTO(session))
	},
}

func init() {
	bookCmd.Flags().StringVar(&bookStudent, "student", "", "student ID (defaults to the caller)")
	bookCmd.Flags().StringVar(&bookAdvisor, "advisor", "", "advisor ID")
	bookCmd.Flags().StringVar(&bookDate, "date", "", "session date (YYYY-MM-DD)")
	bookCmd.Flags().StringVar(&bookTime, "time", "", "start time (HH:MM)")
	bookCmd.Flags().StringVar(&bookLocation, "location", "", "meeting location (default Career Center)")
	_ = bookCmd.MarkFlagRequired("advisor")
	_ = bookCmd.MarkFlagRequired("date")
	_ = bookCmd.MarkFlagRequired("time")
	rootCmd.AddCommand(bookCmd)
}
