package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/felixgeelhaar/advising/internal/advising/domain"
	"github.com/felixgeelhaar/advising/pkg/observability"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose bool
	jsonOut bool
	logger  *zap.Logger
)

type commandContext struct {
	correlationID uuid.UUID
	startedAt     time.Time
}

type commandContextKey struct{}

// errNoApp is returned by commands that need the database when the
// container could not be built.
var errNoApp = errors.New("advising commands require a database connection; check DATABASE_URL or SQLITE_PATH")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "advising",
	Short: "Advising - book and manage advising sessions",
	Long: `Advising books one-on-one sessions between students and advisors.

Sessions are booked into fixed one-hour slots, honour the global and
per-advisor availability switches, and move from scheduled to completed
or cancelled.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = zap.NewNop()
		}
		info := commandContext{
			correlationID: uuid.New(),
			startedAt:     time.Now(),
		}
		ctx := observability.WithCorrelationID(cmd.Context(), info.correlationID.String())
		if a := GetApp(); a != nil && a.Caller.ID != uuid.Nil {
			ctx = observability.WithUserID(ctx, a.Caller.ID.String())
		}
		cmd.SetContext(context.WithValue(ctx, commandContextKey{}, info))
		logger.Debug("command start",
			zap.String("command", cmd.CommandPath()),
			zap.Stringer("correlation_id", info.correlationID),
		)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = zap.NewNop()
		}
		info, ok := cmd.Context().Value(commandContextKey{}).(commandContext)
		if !ok {
			return
		}
		logger.Debug("command end",
			zap.String("command", cmd.CommandPath()),
			zap.Stringer("correlation_id", info.correlationID),
			zap.Int64("duration_ms", time.Since(info.startedAt).Milliseconds()),
		)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, FormatError(err))
		os.Exit(1)
	}
}

// FormatError prefixes failures from the booking engine with their kind.
func FormatError(err error) string {
	if !domain.IsKnown(err) {
		return "Error: " + err.Error()
	}
	return fmt.Sprintf("Error [%s]: %v", domain.KindOf(err), err)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print results as JSON")
}

// AddCommand adds a command to the root command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// SetLogger sets the CLI logger.
func SetLogger(l *zap.Logger) {
	logger = l
}

// Verbose reports whether --verbose was given.
func Verbose() bool {
	return verbose
}

// JSONOutput reports whether --json was given.
func JSONOutput() bool {
	return jsonOut
}

// RequireApp returns the application or errNoApp.
func RequireApp() (*App, error) {
	a := GetApp()
	if a == nil {
		return nil, errNoApp
	}
	return a, nil
}
