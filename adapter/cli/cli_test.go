package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/advising/internal/advising/application/queries"
	"github.com/felixgeelhaar/advising/internal/advising/domain"
	internalApp "github.com/felixgeelhaar/advising/internal/app"
	"github.com/felixgeelhaar/advising/pkg/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	testStudentID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	testAdvisorID = uuid.MustParse("00000000-0000-0000-0000-0000000000a1")
)

// setupLocalModeTestApp creates a test application with SQLite for integration tests.
func setupLocalModeTestApp(t *testing.T, caller domain.Caller) *App {
	t.Helper()

	cfg := &config.Config{
		AppEnv:          "test",
		SQLitePath:      filepath.Join(t.TempDir(), "test.db"),
		SessionCacheTTL: time.Minute,
	}

	container, err := internalApp.NewLocalContainer(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	cliApp := NewApp(
		container.BookSessionHandler,
		container.CancelSessionHandler,
		container.CompleteSessionHandler,
		container.AnnotateSessionHandler,
		container.SetAvailabilityHandler,
		container.ListSessionsHandler,
		container.GetSessionHandler,
		container.GetAvailabilityHandler,
	)
	cliApp.SetCaller(caller)
	cliApp.SetMigrator(container)

	SetApp(cliApp)
	t.Cleanup(func() { SetApp(nil) })
	return cliApp
}

// run executes the root command with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	jsonOut = false
	bookStudent, bookLocation = "", ""
	cancelReason, completeNotes = "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func bookJSON(t *testing.T, date, start string) queries.SessionDTO {
	t.Helper()

	out, err := run(t, "book", "--json", "--advisor", testAdvisorID.String(), "--date", date, "--time", start)
	require.NoError(t, err)

	var dto queries.SessionDTO
	require.NoError(t, json.Unmarshal([]byte(out), &dto))
	return dto
}

func TestBookCmd(t *testing.T) {
	setupLocalModeTestApp(t, domain.Caller{ID: testStudentID, Role: domain.RoleStudent})

	out, err := run(t, "book", "--advisor", testAdvisorID.String(), "--date", "2030-04-01", "--time", "09:00")
	require.NoError(t, err)
	assert.Contains(t, out, "Session booked.")
	assert.Contains(t, out, "2030-04-01 09:00-10:00")
	assert.Contains(t, out, "Career Center")

	_, err = run(t, "book", "--advisor", testAdvisorID.String(), "--date", "2030-04-01", "--time", "09:00")
	assert.ErrorIs(t, err, domain.ErrSlotTaken)
	assert.Equal(t, "Error [SLOT_TAKEN]: "+err.Error(), FormatError(err))

	_, err = run(t, "book", "--advisor", testAdvisorID.String(), "--date", "2030-04-01", "--time", "12:00")
	assert.ErrorIs(t, err, domain.ErrInvalidSlot)

	_, err = run(t, "book", "--advisor", "not-a-uuid", "--date", "2030-04-01", "--time", "10:00")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestSessionsAndShowCmd(t *testing.T) {
	setupLocalModeTestApp(t, domain.Caller{ID: testStudentID, Role: domain.RoleStudent})

	booked := bookJSON(t, "2030-05-06", "14:00")
	assert.Equal(t, "15:00", booked.EndTime)

	out, err := run(t, "sessions")
	require.NoError(t, err)
	assert.Contains(t, out, "UPCOMING (1)")
	assert.Contains(t, out, "PAST (0)")
	assert.Contains(t, out, booked.ID.String()[:8])

	out, err = run(t, "show", booked.ID.String())
	require.NoError(t, err)
	assert.Contains(t, out, booked.ID.String())
	assert.Contains(t, out, "scheduled")

	_, err = run(t, "show", uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCancelCmd(t *testing.T) {
	setupLocalModeTestApp(t, domain.Caller{ID: testStudentID, Role: domain.RoleStudent})
	booked := bookJSON(t, "2030-05-07", "11:00")

	_, err := run(t, "cancel", booked.ID.String())
	assert.ErrorIs(t, err, domain.ErrMissingReason)

	out, err := run(t, "cancel", booked.ID.String(), "--reason", "exam clash")
	require.NoError(t, err)
	assert.Contains(t, out, "Session cancelled.")
	assert.Contains(t, out, "exam clash")
}

func TestCompleteAndAnnotateCmd(t *testing.T) {
	app := setupLocalModeTestApp(t, domain.Caller{ID: testStudentID, Role: domain.RoleStudent})
	booked := bookJSON(t, "2030-05-08", "13:00")

	_, err := run(t, "complete", booked.ID.String())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	app.SetCaller(domain.Caller{ID: testAdvisorID, Role: domain.RoleAdvisor})

	out, err := run(t, "complete", booked.ID.String(), "--notes", "went well")
	require.NoError(t, err)
	assert.Contains(t, out, "Session completed.")

	out, err = run(t, "annotate", booked.ID.String(), "follow up in June")
	require.NoError(t, err)
	assert.Contains(t, out, "follow up in June")

	_, err = run(t, "cancel", booked.ID.String(), "--reason", "too late")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestSlotsCmd(t *testing.T) {
	out, err := run(t, "slots")
	require.NoError(t, err)
	assert.Contains(t, out, "09:00 - 10:00")
	assert.Contains(t, out, "16:00 - 17:00")
	assert.NotContains(t, out, "12:00 - 13:00")
}

func TestMigrateCmd(t *testing.T) {
	setupLocalModeTestApp(t, domain.Caller{ID: testStudentID, Role: domain.RoleStudent})

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema is up to date.")
}

func TestHealthCmd(t *testing.T) {
	setupLocalModeTestApp(t, domain.Caller{ID: testStudentID, Role: domain.RoleStudent})

	out, err := run(t, "health")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)
}

func TestCommandsWithoutApp(t *testing.T) {
	SetApp(nil)

	_, err := run(t, "sessions")
	assert.ErrorIs(t, err, errNoApp)

	_, err = run(t, "health")
	assert.ErrorIs(t, err, errNoApp)
}

func TestFormatError(t *testing.T) {
	assert.Equal(t, "Error: boom", FormatError(errors.New("boom")))
	assert.Equal(t, "Error [NOT_FOUND]: not found", FormatError(domain.ErrNotFound))
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "advising dev (commit none")

	out, err = run(t, "version", "--json")
	require.NoError(t, err)
	var info versionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "dev", info.Version)
	assert.NotEmpty(t, info.GoVersion)
}
