package cli

import (
	"context"

	"github.com/felixgeelhaar/advising/internal/advising/application/commands"
	"github.com/felixgeelhaar/advising/internal/advising/application/queries"
	"github.com/felixgeelhaar/advising/internal/advising/domain"
)

// Migrator applies pending schema migrations.
type Migrator interface {
	Migrate(ctx context.Context) ([]int64, error)
}

// App holds the CLI application dependencies.
type App struct {
	// Command Handlers
	BookSessionHandler     *commands.BookSessionHandler
	CancelSessionHandler   *commands.CancelSessionHandler
	CompleteSessionHandler *commands.CompleteSessionHandler
	AnnotateSessionHandler *commands.AnnotateSessionHandler
	SetAvailabilityHandler *commands.SetAvailabilityHandler

	// Query Handlers
	ListSessionsHandler    *queries.ListSessionsHandler
	GetSessionHandler      *queries.GetSessionHandler
	GetAvailabilityHandler *queries.GetAvailabilityHandler

	Migrator Migrator

	// Caller is the identity every command acts as.
	Caller domain.Caller
}

// NewApp creates a new CLI application with the provided handlers.
func NewApp(
	bookSessionHandler *commands.BookSessionHandler,
	cancelSessionHandler *commands.CancelSessionHandler,
	completeSessionHandler *commands.CompleteSessionHandler,
	annotateSessionHandler *commands.AnnotateSessionHandler,
	setAvailabilityHandler *commands.SetAvailabilityHandler,
	listSessionsHandler *queries.ListSessionsHandler,
	getSessionHandler *queries.GetSessionHandler,
	getAvailabilityHandler *queries.GetAvailabilityHandler,
) *App {
	return &App{
		BookSessionHandler:     bookSessionHandler,
		CancelSessionHandler:   cancelSessionHandler,
		CompleteSessionHandler: completeSessionHandler,
		AnnotateSessionHandler: annotateSessionHandler,
		SetAvailabilityHandler: setAvailabilityHandler,
		ListSessionsHandler:    listSessionsHandler,
		GetSessionHandler:      getSessionHandler,
		GetAvailabilityHandler: getAvailabilityHandler,
	}
}

// SetCaller updates the identity commands act as.
func (a *App) SetCaller(caller domain.Caller) {
	a.Caller = caller
}

// SetMigrator updates the schema migrator.
func (a *App) SetMigrator(m Migrator) {
	a.Migrator = m
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
