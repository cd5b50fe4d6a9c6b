package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/desertwitch/linedup/internal/scan"
	"github.com/desertwitch/linedup/internal/ui"
	"github.com/lmittmann/tint"
)

const (
	// uiWaitInterval is the interval at which the readiness of the UI is
	// polled before the scan is started.
	uiWaitInterval = 10 * time.Millisecond
)

type scanProvider interface {
	Run(ctx context.Context, root string) (*scan.Summary, error)
}

// App is the principal structure of the program, holding the scanner and the
// optional user interface.
type App struct {
	scanner     scanProvider
	uiHandler   *ui.Handler
	slogManager *SlogManager

	summary *scan.Summary
	err     error
}

// NewApp returns a pointer to a new [App]. The uiHandler may be nil.
func NewApp(scanner scanProvider, uiHandler *ui.Handler, slogManager *SlogManager) *App {
	return &App{
		scanner:     scanner,
		uiHandler:   uiHandler,
		slogManager: slogManager,
	}
}

// Launch runs the scan over root and stores its results. An attached user
// interface is notified when the scan has ended.
func (app *App) Launch(ctx context.Context, root string) error {
	app.summary, app.err = app.scanner.Run(ctx, root)

	if app.uiHandler != nil {
		app.uiHandler.Finish(app.summary)
	}

	if app.err != nil {
		return fmt.Errorf("(app) %w", app.err)
	}

	return nil
}

// LaunchUI runs the user interface until it exits. Logs are routed into the
// user interface while it runs, and back to the terminal afterwards.
func (app *App) LaunchUI(ctx context.Context) error {
	if app.uiHandler == nil {
		return nil
	}

	app.slogManager.Replace(terminalLogHandler, uiLogHandler, tint.NewHandler(app.uiHandler.LogWriter, &tint.Options{
		Level:      logLevel(),
		TimeFormat: time.Kitchen,
	}))

	defer func() {
		app.slogManager.Replace(uiLogHandler, terminalLogHandler, newTerminalHandler())

		if dropped := app.uiHandler.LogWriter.Dropped(); dropped > 0 {
			slog.Warn("User interface dropped log lines.", "count", dropped)
		}
	}()

	if err := app.uiHandler.Launch(); err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return nil
		}

		return fmt.Errorf("(app-ui) %w", err)
	}

	return nil
}

// waitForUI blocks until an attached user interface is ready or has failed.
func (app *App) waitForUI(ctx context.Context) {
	if app.uiHandler == nil {
		return
	}

	slog.Debug("Waiting for UI...")

	ticker := time.NewTicker(uiWaitInterval)
	defer ticker.Stop()

	for !app.uiHandler.Ready.Load() && !app.uiHandler.Failed.Load() {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Result returns the [scan.Summary] and error of the last [App.Launch].
func (app *App) Result() (*scan.Summary, error) {
	return app.summary, app.err
}
