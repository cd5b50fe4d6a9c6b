// Package ui implements a command-line progress display using [tea].
package ui

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertwitch/linedup/internal/scan"
)

type progressProvider interface {
	Progress() scan.Progress
}

// Handler is the principal implementation of a user interface [Handler].
type Handler struct {
	program *tea.Program

	LogWriter *TeaLogWriter

	Ready  atomic.Bool
	Failed atomic.Bool
}

// NewHandler returns a pointer to a new user interface [Handler], rendering
// to out. Canceling via the user interface calls cancel.
func NewHandler(ctx context.Context, cancel context.CancelFunc, scanner progressProvider, out io.Writer) *Handler {
	handler := &Handler{}

	model := NewTeaModel(handler, scanner, cancel)
	handler.program = tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithOutput(out),
		tea.WithoutSignalHandler(),
	)
	handler.LogWriter = NewTeaLogWriter(handler.program)

	return handler
}

// Launch starts the command-line user interface (the [tea.Program]) and
// blocks until it exits.
func (uiHandler *Handler) Launch() error {
	defer uiHandler.LogWriter.Stop()

	if _, err := uiHandler.program.Run(); err != nil {
		uiHandler.Failed.Store(true)

		return fmt.Errorf("(ui) %w", err)
	}

	return nil
}

// Finish tells the user interface that the scan has ended, upon which it
// renders a final frame and exits.
func (uiHandler *Handler) Finish(summary *scan.Summary) {
	uiHandler.program.Send(FinishedMsg{Summary: summary})
}
