package main

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
)

const (
	terminalLogHandler = "terminal"
	uiLogHandler       = "ui"
)

type namedHandler struct {
	name    string
	handler slog.Handler
}

// SlogManager is a [slog.Handler] fanning out records to an ordered set of
// named handlers. The set is replaced as a whole on every change, so records
// logged by concurrent checks never wait on a change and never see a set
// without either the terminal or the user interface handler.
type SlogManager struct {
	mu       sync.Mutex
	handlers atomic.Pointer[[]namedHandler]

	// scope holds the WithAttrs and WithGroup calls leading to this
	// manager, in order, for handlers added later on.
	scope []func(slog.Handler) slog.Handler
}

// NewSlogManager returns a pointer to a new [SlogManager] without handlers.
func NewSlogManager() *SlogManager {
	m := &SlogManager{}
	m.handlers.Store(&[]namedHandler{})

	return m
}

func (m *SlogManager) current() []namedHandler {
	return *m.handlers.Load()
}

func (m *SlogManager) Enabled(ctx context.Context, level slog.Level) bool {
	for _, nh := range m.current() {
		if nh.handler.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

func (m *SlogManager) Handle(ctx context.Context, r slog.Record) error {
	var errs []error

	for _, nh := range m.current() {
		if !nh.handler.Enabled(ctx, r.Level) {
			continue
		}

		if err := nh.handler.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (m *SlogManager) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return m
	}

	return m.derive(func(h slog.Handler) slog.Handler {
		return h.WithAttrs(attrs)
	})
}

func (m *SlogManager) WithGroup(name string) slog.Handler {
	if name == "" {
		return m
	}

	return m.derive(func(h slog.Handler) slog.Handler {
		return h.WithGroup(name)
	})
}

func (m *SlogManager) derive(step func(slog.Handler) slog.Handler) *SlogManager {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.current()
	handlers := make([]namedHandler, len(current))
	for i, nh := range current {
		handlers[i] = namedHandler{name: nh.name, handler: step(nh.handler)}
	}

	d := &SlogManager{
		scope: append(slices.Clone(m.scope), step),
	}
	d.handlers.Store(&handlers)

	return d
}

// AddHandler adds (or replaces) a named handler, applying any attributes and
// groups the [SlogManager] already carries.
func (m *SlogManager) AddHandler(name string, handler slog.Handler) {
	m.Replace("", name, handler)
}

// RemoveHandler removes a named handler.
func (m *SlogManager) RemoveHandler(name string) {
	m.update(func(nh namedHandler) bool { return nh.name == name }, nil)
}

// Replace removes the handler named old and adds handler under name in one
// step. Records are handled by either the old or the new set, never by a set
// in between.
func (m *SlogManager) Replace(old string, name string, handler slog.Handler) {
	h := handler
	for _, step := range m.scope {
		h = step(h)
	}

	m.update(func(nh namedHandler) bool {
		return nh.name == old || nh.name == name
	}, &namedHandler{name: name, handler: h})
}

func (m *SlogManager) update(remove func(namedHandler) bool, add *namedHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	handlers := slices.DeleteFunc(slices.Clone(m.current()), remove)
	if add != nil {
		handlers = append(handlers, *add)
	}
	m.handlers.Store(&handlers)
}

// names returns the names of the handlers in order.
func (m *SlogManager) names() []string {
	current := m.current()

	names := make([]string, len(current))
	for i, nh := range current {
		names[i] = nh.name
	}

	return names
}
