package ui

import (
	"strings"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// logBufferSize is the number of log lines buffered for the log panel.
const logBufferSize = 1000

// LogMsg is a single line for the log panel of the user interface.
type LogMsg string

type teaProgramProvider interface {
	Send(msg tea.Msg)
}

// TeaLogWriter is an [io.Writer] for use inside a [slog.Handler], which
// forwards every written line into the log panel of a [tea.Program]. Writes
// never block: lines arriving while the buffer is full are dropped and
// counted, so a busy user interface cannot stall a scan.
type TeaLogWriter struct {
	program  teaProgramProvider
	logChan  chan LogMsg
	doneChan chan struct{}
	stopOnce sync.Once
	dropped  atomic.Uint64
}

// NewTeaLogWriter returns a pointer to a new [TeaLogWriter] and starts the
// forwarding, which needs to be ended with [TeaLogWriter.Stop].
func NewTeaLogWriter(program teaProgramProvider) *TeaLogWriter {
	return newTeaLogWriter(program, logBufferSize)
}

func newTeaLogWriter(program teaProgramProvider, size int) *TeaLogWriter {
	wr := &TeaLogWriter{
		program:  program,
		logChan:  make(chan LogMsg, size),
		doneChan: make(chan struct{}),
	}

	go wr.forward()

	return wr
}

// Stop ends the forwarding. Lines written afterwards are discarded without
// being counted as dropped. It is safe to call more than once.
func (wr *TeaLogWriter) Stop() {
	wr.stopOnce.Do(func() {
		close(wr.doneChan)
	})
}

// Dropped returns the number of lines lost to a full buffer.
func (wr *TeaLogWriter) Dropped() uint64 {
	return wr.dropped.Load()
}

func (wr *TeaLogWriter) forward() {
	for {
		select {
		case <-wr.doneChan:
			return
		case msg := <-wr.logChan:
			if wr.stopped() {
				return
			}
			wr.program.Send(msg)
		}
	}
}

func (wr *TeaLogWriter) stopped() bool {
	select {
	case <-wr.doneChan:
		return true
	default:
		return false
	}
}

// Write splits p into lines and queues every non-empty line as a [LogMsg].
func (wr *TeaLogWriter) Write(p []byte) (int, error) {
	if wr.stopped() {
		return len(p), nil
	}

	for line := range strings.SplitSeq(string(p), "\n") {
		if line == "" {
			continue
		}

		select {
		case wr.logChan <- LogMsg(line):
		default:
			wr.dropped.Add(1)
		}
	}

	return len(p), nil
}
