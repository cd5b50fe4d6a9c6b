// Package report renders duplicate line reports for the console.
package report

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/desertwitch/linedup/internal/checker"
)

// Printer writes one line per [checker.Report] to its writer. It is safe for
// concurrent use, with every report written as a whole line.
type Printer struct {
	sync.Mutex
	out   io.Writer
	count int
}

// NewPrinter returns a pointer to a new [Printer] writing to out. File names
// are written byte for byte, including any tabs or newlines they contain.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		out: out,
	}
}

// Print writes the given [checker.Report] as a single line. Nil reports are
// ignored.
func (p *Printer) Print(r *checker.Report) error {
	if r == nil {
		return nil
	}

	line := fmt.Sprintf("Duplicate in %s: %s\n", r.Name, FormatValues(r.Duplicates))

	p.Lock()
	defer p.Unlock()

	if _, err := io.WriteString(p.out, line); err != nil {
		return fmt.Errorf("(report-print) %w", err)
	}
	p.count++

	return nil
}

// Count returns the number of reports written so far.
func (p *Printer) Count() int {
	p.Lock()
	defer p.Unlock()

	return p.count
}

// FormatValues renders duplicated line values as a bracketed, comma-separated
// list.
func FormatValues(values []string) string {
	return "[" + strings.Join(values, ", ") + "]"
}
