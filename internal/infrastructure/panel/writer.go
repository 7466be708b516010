// Package panel provides a plain io.Writer implementation of the side
// presentation surface, used where no richer renderer is attached.
package panel

import (
	"fmt"
	"io"
	"sync"

	"FeedAnnotator/internal/ports"
)

// Writer renders summary updates as labeled text blocks. Safe for use from
// multiple goroutines.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

var _ ports.PanelSurface = (*Writer)(nil)

// NewWriter wraps the destination stream.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// ShowSummary replaces the panel content for the given display title.
func (p *Writer) ShowSummary(title string, status ports.PanelStatus, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if body == "" {
		fmt.Fprintf(p.w, "[%s] %s\n", status, title)
		return
	}
	fmt.Fprintf(p.w, "[%s] %s\n%s\n", status, title, body)
}
