package emu

import (
	"fmt"
	"io"
	"strings"
)

// changeLog accumulates side effects between two trace lines.
type changeLog struct {
	enabled bool
	items   []string
}

func (c *changeLog) add(format string, args ...any) {
	if !c.enabled {
		return
	}
	c.items = append(c.items, fmt.Sprintf(format, args...))
}

func (c *changeLog) take() string {
	if len(c.items) == 0 {
		return ""
	}
	s := strings.Join(c.items, " ")
	c.items = c.items[:0]
	return s
}

// Tracer writes the per-instruction trace.
type Tracer struct {
	w io.Writer
}

// NewTracer creates a tracer writing to w.
func NewTracer(w io.Writer) *Tracer {
	return &Tracer{w: w}
}

// Instruction writes one executed instruction followed by the changes
// recorded since the previous line.
func (t *Tracer) Instruction(clock uint64, id int, pc, word uint32, text, changes string) {
	_, _ = fmt.Fprintf(t.w, "clock=%d id=%d : 0x%08x => 0x%08x\t%s\n", clock, id, pc, word, text)
	if changes != "" {
		_, _ = fmt.Fprintf(t.w, "clock=%d id=%d : CHANGES: %s\n", clock, id, changes)
	}
}
