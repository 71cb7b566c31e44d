package build

import (
	"bix/layout"
	"bix/utils/debug"
)

// traceBackend wraps a real backend and records every command that flows
// through it, so the exact stream of operations can be included in the debug
// report.
type traceBackend struct {
	next layout.Backend
	tw   *debug.TreeWriter
}

func newTraceBackend(next layout.Backend) *traceBackend {
	return &traceBackend{
		next: next,
		tw:   debug.NewTreeWriter(),
	}
}

func (t *traceBackend) Emit(runs []layout.StyledRun, endsParagraph bool) error {
	t.tw.Line(0, "emit runs=%d paragraph=%t", len(runs), endsParagraph)
	for _, r := range runs {
		t.tw.TextBlock(1, styleLabel(r), r.Text)
	}
	return t.next.Emit(runs, endsParagraph)
}

func (t *traceBackend) PageBreak() error {
	t.tw.Line(0, "page break")
	return t.next.PageBreak()
}

func (t *traceBackend) PageCount() (int, error) {
	n, err := t.next.PageCount()
	if err != nil {
		t.tw.Line(0, "page count failed: %v", err)
		return n, err
	}
	t.tw.Line(0, "page count: %d", n)
	return n, nil
}

func (t *traceBackend) String() string {
	return t.tw.String()
}

func styleLabel(r layout.StyledRun) string {
	label := "run"
	if r.Bold {
		label += " bold"
	}
	if r.Italic {
		label += " italic"
	}
	if r.Align == layout.AlignRight {
		label += " right"
	}
	if r.FontName != "" {
		label += " " + r.FontName
	}
	return label
}
