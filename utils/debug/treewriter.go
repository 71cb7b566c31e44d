// Package debug renders indented textual dumps for troubleshooting reports.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

const indent = "  "

// TreeWriter accumulates lines at nesting depths, producing a plain-text
// tree. Output order is append order, the writer never reorders anything.
type TreeWriter struct {
	buf strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{}
}

func (tw *TreeWriter) String() string {
	return tw.buf.String()
}

// Line appends a formatted line at the given depth.
func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.buf.WriteString(strings.Repeat(indent, depth))
	fmt.Fprintf(&tw.buf, format, args...)
	tw.buf.WriteByte('\n')
}

// TextBlock appends a labeled value at the given depth. The value is quoted
// so control characters and spacing survive round trips through the dump,
// empty values stay empty for readability.
func (tw *TreeWriter) TextBlock(depth int, label, value string) {
	if value != "" {
		value = strconv.Quote(value)
	}
	tw.Line(depth, "%s: %s", label, value)
}
