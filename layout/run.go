// Package layout implements the section-pagination and entry-formatting
// engine: it partitions an ordered stream of index records into sections by
// leading character, keeps every section starting on an odd page by padding
// the document with spacer pages, and converts entries into styled text runs
// for a rendering backend.
package layout

// Alignment of the paragraph a run belongs to.
type Alignment int

const (
	AlignDefault Alignment = iota
	AlignLeft
	AlignRight
)

// StyledRun is a minimal unit of formatted text passed to the rendering
// backend. Empty FontName or zero FontSizePt mean backend default. Runs are
// never mutated after creation.
type StyledRun struct {
	Text       string
	Bold       bool
	Italic     bool
	FontName   string
	FontSizePt float64
	Align      Alignment
}

// Backend is the rendering surface the engine drives. This is the full
// protocol: the engine performs no file I/O and no document lifecycle calls.
// PageCount must reflect every command issued before the call, backends must
// not batch or defer layout.
type Backend interface {
	// Emit appends runs to the current paragraph, terminating it when
	// endsParagraph is set. Emit(nil, true) produces an empty paragraph.
	Emit(runs []StyledRun, endsParagraph bool) error
	// PageBreak starts a new page.
	PageBreak() error
	// PageCount returns the current number of pages in the document, at
	// least 1.
	PageCount() (int, error)
}
