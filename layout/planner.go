package layout

// FillerConfig controls the spacer page emitted to correct page-count parity
// before a new section begins.
type FillerConfig struct {
	// BlankLines is the number of empty paragraphs pushing the marker toward
	// vertical center. The count is fixed, it is never computed from measured
	// content height.
	BlankLines int
	// Text is the marker placed on the spacer page. Empty string produces a
	// fully blank page.
	Text       string
	FontName   string
	FontSizePt float64
}

// DefaultFiller returns the spacer page settings of the original tool.
func DefaultFiller() FillerConfig {
	return FillerConfig{
		BlankLines: 15,
		Text:       "BLANK",
		FontName:   "Arial",
		FontSizePt: 36,
	}
}

// planner decides where sections end. It owns the only mutable state of the
// engine and lives for a single Layout call.
type planner struct {
	filler FillerConfig

	prev       rune
	prevLetter bool
	started    bool
}

// boundary reports whether a section boundary must be declared before an
// entry with the given key. A transition between two non-letter keys never
// splits sections, any transition touching a letter key does. A run of
// purely non-letter topics therefore stays in one section even when the
// keys differ.
func (p *planner) boundary(key rune, letter bool) bool {
	if !p.started {
		return false
	}
	return key != p.prev && (letter || p.prevLetter)
}

// advance runs the per-entry transition: on a declared boundary it pads the
// document to an even page count and emits a hard page break, then records
// the new section key. Entries that declare no boundary simply extend the
// current section.
func (p *planner) advance(key rune, letter bool, b Backend) error {
	if p.boundary(key, letter) {
		if err := p.closeSection(b); err != nil {
			return err
		}
		if err := b.PageBreak(); err != nil {
			return err
		}
	}
	p.prev, p.prevLetter, p.started = key, letter, true
	return nil
}

// closeSection emits the filler page when the current page count is odd.
// Afterwards the count is even, so the next page break always lands the
// following section on an odd page.
func (p *planner) closeSection(b Backend) error {
	n, err := b.PageCount()
	if err != nil {
		return err
	}
	if n%2 == 0 {
		return nil
	}
	return p.emitFiller(b)
}

// finish closes the last section once the entry stream is exhausted. No
// trailing page break is emitted since there is no subsequent section.
func (p *planner) finish(b Backend) error {
	if !p.started {
		return nil
	}
	return p.closeSection(b)
}

// emitFiller produces the spacer page: a hard break, the configured number
// of empty paragraphs and a large bold right-aligned marker.
func (p *planner) emitFiller(b Backend) error {
	if err := b.PageBreak(); err != nil {
		return err
	}
	for range p.filler.BlankLines {
		if err := b.Emit(nil, true); err != nil {
			return err
		}
	}
	runs := []StyledRun{{
		Text:       p.filler.Text,
		Bold:       true,
		FontName:   p.filler.FontName,
		FontSizePt: p.filler.FontSizePt,
		Align:      AlignRight,
	}}
	return b.Emit(runs, true)
}
