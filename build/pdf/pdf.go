// Package pdf renders the layout command stream into a PDF document. Unlike
// the docx backend it owns real pagination: entries flow through the
// configured number of columns and PageCount reflects natural overflow, not
// only hard breaks.
package pdf

import (
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"bix/config"
	"bix/layout"
)

// pt to mm with a bit of leading
const lineFactor = 0.3528 * 1.25

// Backend implements layout.Backend on top of gofpdf.
type Backend struct {
	doc  *gofpdf.Fpdf
	page config.PageConfig
	log  *zap.Logger

	defFont string
	defSize float64

	pageW float64
	colWd float64
	col   int
	topY  float64
}

var _ layout.Backend = (*Backend)(nil)

// New creates a PDF backend with the first page started.
func New(cfg config.IndexConfig, log *zap.Logger) *Backend {
	doc := gofpdf.New("P", "mm", cfg.Page.Size, "")
	m := cfg.Page.MarginMM
	doc.SetMargins(m, m, m)
	doc.SetAutoPageBreak(true, m)

	if cfg.Page.PageNumbers {
		doc.SetFooterFunc(func() {
			doc.SetY(-15)
			doc.SetFont("Arial", "I", 8)
			doc.CellFormat(0, 10, fmt.Sprintf("Page %d", doc.PageNo()),
				"", 0, "C", false, 0, "")
		})
	}

	b := &Backend{
		doc:     doc,
		page:    cfg.Page,
		log:     log,
		defFont: mapFont(cfg.Entry.TopicFontName),
		defSize: cfg.Entry.TopicFontSizePt,
		topY:    m,
	}
	b.pageW, _ = doc.GetPageSize()
	cols := max(cfg.Page.Columns, 1)
	b.colWd = (b.pageW - 2*m) / float64(cols)

	// entries flow down the current column, overflow moves to the next one
	// and only the last column triggers a real page break
	doc.SetAcceptPageBreakFunc(func() bool {
		if b.col < cols-1 {
			b.setCol(b.col + 1)
			doc.SetY(b.topY)
			return false
		}
		b.setCol(0)
		return true
	})

	doc.AddPage()
	return b
}

func (b *Backend) setCol(col int) {
	b.col = col
	x := b.page.MarginMM + float64(col)*b.colWd
	b.doc.SetLeftMargin(x)
	b.doc.SetRightMargin(b.pageW - x - b.colWd)
	b.doc.SetX(x)
}

// Emit writes runs at the current position. A single right-aligned run is
// rendered as a full-width aligned cell, everything else flows inline.
func (b *Backend) Emit(runs []layout.StyledRun, endsParagraph bool) error {
	if len(runs) == 0 {
		if endsParagraph {
			b.doc.Ln(b.defSize * lineFactor)
		}
		return b.doc.Error()
	}

	if len(runs) == 1 && runs[0].Align == layout.AlignRight {
		family, size := b.runFont(runs[0])
		b.doc.SetFont(family, runStyle(runs[0]), size)
		b.doc.CellFormat(0, size*lineFactor, runs[0].Text, "", 1, "R", false, 0, "")
		return b.doc.Error()
	}

	var height float64
	for _, r := range runs {
		family, size := b.runFont(r)
		b.doc.SetFont(family, runStyle(r), size)
		height = max(height, size*lineFactor)
		b.doc.Write(size*lineFactor, r.Text)
	}
	if endsParagraph {
		b.doc.Ln(height)
	}
	return b.doc.Error()
}

// PageBreak starts a new page in the first column.
func (b *Backend) PageBreak() error {
	b.setCol(0)
	b.doc.AddPage()
	return b.doc.Error()
}

// PageCount returns the number of pages written so far. Content is produced
// strictly forward, so the current page number is the total.
func (b *Backend) PageCount() (int, error) {
	if err := b.doc.Error(); err != nil {
		return 0, err
	}
	return b.doc.PageNo(), nil
}

// Save finalizes the document and writes it to path.
func (b *Backend) Save(path string) error {
	if b.log != nil {
		b.log.Debug("Writing PDF", zap.String("output", path), zap.Int("pages", b.doc.PageNo()))
	}
	return b.doc.OutputFileAndClose(path)
}

func (b *Backend) runFont(r layout.StyledRun) (family string, size float64) {
	family = b.defFont
	if r.FontName != "" {
		family = mapFont(r.FontName)
	}
	size = b.defSize
	if r.FontSizePt > 0 {
		size = r.FontSizePt
	}
	return family, size
}

func runStyle(r layout.StyledRun) string {
	var style string
	if r.Bold {
		style += "B"
	}
	if r.Italic {
		style += "I"
	}
	return style
}

// mapFont resolves requested typefaces to PDF core font families. There is
// no font embedding: unknown faces fall back to Arial.
func mapFont(name string) string {
	switch n := strings.ToLower(name); {
	case strings.Contains(n, "times"):
		return "Times"
	case strings.Contains(n, "courier"):
		return "Courier"
	default:
		return "Arial"
	}
}
