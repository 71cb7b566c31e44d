// Package docx writes the layout command stream as a WordprocessingML
// document. There is no layout engine behind it, so PageCount tracks hard
// page breaks only: the parity the pagination planner maintains holds over
// the explicit command stream, natural content overflow is Word's business.
package docx

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"bix/config"
	"bix/layout"
)

const nsMain = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// twips per mm
const twipsMM = 1440.0 / 25.4

// Backend implements layout.Backend by accumulating WordprocessingML in
// memory. Save finalizes the section properties and writes the container.
type Backend struct {
	cfg    config.IndexConfig
	fixZip bool
	log    *zap.Logger

	doc   *etree.Document
	body  *etree.Element
	para  *etree.Element // currently open paragraph
	pages int
}

var _ layout.Backend = (*Backend)(nil)

// New creates a DOCX backend with an empty document body.
func New(cfg config.IndexConfig, fixZip bool, log *zap.Logger) *Backend {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)

	root := doc.CreateElement("w:document")
	root.CreateAttr("xmlns:w", nsMain)

	return &Backend{
		cfg:    cfg,
		fixZip: fixZip,
		log:    log,
		doc:    doc,
		body:   root.CreateElement("w:body"),
		pages:  1,
	}
}

// Emit appends runs to the current paragraph, terminating it when
// endsParagraph is set. A right-aligned run sets the paragraph alignment.
func (b *Backend) Emit(runs []layout.StyledRun, endsParagraph bool) error {
	p := b.openParagraph()

	for _, r := range runs {
		if r.Align == layout.AlignRight {
			jc := paragraphProps(p).CreateElement("w:jc")
			jc.CreateAttr("w:val", "right")
		}
		appendRun(p, r)
	}
	if endsParagraph {
		b.para = nil
	}
	return nil
}

// PageBreak emits a hard page break in its own paragraph.
func (b *Backend) PageBreak() error {
	if b.para != nil {
		// runs never straddle a break, close whatever is open
		b.para = nil
	}
	p := b.openParagraph()
	br := p.CreateElement("w:r").CreateElement("w:br")
	br.CreateAttr("w:type", "page")
	b.para = nil
	b.pages++
	return nil
}

// PageCount returns 1 plus the number of hard breaks issued so far.
func (b *Backend) PageCount() (int, error) {
	return b.pages, nil
}

func (b *Backend) openParagraph() *etree.Element {
	if b.para == nil {
		b.para = b.body.CreateElement("w:p")
	}
	return b.para
}

// paragraphProps returns the w:pPr child creating it first when missing.
// Word requires it to be the first child of the paragraph.
func paragraphProps(p *etree.Element) *etree.Element {
	if pPr := p.SelectElement("w:pPr"); pPr != nil {
		return pPr
	}
	pPr := etree.NewElement("w:pPr")
	p.InsertChildAt(0, pPr)
	return pPr
}

func appendRun(p *etree.Element, r layout.StyledRun) {
	run := p.CreateElement("w:r")

	if r.Bold || r.Italic || r.FontName != "" || r.FontSizePt > 0 {
		rPr := run.CreateElement("w:rPr")
		if r.FontName != "" {
			fonts := rPr.CreateElement("w:rFonts")
			fonts.CreateAttr("w:ascii", r.FontName)
			fonts.CreateAttr("w:hAnsi", r.FontName)
		}
		if r.Bold {
			rPr.CreateElement("w:b")
		}
		if r.Italic {
			rPr.CreateElement("w:i")
		}
		if r.FontSizePt > 0 {
			// w:sz is measured in half-points
			sz := rPr.CreateElement("w:sz")
			sz.CreateAttr("w:val", strconv.Itoa(int(r.FontSizePt*2)))
		}
	}

	t := run.CreateElement("w:t")
	t.CreateAttr("xml:space", "preserve")
	t.SetText(r.Text)
}

// finalize closes any open paragraph and appends section properties: page
// size, margins and the column count of the index.
func (b *Backend) finalize() error {
	b.para = nil

	w, h, err := pageSizeTwips(b.cfg.Page.Size)
	if err != nil {
		return err
	}
	m := strconv.Itoa(int(b.cfg.Page.MarginMM * twipsMM))

	sectPr := b.body.CreateElement("w:sectPr")

	pgSz := sectPr.CreateElement("w:pgSz")
	pgSz.CreateAttr("w:w", strconv.Itoa(w))
	pgSz.CreateAttr("w:h", strconv.Itoa(h))

	pgMar := sectPr.CreateElement("w:pgMar")
	pgMar.CreateAttr("w:top", m)
	pgMar.CreateAttr("w:right", m)
	pgMar.CreateAttr("w:bottom", m)
	pgMar.CreateAttr("w:left", m)

	cols := sectPr.CreateElement("w:cols")
	cols.CreateAttr("w:num", strconv.Itoa(max(b.cfg.Page.Columns, 1)))
	cols.CreateAttr("w:space", "708")

	return nil
}

func pageSizeTwips(name string) (w, h int, err error) {
	switch name {
	case "A4":
		return 11906, 16838, nil
	case "A5":
		return 8391, 11906, nil
	case "Letter":
		return 12240, 15840, nil
	case "Legal":
		return 12240, 20160, nil
	default:
		return 0, 0, fmt.Errorf("unsupported page size: %s", name)
	}
}
