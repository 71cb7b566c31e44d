package docx

import (
	"archive/zip"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/beevik/etree"

	"bix/config"
	"bix/layout"
)

func testConfig() config.IndexConfig {
	return config.IndexConfig{
		Filler: config.FillerConfig{BlankLines: 15, Text: "BLANK", FontName: "Arial", FontSizePt: 36},
		Entry:  config.EntryConfig{TopicFontName: "Times New Roman", TopicFontSizePt: 10},
		Page:   config.PageConfig{Size: "A4", MarginMM: 20, Columns: 2},
	}
}

func readPart(t *testing.T, path, name string) []byte {
	t.Helper()

	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("opening container: %v", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("opening part %s: %v", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("reading part %s: %v", name, err)
		}
		return data
	}
	t.Fatalf("container has no part %s", name)
	return nil
}

func TestBackend_PageCount(t *testing.T) {
	b := New(testConfig(), false, nil)

	if n, _ := b.PageCount(); n != 1 {
		t.Errorf("initial page count = %d, want 1", n)
	}
	if err := b.PageBreak(); err != nil {
		t.Fatalf("PageBreak() error: %v", err)
	}
	if n, _ := b.PageCount(); n != 2 {
		t.Errorf("page count after break = %d, want 2", n)
	}
}

func TestBackend_Document(t *testing.T) {
	b := New(testConfig(), false, nil)

	entry := layout.Entry{Topic: "GIAC", Description: "Global Information Assurance Certification", Page: "5", Book: "1"}
	if err := b.Emit(layout.Render(entry, layout.DefaultEntryStyle()), true); err != nil {
		t.Fatalf("Emit() error: %v", err)
	}
	if err := b.PageBreak(); err != nil {
		t.Fatalf("PageBreak() error: %v", err)
	}
	if err := b.Emit([]layout.StyledRun{{
		Text: "BLANK", Bold: true, FontName: "Arial", FontSizePt: 36, Align: layout.AlignRight,
	}}, true); err != nil {
		t.Fatalf("Emit() error: %v", err)
	}

	out := filepath.Join(t.TempDir(), "index.docx")
	if err := b.Save(out); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(readPart(t, out, "word/document.xml")); err != nil {
		t.Fatalf("parsing document.xml: %v", err)
	}
	body := doc.FindElement("//w:body")
	if body == nil {
		t.Fatal("document has no body")
	}

	paras := body.SelectElements("w:p")
	if len(paras) != 3 {
		t.Fatalf("document has %d paragraphs, want 3", len(paras))
	}

	// entry paragraph: three runs with expected texts and styles
	runs := paras[0].SelectElements("w:r")
	if len(runs) != 3 {
		t.Fatalf("entry paragraph has %d runs, want 3", len(runs))
	}
	if got := runs[0].SelectElement("w:t").Text(); got != "GIAC" {
		t.Errorf("topic run text = %q", got)
	}
	if runs[0].FindElement("w:rPr/w:b") == nil {
		t.Error("topic run is not bold")
	}
	if fonts := runs[0].FindElement("w:rPr/w:rFonts"); fonts == nil ||
		fonts.SelectAttrValue("w:ascii", "") != "Times New Roman" {
		t.Error("topic run font is not Times New Roman")
	}
	if sz := runs[0].FindElement("w:rPr/w:sz"); sz == nil || sz.SelectAttrValue("w:val", "") != "20" {
		t.Error("topic run size is not 10pt (20 half-points)")
	}
	if got := runs[1].SelectElement("w:t").Text(); got != " [b1/p5]" {
		t.Errorf("locator run text = %q", got)
	}
	if runs[1].FindElement("w:rPr/w:i") == nil {
		t.Error("locator run is not italic")
	}

	// page break paragraph
	if br := paras[1].FindElement("w:r/w:br"); br == nil || br.SelectAttrValue("w:type", "") != "page" {
		t.Error("second paragraph is not a hard page break")
	}

	// marker paragraph: right-aligned, 36pt
	if jc := paras[2].FindElement("w:pPr/w:jc"); jc == nil || jc.SelectAttrValue("w:val", "") != "right" {
		t.Error("marker paragraph is not right-aligned")
	}
	if sz := paras[2].FindElement("w:r/w:rPr/w:sz"); sz == nil || sz.SelectAttrValue("w:val", "") != "72" {
		t.Error("marker run size is not 36pt (72 half-points)")
	}

	// section properties close the body with two columns
	cols := body.FindElement("w:sectPr/w:cols")
	if cols == nil || cols.SelectAttrValue("w:num", "") != "2" {
		t.Error("section properties do not request two columns")
	}
}

func TestBackend_ContainerParts(t *testing.T) {
	b := New(testConfig(), false, nil)
	if err := b.Emit(nil, true); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "index.docx")
	if err := b.Save(out); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	for _, part := range []string{
		"[Content_Types].xml",
		"_rels/.rels",
		"word/document.xml",
		"word/_rels/document.xml.rels",
		"word/settings.xml",
		"docProps/core.xml",
		"docProps/app.xml",
	} {
		readPart(t, out, part)
	}

	settings := etree.NewDocument()
	if err := settings.ReadFromBytes(readPart(t, out, "word/settings.xml")); err != nil {
		t.Fatalf("parsing settings.xml: %v", err)
	}
	if id := settings.FindElement("//w15:docId"); id == nil || id.SelectAttrValue("w15:val", "") == "" {
		t.Error("settings carry no document id")
	}
}

func TestBackend_FixZip(t *testing.T) {
	b := New(testConfig(), true, nil)
	if err := b.Emit(nil, true); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "index.docx")
	if err := b.Save(out); err != nil {
		t.Fatalf("Save() with fix_zip error: %v", err)
	}

	// fixed container must still be a readable zip with the main part intact
	readPart(t, out, "word/document.xml")
}

func TestBackend_DrivenByLayout(t *testing.T) {
	b := New(testConfig(), false, nil)

	records := []layout.Raw{
		{Topic: "Apple", Description: "a", Page: "1", Book: "1"},
		{Topic: "Banana", Description: "b", Page: "2", Book: "1"},
	}
	if err := layout.Layout(context.Background(), records, b, layout.Defaults(), nil); err != nil {
		t.Fatalf("Layout() error: %v", err)
	}
	if n, _ := b.PageCount(); n%2 != 0 {
		t.Errorf("page count after layout = %d, want even", n)
	}

	out := filepath.Join(t.TempDir(), "index.docx")
	if err := b.Save(out); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
}

func TestBackend_UnknownPageSize(t *testing.T) {
	cfg := testConfig()
	cfg.Page.Size = "Tabloid"
	b := New(cfg, false, nil)

	if err := b.Save(filepath.Join(t.TempDir(), "index.docx")); err == nil {
		t.Error("Save() accepted unsupported page size")
	}
}
