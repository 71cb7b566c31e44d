package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func prepareReport(t *testing.T) *Report {
	t.Helper()
	conf := &ReporterConfig{Destination: filepath.Join(t.TempDir(), "bix-report.zip")}
	rpt, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() failed: %v", err)
	}
	return rpt
}

func readReport(t *testing.T, rpt *Report) map[string]string {
	t.Helper()
	name := rpt.Name()
	if err := rpt.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	zr, err := zip.OpenReader(name)
	if err != nil {
		t.Fatalf("report is not a valid archive: %v", err)
	}
	defer zr.Close()

	parts := make(map[string]string)
	for _, f := range zr.File {
		r, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			t.Fatal(err)
		}
		parts[f.Name] = string(data)
	}
	return parts
}

func TestReportNilReceiver(t *testing.T) {
	var rpt *Report

	// all operations must be no-ops when reporting was not requested
	rpt.Store("sources/records.csv", "somewhere")
	rpt.StoreData("config/bix.yaml", []byte("version: 1"))
	if err := rpt.StoreCopy("documents/index.pdf", "somewhere"); err != nil {
		t.Errorf("StoreCopy() on nil report = %v", err)
	}
	if err := rpt.Close(); err != nil {
		t.Errorf("Close() on nil report = %v", err)
	}
	if rpt.Name() != "" {
		t.Error("Name() on nil report is not empty")
	}
}

func TestReportStoreData(t *testing.T) {
	rpt := prepareReport(t)
	rpt.StoreData("sources/fruits.csv", []byte("Apple,crisp fruit,12,3\n"))
	rpt.StoreData("traces/fruits.csv.txt", []byte("emit runs=3 paragraph=true\n"))

	parts := readReport(t, rpt)
	if got := parts["sources/fruits.csv"]; got != "Apple,crisp fruit,12,3\n" {
		t.Errorf("stored data = %q", got)
	}
	if _, ok := parts["traces/fruits.csv.txt"]; !ok {
		t.Error("trace entry is missing from the archive")
	}
	manifest, ok := parts["MANIFEST"]
	if !ok {
		t.Fatal("archive has no MANIFEST")
	}
	for _, name := range []string{"sources/fruits.csv", "traces/fruits.csv.txt"} {
		if !strings.Contains(manifest, name) {
			t.Errorf("MANIFEST does not mention %s", name)
		}
	}
}

func TestReportStoreDataDuplicatePanics(t *testing.T) {
	rpt := prepareReport(t)
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate name")
		}
	}()
	rpt.StoreData("config/bix.yaml", []byte("a"))
	rpt.StoreData("config/bix.yaml", []byte("b"))
}

func TestReportStoreReadsAtClose(t *testing.T) {
	rpt := prepareReport(t)

	log := filepath.Join(t.TempDir(), "bix.log")
	if err := os.WriteFile(log, []byte("started\n"), 0644); err != nil {
		t.Fatal(err)
	}
	rpt.Store("final.log", log)

	// content written after Store must still make it into the archive
	if err := os.WriteFile(log, []byte("started\ncompleted\n"), 0644); err != nil {
		t.Fatal(err)
	}

	parts := readReport(t, rpt)
	if got := parts["final.log"]; got != "started\ncompleted\n" {
		t.Errorf("log entry = %q, want content at close time", got)
	}
}

func TestReportStoreCopySnapshotsFile(t *testing.T) {
	rpt := prepareReport(t)

	doc := filepath.Join(t.TempDir(), "index.pdf")
	if err := os.WriteFile(doc, []byte("%PDF-1.3 first"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := rpt.StoreCopy("documents/index.pdf", doc); err != nil {
		t.Fatalf("StoreCopy() failed: %v", err)
	}

	// the original may be overwritten or removed after the copy was taken
	if err := os.Remove(doc); err != nil {
		t.Fatal(err)
	}

	parts := readReport(t, rpt)
	if got := parts["documents/index.pdf"]; got != "%PDF-1.3 first" {
		t.Errorf("copied document = %q, want snapshot content", got)
	}
}

func TestReportStoreCopyVersionsDuplicates(t *testing.T) {
	rpt := prepareReport(t)

	doc := filepath.Join(t.TempDir(), "index.pdf")
	for _, content := range []string{"first run", "second run"} {
		if err := os.WriteFile(doc, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if err := rpt.StoreCopy("documents/index.pdf", doc); err != nil {
			t.Fatalf("StoreCopy() failed: %v", err)
		}
	}

	parts := readReport(t, rpt)
	delete(parts, "MANIFEST")
	if len(parts) != 2 {
		t.Fatalf("expected 2 versioned entries, got %d: %v", len(parts), parts)
	}
	if got := parts["documents/index.pdf"]; got != "first run" {
		t.Errorf("unversioned entry = %q, want first snapshot", got)
	}
	found := false
	for name, content := range parts {
		if strings.HasPrefix(name, "documents/index.pdf-") && content == "second run" {
			found = true
		}
	}
	if !found {
		t.Errorf("versioned second snapshot is missing: %v", parts)
	}
}

func TestReportStoreCopySnapshotsDirectory(t *testing.T) {
	rpt := prepareReport(t)

	src := t.TempDir()
	for name, content := range map[string]string{
		"fruits.csv":       "Apple,crisp fruit,12,3\n",
		"sub/security.csv": "GIAC,certification,5,1\n",
	} {
		path := filepath.Join(src, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := rpt.StoreCopy("sources", src); err != nil {
		t.Fatalf("StoreCopy() failed: %v", err)
	}

	parts := readReport(t, rpt)
	if got := parts["sources/fruits.csv"]; got != "Apple,crisp fruit,12,3\n" {
		t.Errorf("copied file = %q", got)
	}
	if got := parts["sources/sub/security.csv"]; got != "GIAC,certification,5,1\n" {
		t.Errorf("copied nested file = %q", got)
	}
}

func TestReportStoreCopyMissingSource(t *testing.T) {
	rpt := prepareReport(t)
	if err := rpt.StoreCopy("documents/index.pdf", filepath.Join(t.TempDir(), "no-such-file.pdf")); err == nil {
		t.Error("expected error for missing source")
	}
	if err := rpt.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
}

func TestReportSkipsVanishedStorePaths(t *testing.T) {
	rpt := prepareReport(t)
	rpt.Store("final.log", filepath.Join(t.TempDir(), "never-created.log"))
	rpt.StoreData("config/bix.yaml", []byte("version: 1\n"))

	parts := readReport(t, rpt)
	if _, ok := parts["final.log"]; ok {
		t.Error("vanished path must be skipped, not archived")
	}
	if _, ok := parts["config/bix.yaml"]; !ok {
		t.Error("data entry is missing from the archive")
	}
}
