package debug

import "testing"

func TestTreeWriterLine(t *testing.T) {
	tw := NewTreeWriter()
	if tw.String() != "" {
		t.Error("fresh writer is not empty")
	}

	tw.Line(0, "emit runs=%d paragraph=%t", 3, true)
	tw.Line(1, "page count: %d", 4)
	tw.Line(2, "nested")

	want := "emit runs=3 paragraph=true\n  page count: 4\n    nested\n"
	if got := tw.String(); got != want {
		t.Errorf("dump = %q, want %q", got, want)
	}
}

func TestTreeWriterTextBlock(t *testing.T) {
	tests := []struct {
		name  string
		label string
		value string
		want  string
	}{
		{"plain", "run bold", "GIAC", "run bold: \"GIAC\"\n"},
		{"escaped", "run", "a\tb\nc", "run: \"a\\tb\\nc\"\n"},
		{"empty value stays bare", "run", "", "run: \n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tw.TextBlock(0, tc.label, tc.value)
			if got := tw.String(); got != tc.want {
				t.Errorf("dump = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTreeWriterPreservesOrder(t *testing.T) {
	tw := NewTreeWriter()
	tw.Line(0, "first")
	tw.TextBlock(1, "second", "value")
	tw.Line(0, "third")

	want := "first\n  second: \"value\"\nthird\n"
	if got := tw.String(); got != want {
		t.Errorf("dump = %q, want %q", got, want)
	}
}
