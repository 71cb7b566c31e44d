// Package records is the input provider for the layout engine: it reads raw
// index records from CSV sources, detects column headers, applies the
// requested character set and orders records by topic. The engine itself
// assumes a pre-sorted stream, ordering is this package's job.
package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"golang.org/x/text/encoding"

	"bix/layout"
)

// source column order: topic, description, page, book
const (
	colTopic = iota
	colDescription
	colPage
	colBook
	numCols
)

// Read parses CSV data into raw records. When enc is not nil source bytes
// are decoded from the requested character set first. A leading header row
// is dropped, short rows are an error naming the offending line, extra
// columns are tolerated.
func Read(r io.Reader, enc encoding.Encoding) ([]layout.Raw, error) {
	if enc != nil {
		r = enc.NewDecoder().Reader(r)
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // column count is validated here

	var out []layout.Raw
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed CSV: %w", err)
		}
		if len(rec) < numCols {
			return nil, fmt.Errorf("record at line %d has %d columns, need %d", line, len(rec), numCols)
		}
		out = append(out, layout.Raw{
			Topic:       rec[colTopic],
			Description: rec[colDescription],
			Page:        rec[colPage],
			Book:        rec[colBook],
		})
	}

	if len(out) > 0 && isHeader(out[0]) {
		out = out[1:]
	}
	return out, nil
}

// isHeader mirrors the heuristic of the original spreadsheet reader: a first
// row whose page column is not a number is a column header, real records
// carry numeric page references.
func isHeader(r layout.Raw) bool {
	page := strings.TrimSpace(r.Page)
	if page == "" {
		return false
	}
	for _, c := range page {
		if c < '0' || c > '9' {
			return true
		}
	}
	return false
}

// Sort orders records by topic ascending in natural order ("2y" sorts before
// "10x"), keeping input order for equal topics.
func Sort(recs []layout.Raw) {
	sort.SliceStable(recs, func(i, j int) bool {
		return natural.Less(recs[i].Topic, recs[j].Topic)
	})
}

// IsSorted reports whether records are already ordered by topic.
func IsSorted(recs []layout.Raw) bool {
	return sort.SliceIsSorted(recs, func(i, j int) bool {
		return natural.Less(recs[i].Topic, recs[j].Topic)
	})
}
