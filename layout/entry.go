package layout

import (
	"errors"
	"strings"
)

// ErrEmptyTopic is returned by Normalize when a record topic is empty or all
// whitespace. Reading the leading character of such a topic would be
// undefined, so the record is rejected before any backend command is issued
// for it.
var ErrEmptyTopic = errors.New("record has empty topic")

// Raw is an index record as supplied by the input provider. No guarantees
// beyond fields being renderable as text.
type Raw struct {
	Topic       string
	Description string
	Page        string
	Book        string
}

// Entry is a canonical index record: topic is non-empty with surrounding
// whitespace stripped. Immutable once constructed.
type Entry struct {
	Topic       string
	Description string
	Page        string
	Book        string
}

// Normalize validates and trims a raw record. Only the topic is trimmed,
// description, page and book pass through verbatim.
func Normalize(raw Raw) (Entry, error) {
	topic := strings.TrimSpace(raw.Topic)
	if topic == "" {
		return Entry{}, ErrEmptyTopic
	}
	return Entry{
		Topic:       topic,
		Description: raw.Description,
		Page:        raw.Page,
		Book:        raw.Book,
	}, nil
}
