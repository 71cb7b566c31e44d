package layout

// EntryStyle selects the typeface of the topic run. Locator and description
// runs inherit the backend default font.
type EntryStyle struct {
	TopicFontName   string
	TopicFontSizePt float64
}

// DefaultEntryStyle returns the typeface the original tool used.
func DefaultEntryStyle() EntryStyle {
	return EntryStyle{TopicFontName: "Times New Roman", TopicFontSizePt: 10}
}

// Render converts one entry into exactly three styled runs forming a single
// paragraph: bold topic, italic locator bracket and plain description. The
// paragraph terminator is a separate instruction issued by the caller, no
// run carries an embedded newline.
func Render(e Entry, style EntryStyle) []StyledRun {
	return []StyledRun{
		{
			Text:       e.Topic,
			Bold:       true,
			FontName:   style.TopicFontName,
			FontSizePt: style.TopicFontSizePt,
			Align:      AlignLeft,
		},
		{
			Text:   " [b" + e.Book + "/p" + e.Page + "]",
			Italic: true,
		},
		{
			Text: " " + e.Description,
		},
	}
}
