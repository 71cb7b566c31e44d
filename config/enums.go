package config

//go:generate go-enum --marshal --names

// Specification of requested output type.
// ENUM(pdf, docx)
type OutputFmt int

func (o OutputFmt) Ext() string {
	switch o {
	case OutputFmtPdf:
		return ".pdf"
	case OutputFmtDocx:
		return ".docx"
	default:
		// this should never happen
		panic("unsupported format requested")
	}
}
