package ingest

// Page is one page of extracted document text. Number is nil for sources
// without page structure (e.g. markdown).
type Page struct {
	Number *int
	Text   string
}

// Passage is one overlapping chunk of document text with its provenance
// metadata. Index is the ordinal position within the whole document.
type Passage struct {
	Index       int
	Text        string
	PageNumber  *int
	SectionName string
}
