package rag

import (
	"context"
	"fmt"
	"strings"

	"claimsight/internal/vectorstore"
)

// contextSeparator joins stitched passages into one evidence context while
// keeping a visible boundary between them.
const contextSeparator = "\n\n---\n\n"

const snippetLimit = 300

// fallbackDetailLabel labels a reference detail whose passage carries no
// section or page metadata.
const fallbackDetailLabel = "Relevant excerpt"

// Assembled is the output of context assembly for one retrieval result set.
type Assembled struct {
	Context          string
	ReferenceLabels  []string
	ReferenceDetails []ReferenceDetail
}

// Assembler turns a ranked retrieval result set into a single evidence
// context plus metadata-derived reference labels and details.
type Assembler struct {
	stitcher *Stitcher
}

// NewAssembler creates a new assembler using the given stitcher.
func NewAssembler(stitcher *Stitcher) *Assembler {
	return &Assembler{stitcher: stitcher}
}

// Build assembles the evidence context in rank order. Every passage
// contributes to the context even when its metadata yields no reference
// label; labels and details are deduplicated keeping the first occurrence.
func (a *Assembler) Build(ctx context.Context, results []vectorstore.SearchResult) Assembled {
	parts := make([]string, 0, len(results))
	labels := make([]string, 0, len(results))
	details := make([]ReferenceDetail, 0, len(results))
	seenLabels := make(map[string]struct{})
	seenDetails := make(map[string]struct{})

	for _, result := range results {
		text := a.stitcher.StitchNext(ctx, result.ID, result.Text)
		parts = append(parts, text)

		section := metaString(result.Meta, "section_name")
		page, hasPage := metaInt(result.Meta, "page_number")

		if label := referenceLabel(section, page, hasPage); label != "" {
			if _, ok := seenLabels[label]; !ok {
				seenLabels[label] = struct{}{}
				labels = append(labels, label)
			}
		}

		detail := ReferenceDetail{
			Label:   detailLabel(section, page, hasPage),
			Snippet: snippet(text),
		}
		if _, ok := seenDetails[detail.Label]; !ok {
			seenDetails[detail.Label] = struct{}{}
			details = append(details, detail)
		}
	}

	return Assembled{
		Context:          strings.Join(parts, contextSeparator),
		ReferenceLabels:  labels,
		ReferenceDetails: details,
	}
}

// referenceLabel derives the reference string from passage metadata,
// degrading to whichever field is present. Both absent yields "".
func referenceLabel(section string, page int, hasPage bool) string {
	switch {
	case section != "" && hasPage:
		return fmt.Sprintf("Section: %s, Page: %d", section, page)
	case section != "":
		return fmt.Sprintf("Section: %s", section)
	case hasPage:
		return fmt.Sprintf("Page: %d", page)
	default:
		return ""
	}
}

// detailLabel derives the display label for a reference detail.
func detailLabel(section string, page int, hasPage bool) string {
	switch {
	case section != "" && hasPage:
		return fmt.Sprintf("%s (Page %d)", section, page)
	case section != "":
		return section
	case hasPage:
		return fmt.Sprintf("Page %d", page)
	default:
		return fallbackDetailLabel
	}
}

// snippet truncates passage text to a short excerpt. Text over the limit is
// cut at the last sentence end inside the limit when one exists, otherwise
// hard-cut; truncated excerpts are always ellipsis-suffixed.
func snippet(text string) string {
	trimmed := strings.TrimSpace(text)
	runes := []rune(trimmed)
	if len(runes) <= snippetLimit {
		return trimmed
	}
	window := runes[:snippetLimit]
	if cut := lastSentenceEnd(window); cut > 0 {
		return strings.TrimSpace(string(window[:cut+1])) + "…"
	}
	return strings.TrimSpace(string(window)) + "…"
}

// lastSentenceEnd returns the index of the last sentence-final punctuation
// rune, or -1.
func lastSentenceEnd(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		switch runes[i] {
		case '.', '!', '?':
			return i
		}
	}
	return -1
}

// metaString reads an optional string metadata value.
func metaString(meta map[string]any, key string) string {
	if meta == nil {
		return ""
	}
	if s, ok := meta[key].(string); ok {
		return s
	}
	return ""
}

// metaInt reads an optional integer metadata value. The vector index hands
// integers back as int64 and JSON transports as float64, so all three
// representations are accepted.
func metaInt(meta map[string]any, key string) (int, bool) {
	if meta == nil {
		return 0, false
	}
	switch v := meta[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
