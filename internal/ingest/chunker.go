package ingest

import "strings"

const (
	chunkSize    = 1000 // Max runes per passage
	chunkOverlap = 150  // Runes shared between consecutive passages
)

// ChunkPages splits paged document text into overlapping passages.
// Pages are processed in order and passage indices run across the whole
// document. Empty pages contribute no passages; an empty document yields nil.
func ChunkPages(pages []Page) []Passage {
	var passages []Passage
	for _, page := range pages {
		for _, text := range splitText(page.Text) {
			passages = append(passages, Passage{
				Index:      len(passages),
				Text:       text,
				PageNumber: page.Number,
			})
		}
	}
	return passages
}

// splitText splits text into chunks of at most chunkSize runes with
// chunkOverlap runes shared between consecutive chunks. Split points prefer
// paragraph boundaries, then line boundaries, then spaces, and fall back to a
// hard cut when the window contains no separator.
func splitText(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		window := string(runes[start:end])
		cut := end
		if b := strings.LastIndex(window, "\n\n"); b > 0 {
			cut = start + len([]rune(window[:b])) + 2
		} else if b := strings.LastIndex(window, "\n"); b > 0 {
			cut = start + len([]rune(window[:b])) + 1
		} else if b := strings.LastIndex(window, " "); b > 0 {
			cut = start + len([]rune(window[:b])) + 1
		}

		chunks = append(chunks, string(runes[start:cut]))

		next := cut - chunkOverlap
		if next <= start {
			// Overlap would stall progress on a short cut; skip it.
			next = cut
		}
		start = next
	}
	return chunks
}
