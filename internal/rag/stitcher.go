package rag

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"claimsight/internal/vectorstore"
)

var (
	sentenceEndPattern = regexp.MustCompile(`[.!?]\s*$`)
	chunkIndexPattern  = regexp.MustCompile(`_chunk_(\d+)$`)
)

// endsMidSentence reports whether the passage text stops without
// sentence-final punctuation, ignoring trailing whitespace.
func endsMidSentence(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	return !sentenceEndPattern.MatchString(trimmed)
}

// nextChunkID rewrites the trailing _chunk_{N} suffix of a passage id to
// _chunk_{N+1}. The shared prefix carries the document id and ingestion
// epoch, so the rewritten id can never point into another document.
func nextChunkID(id string) (string, bool) {
	m := chunkIndexPattern.FindStringSubmatch(id)
	if m == nil {
		return "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return "", false
	}
	return id[:len(id)-len(m[0])] + fmt.Sprintf("_chunk_%d", n+1), true
}

// Stitcher completes passages that were cut off mid-sentence by appending the
// adjacent passage from the vector index.
type Stitcher struct {
	store      vectorstore.VectorStore
	collection string
}

// NewStitcher creates a new stitcher over the given collection.
func NewStitcher(store vectorstore.VectorStore, collection string) *Stitcher {
	return &Stitcher{store: store, collection: collection}
}

// StitchNext returns the passage text, extended with the next adjacent
// passage when the text ends mid-sentence. Stitching is best-effort: an
// unparsable id, a fetch miss or a fetch error all leave the original text
// unmodified.
func (s *Stitcher) StitchNext(ctx context.Context, id, text string) string {
	if !endsMidSentence(text) {
		return text
	}
	nextID, ok := nextChunkID(id)
	if !ok {
		return text
	}
	results, err := s.store.Fetch(ctx, s.collection, []string{nextID})
	if err != nil || len(results) == 0 || results[0].Text == "" {
		return text
	}
	return text + "\n" + results[0].Text
}
