package ingest

import (
	"context"
	"fmt"
	"time"

	"claimsight/internal/contextutil"
	"claimsight/internal/vectorstore"
)

// Embedder generates embedding vectors for texts. Implemented by
// llm.EmbeddingsClient.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Summary reports the outcome of ingesting one document.
type Summary struct {
	DocumentID int
	ChunkCount int
	Passages   []Passage
}

// Pipeline chunks document text, attaches provenance metadata, embeds the
// passages and stores them in the vector index.
type Pipeline struct {
	embedder   Embedder
	store      vectorstore.VectorStore
	collection string
	now        func() time.Time
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(embedder Embedder, store vectorstore.VectorStore, collection string) *Pipeline {
	return &Pipeline{
		embedder:   embedder,
		store:      store,
		collection: collection,
		now:        time.Now,
	}
}

// IngestDocument chunks the given pages, embeds every passage and upserts the
// result into the vector index under ids of the form
// doc{docID}_{epoch}_chunk_{index}. The epoch component keeps ids unique
// across re-ingestions of the same document.
//
// An empty document produces zero passages and is not an error.
func (p *Pipeline) IngestDocument(ctx context.Context, docID int, pages []Page) (*Summary, error) {
	logger := contextutil.LoggerFromContext(ctx)

	passages := ChunkPages(pages)
	for i := range passages {
		passages[i].SectionName = GuessSectionName(passages[i].Text)
	}

	if len(passages) == 0 {
		logger.InfoContext(ctx, "document produced no passages", "doc_id", docID)
		return &Summary{DocumentID: docID}, nil
	}

	texts := make([]string, len(passages))
	for i, passage := range passages {
		texts[i] = passage.Text
	}

	embeddings, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed passages: %w", err)
	}
	if len(embeddings) != len(passages) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(passages), len(embeddings))
	}

	prefix := fmt.Sprintf("doc%d_%d", docID, p.now().UTC().Unix())
	points := make([]vectorstore.Point, len(passages))
	for i, passage := range passages {
		points[i] = vectorstore.Point{
			ID:   fmt.Sprintf("%s_chunk_%d", prefix, passage.Index),
			Vec:  embeddings[i],
			Text: passage.Text,
			Meta: passageMeta(docID, passage),
		}
	}

	if err := p.store.Upsert(ctx, p.collection, points); err != nil {
		return nil, fmt.Errorf("failed to store passages: %w", err)
	}

	logger.InfoContext(ctx, "document ingested", "doc_id", docID, "chunks", len(passages))
	return &Summary{
		DocumentID: docID,
		ChunkCount: len(passages),
		Passages:   passages,
	}, nil
}

// passageMeta builds the metadata map for a passage. Absent optional fields
// are omitted entirely; the index rejects null-valued metadata.
func passageMeta(docID int, passage Passage) map[string]any {
	meta := map[string]any{
		"doc_id":      docID,
		"chunk_index": passage.Index,
	}
	if passage.PageNumber != nil {
		meta["page_number"] = *passage.PageNumber
	}
	if passage.SectionName != "" {
		meta["section_name"] = passage.SectionName
	}
	return meta
}
