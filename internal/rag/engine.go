package rag

import (
	"context"
	"fmt"

	"claimsight/internal/contextutil"
	"claimsight/internal/storage"
	"claimsight/internal/vectorstore"
)

// Embedder generates embedding vectors for texts.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces a free-form text completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

const analysisPrompt = `You are an insurance policy analyst. Decide whether the claim described in the question is covered, using only the policy excerpts provided.

Question: %s

Policy excerpts:
%s

Respond with a single JSON object and nothing else, in this exact shape:
{"decision": "approved" or "rejected" or "uncertain", "amount": number or null, "justification": "short explanation grounded in the excerpts", "reference_clauses": ["clause or section labels you relied on"]}`

const (
	noDataJustification  = "No policy documents have been ingested yet. Upload a document before querying."
	noMatchJustification = "No relevant policy clauses were found for this query."
)

// Engine runs the full claim-analysis pipeline for one query: retrieval,
// context assembly, decision extraction and clause location. Every failure
// along the way is converted into a well-formed Decision; Analyze never
// returns an error.
type Engine struct {
	embedder   Embedder
	generator  Generator
	store      vectorstore.VectorStore
	queries    storage.QueryStore
	assembler  *Assembler
	collection string
	topK       int
}

// NewEngine creates a new analysis engine.
func NewEngine(embedder Embedder, generator Generator, store vectorstore.VectorStore, queries storage.QueryStore, collection string, topK int) *Engine {
	return &Engine{
		embedder:   embedder,
		generator:  generator,
		store:      store,
		queries:    queries,
		assembler:  NewAssembler(NewStitcher(store, collection)),
		collection: collection,
		topK:       topK,
	}
}

// Analyze answers a natural-language claim question against the ingested
// corpus. The returned decision is also appended to the query log; logging
// failures are reported but never change the decision.
func (e *Engine) Analyze(ctx context.Context, query string) *Decision {
	logger := contextutil.LoggerFromContext(ctx)

	count, err := e.store.Count(ctx, e.collection)
	if err != nil {
		return e.finish(ctx, query, errorDecision(err), nil, "", "")
	}
	if count == 0 {
		return e.finish(ctx, query, terminalDecision(DecisionNoData, noDataJustification), nil, "", "")
	}

	vectors, err := e.embedder.EmbedTexts(ctx, []string{query})
	if err != nil || len(vectors) == 0 {
		if err == nil {
			err = fmt.Errorf("embedding service returned no vector")
		}
		return e.finish(ctx, query, errorDecision(err), nil, "", "")
	}

	results, err := e.store.Search(ctx, e.collection, vectors[0], e.topK)
	if err != nil {
		return e.finish(ctx, query, errorDecision(err), nil, "", "")
	}
	if len(results) == 0 {
		return e.finish(ctx, query, terminalDecision(DecisionNoMatch, noMatchJustification), nil, "", "")
	}

	docID := dominantDocID(results)
	assembled := e.assembler.Build(ctx, results)
	logger.InfoContext(ctx, "evidence context assembled",
		"passages", len(results), "references", len(assembled.ReferenceLabels))

	raw, err := e.generator.Generate(ctx, fmt.Sprintf(analysisPrompt, query, assembled.Context))
	if err != nil {
		return e.finish(ctx, query, errorDecision(err), docID, assembled.Context, "")
	}

	decision := ParseDecision(raw, assembled.ReferenceLabels)
	located := LocateClauses(decision.ReferenceClauses, assembled.Context)
	decision.ReferenceDetails = MergeDetails(located, assembled.ReferenceDetails)

	return e.finish(ctx, query, decision, docID, assembled.Context, raw)
}

// dominantDocID picks the document most of the retrieved passages came from,
// so the query lands in that document's history. Ties go to the better-ranked
// document. Nil when no passage carries a doc_id.
func dominantDocID(results []vectorstore.SearchResult) *int {
	counts := make(map[int]int)
	order := make([]int, 0, len(results))
	for _, result := range results {
		id, ok := metaInt(result.Meta, "doc_id")
		if !ok {
			continue
		}
		if counts[id] == 0 {
			order = append(order, id)
		}
		counts[id]++
	}

	var best *int
	bestCount := 0
	for _, id := range order {
		if counts[id] > bestCount {
			id := id
			best = &id
			bestCount = counts[id]
		}
	}
	return best
}

// finish persists the decision to the query log, best-effort, and returns it.
func (e *Engine) finish(ctx context.Context, query string, decision *Decision, docID *int, rawContext, rawResponse string) *Decision {
	logger := contextutil.LoggerFromContext(ctx)

	entry := &storage.QueryLog{
		DocumentID:       docID,
		Query:            query,
		Decision:         decision.Decision,
		Amount:           decision.Amount,
		Justification:    decision.Justification,
		ReferenceClauses: decision.ReferenceClauses,
		RawContext:       rawContext,
		RawResponse:      rawResponse,
	}
	if _, err := e.queries.Insert(ctx, entry); err != nil {
		logger.ErrorContext(ctx, "failed to record query", "error", err)
	}
	return decision
}

func terminalDecision(kind, justification string) *Decision {
	return &Decision{
		Decision:         kind,
		Justification:    justification,
		ReferenceClauses: []string{},
		ReferenceDetails: []ReferenceDetail{},
	}
}

func errorDecision(cause error) *Decision {
	return &Decision{
		Decision:         DecisionError,
		Justification:    fmt.Sprintf("Analysis failed: %v", cause),
		ReferenceClauses: []string{},
		ReferenceDetails: []ReferenceDetail{},
	}
}
