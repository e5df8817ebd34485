package rag

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"claimsight/internal/storage"
	"claimsight/internal/vectorstore"
	"claimsight/internal/vectorstore/mocks"
)

type stubEmbedder struct {
	vec []float32
	err error
}

func (s *stubEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vec
	}
	return out, nil
}

type stubGenerator struct {
	response string
	err      error
	prompts  []string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

type recordingQueryStore struct {
	entries   []*storage.QueryLog
	insertErr error
}

func (r *recordingQueryStore) Insert(_ context.Context, entry *storage.QueryLog) (*storage.QueryLog, error) {
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	r.entries = append(r.entries, entry)
	return entry, nil
}

func (r *recordingQueryStore) ListRecent(context.Context, int) ([]*storage.QueryLog, error) {
	return nil, nil
}

func (r *recordingQueryStore) ListByDocument(context.Context, int) ([]*storage.QueryLog, error) {
	return nil, nil
}

func TestEngineAnalyze(t *testing.T) {
	ctx := context.Background()
	embedder := func() *stubEmbedder { return &stubEmbedder{vec: []float32{0.1, 0.2, 0.3}} }

	t.Run("empty index is a no_data terminal", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockVectorStore(ctrl)
		store.EXPECT().Count(gomock.Any(), "policies").Return(0, nil)

		queries := &recordingQueryStore{}
		e := NewEngine(embedder(), &stubGenerator{}, store, queries, "policies", 8)

		d := e.Analyze(ctx, "is dental surgery covered?")
		if d.Decision != DecisionNoData {
			t.Errorf("decision = %q, want no_data", d.Decision)
		}
		if len(d.ReferenceClauses) != 0 {
			t.Errorf("reference_clauses = %v, want empty", d.ReferenceClauses)
		}
		if len(queries.entries) != 1 || queries.entries[0].Decision != DecisionNoData {
			t.Errorf("expected no_data query-log entry, got %+v", queries.entries)
		}
	})

	t.Run("zero retrieval matches is a no_match terminal", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockVectorStore(ctrl)
		store.EXPECT().Count(gomock.Any(), "policies").Return(12, nil)
		store.EXPECT().Search(gomock.Any(), "policies", gomock.Any(), 8).Return(nil, nil)

		e := NewEngine(embedder(), &stubGenerator{}, store, &recordingQueryStore{}, "policies", 8)

		d := e.Analyze(ctx, "is acupuncture covered?")
		if d.Decision != DecisionNoMatch {
			t.Errorf("decision = %q, want no_match", d.Decision)
		}
	})

	t.Run("model failure becomes an error decision", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockVectorStore(ctrl)
		store.EXPECT().Count(gomock.Any(), "policies").Return(12, nil)
		store.EXPECT().Search(gomock.Any(), "policies", gomock.Any(), 8).Return([]vectorstore.SearchResult{
			{ID: "doc1_1_chunk_0", Text: "Surgery is covered."},
		}, nil)

		gen := &stubGenerator{err: errors.New("model endpoint unreachable")}
		e := NewEngine(embedder(), gen, store, &recordingQueryStore{}, "policies", 8)

		d := e.Analyze(ctx, "is surgery covered?")
		if d.Decision != DecisionError {
			t.Errorf("decision = %q, want error", d.Decision)
		}
		if !strings.Contains(d.Justification, "Analysis failed:") {
			t.Errorf("justification = %q", d.Justification)
		}
	})

	t.Run("index failure becomes an error decision", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockVectorStore(ctrl)
		store.EXPECT().Count(gomock.Any(), "policies").Return(0, errors.New("index unavailable"))

		e := NewEngine(embedder(), &stubGenerator{}, store, &recordingQueryStore{}, "policies", 8)

		d := e.Analyze(ctx, "anything")
		if d.Decision != DecisionError {
			t.Errorf("decision = %q, want error", d.Decision)
		}
	})

	t.Run("unparsable model output degrades to uncertain with metadata references", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockVectorStore(ctrl)
		store.EXPECT().Count(gomock.Any(), "policies").Return(12, nil)
		store.EXPECT().Search(gomock.Any(), "policies", gomock.Any(), 8).Return([]vectorstore.SearchResult{
			{ID: "doc1_1_chunk_0", Text: "Surgery is covered.", Meta: map[string]any{"section_name": "Surgery", "page_number": int64(2)}},
		}, nil)

		gen := &stubGenerator{response: "I am unable to answer in the requested format."}
		e := NewEngine(embedder(), gen, store, &recordingQueryStore{}, "policies", 8)

		d := e.Analyze(ctx, "is surgery covered?")
		if d.Decision != DecisionUncertain {
			t.Errorf("decision = %q, want uncertain", d.Decision)
		}
		if len(d.ReferenceClauses) != 1 || d.ReferenceClauses[0] != "Section: Surgery, Page: 2" {
			t.Errorf("reference_clauses = %v", d.ReferenceClauses)
		}
	})

	t.Run("happy path merges clauses and persists the decision", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockVectorStore(ctrl)
		store.EXPECT().Count(gomock.Any(), "policies").Return(12, nil)
		store.EXPECT().Search(gomock.Any(), "policies", gomock.Any(), 8).Return([]vectorstore.SearchResult{
			{ID: "doc1_1_chunk_0", Text: "Surgery: In-patient surgery is covered up to 500 per year.", Meta: map[string]any{"section_name": "Surgery", "page_number": int64(2)}},
		}, nil)

		gen := &stubGenerator{response: `The claim is covered. {"decision":"approved","amount":500,"justification":"Surgery is covered.","reference_clauses":["Clause 9"]}`}
		queries := &recordingQueryStore{}
		e := NewEngine(embedder(), gen, store, queries, "policies", 8)

		d := e.Analyze(ctx, "is surgery covered?")
		if d.Decision != DecisionApproved {
			t.Errorf("decision = %q, want approved", d.Decision)
		}
		if d.Amount == nil || *d.Amount != "500" {
			t.Errorf("amount = %v, want \"500\"", d.Amount)
		}
		if len(d.ReferenceClauses) != 2 || d.ReferenceClauses[0] != "Clause 9" || d.ReferenceClauses[1] != "Section: Surgery, Page: 2" {
			t.Errorf("reference_clauses = %v", d.ReferenceClauses)
		}
		if len(d.ReferenceDetails) == 0 {
			t.Error("expected reference details")
		}

		if len(queries.entries) != 1 {
			t.Fatalf("expected 1 query-log entry, got %d", len(queries.entries))
		}
		entry := queries.entries[0]
		if entry.Query != "is surgery covered?" || entry.Decision != DecisionApproved {
			t.Errorf("logged entry = %+v", entry)
		}
		if entry.RawContext == "" || entry.RawResponse == "" {
			t.Error("expected raw context and raw response to be persisted")
		}

		if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "is surgery covered?") {
			t.Errorf("prompt missing question: %v", gen.prompts)
		}
		if !strings.Contains(gen.prompts[0], "In-patient surgery is covered") {
			t.Error("prompt missing evidence context")
		}
	})

	t.Run("query log carries the dominant document id", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockVectorStore(ctrl)
		store.EXPECT().Count(gomock.Any(), "policies").Return(12, nil)
		store.EXPECT().Search(gomock.Any(), "policies", gomock.Any(), 8).Return([]vectorstore.SearchResult{
			{ID: "doc7_1_chunk_0", Text: "Surgery is covered.", Meta: map[string]any{"doc_id": int64(7)}},
			{ID: "doc8_1_chunk_2", Text: "Exclusions apply.", Meta: map[string]any{"doc_id": int64(8)}},
			{ID: "doc7_1_chunk_4", Text: "Limits are annual.", Meta: map[string]any{"doc_id": int64(7)}},
		}, nil)

		gen := &stubGenerator{response: `{"decision":"approved","justification":"Covered."}`}
		queries := &recordingQueryStore{}
		e := NewEngine(embedder(), gen, store, queries, "policies", 8)

		e.Analyze(ctx, "is surgery covered?")
		if len(queries.entries) != 1 {
			t.Fatalf("expected 1 query-log entry, got %d", len(queries.entries))
		}
		if got := queries.entries[0].DocumentID; got == nil || *got != 7 {
			t.Errorf("document_id = %v, want 7", got)
		}
	})

	t.Run("analyzed query shows up in the document's history", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockVectorStore(ctrl)
		store.EXPECT().Count(gomock.Any(), "policies").Return(12, nil)
		store.EXPECT().Search(gomock.Any(), "policies", gomock.Any(), 8).Return([]vectorstore.SearchResult{
			{ID: "doc3_1_chunk_0", Text: "Surgery is covered.", Meta: map[string]any{"doc_id": int64(3)}},
		}, nil)

		db, err := storage.New(filepath.Join(t.TempDir(), "claims.db"))
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		t.Cleanup(func() { _ = db.Close() })
		if err := storage.Migrate(db); err != nil {
			t.Fatalf("failed to migrate: %v", err)
		}
		queries := storage.NewQueryRepo(db)

		gen := &stubGenerator{response: `{"decision":"approved","justification":"Covered."}`}
		e := NewEngine(embedder(), gen, store, queries, "policies", 8)

		d := e.Analyze(ctx, "is surgery covered?")
		if d.Decision != DecisionApproved {
			t.Fatalf("decision = %q, want approved", d.Decision)
		}

		entries, err := queries.ListByDocument(ctx, 3)
		if err != nil {
			t.Fatalf("ListByDocument() error = %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected 1 history entry for document 3, got %d", len(entries))
		}
		if entries[0].Query != "is surgery covered?" || entries[0].Decision != DecisionApproved {
			t.Errorf("history entry = %+v", entries[0])
		}
	})

	t.Run("query-log failure does not change the decision", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockVectorStore(ctrl)
		store.EXPECT().Count(gomock.Any(), "policies").Return(12, nil)
		store.EXPECT().Search(gomock.Any(), "policies", gomock.Any(), 8).Return([]vectorstore.SearchResult{
			{ID: "doc1_1_chunk_0", Text: "Surgery is covered."},
		}, nil)

		gen := &stubGenerator{response: `{"decision":"approved","justification":"Covered."}`}
		queries := &recordingQueryStore{insertErr: errors.New("database locked")}
		e := NewEngine(embedder(), gen, store, queries, "policies", 8)

		d := e.Analyze(ctx, "is surgery covered?")
		if d.Decision != DecisionApproved {
			t.Errorf("decision = %q, want approved", d.Decision)
		}
	})
}
