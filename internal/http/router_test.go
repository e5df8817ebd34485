package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	"claimsight/internal/ingest"
	"claimsight/internal/llm"
	"claimsight/internal/rag"
	storagemocks "claimsight/internal/storage/mocks"
	"claimsight/internal/vectorstore/mocks"
)

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(context.Context, string) *rag.Decision {
	return &rag.Decision{
		Decision:         rag.DecisionNoData,
		Justification:    "no documents",
		ReferenceClauses: []string{},
		ReferenceDetails: []rag.ReferenceDetail{},
	}
}

type stubIngestor struct{}

func (stubIngestor) IngestDocument(_ context.Context, docID int, _ []ingest.Page) (*ingest.Summary, error) {
	return &ingest.Summary{DocumentID: docID}, nil
}

type stubModeReporter struct{ mode llm.Mode }

func (s stubModeReporter) Mode() llm.Mode { return s.mode }

func newTestRouter(t *testing.T) http.Handler {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockVectorStore(ctrl)
	store.EXPECT().Count(gomock.Any(), "policies").Return(0, nil).AnyTimes()

	documents := storagemocks.NewMockDocumentStore(ctrl)
	documents.EXPECT().ListAll(gomock.Any()).Return(nil, nil).AnyTimes()

	queries := storagemocks.NewMockQueryStore(ctrl)
	queries.EXPECT().ListRecent(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	return NewRouter(&Deps{
		Documents:   documents,
		Queries:     queries,
		Analyzer:    stubAnalyzer{},
		Ingestor:    stubIngestor{},
		VectorStore: store,
		Generator:   stubModeReporter{mode: llm.ModeLive},
		Collection:  "policies",
	})
}

func TestRouterRoutes(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"health", http.MethodGet, "/api/health", http.StatusOK},
		{"query without parameter", http.MethodGet, "/api/query", http.StatusBadRequest},
		{"query", http.MethodGet, "/api/query?query=is+surgery+covered", http.StatusOK},
		{"documents list", http.MethodGet, "/api/documents", http.StatusOK},
		{"queries list", http.MethodGet, "/api/queries", http.StatusOK},
		{"report", http.MethodGet, "/api/report", http.StatusOK},
		{"ingest rejects GET", http.MethodGet, "/api/ingest", http.StatusMethodNotAllowed},
		{"unknown route", http.MethodGet, "/api/unknown", http.StatusNotFound},
		{"invalid document id", http.MethodGet, "/api/documents/abc", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("%s %s status = %v, want %v", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouterCORSHeaders(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/query", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %v, want %v", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
}
