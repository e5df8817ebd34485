package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"claimsight/internal/ingest"
	"claimsight/internal/storage"
	"claimsight/internal/storage/mocks"
)

type stubIngestor struct {
	summary *ingest.Summary
	err     error
	pages   []ingest.Page
}

func (s *stubIngestor) IngestDocument(_ context.Context, docID int, pages []ingest.Page) (*ingest.Summary, error) {
	s.pages = pages
	if s.err != nil {
		return nil, s.err
	}
	if s.summary != nil {
		return s.summary, nil
	}
	return &ingest.Summary{DocumentID: docID, ChunkCount: len(pages)}, nil
}

func TestIngestHandler(t *testing.T) {
	newDoc := func(id int) *storage.Document {
		return &storage.Document{ID: id, Name: "policy.pdf", Status: storage.StatusProcessing}
	}

	t.Run("ingests pages and completes the document", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		documents := mocks.NewMockDocumentStore(ctrl)
		documents.EXPECT().Create(gomock.Any(), gomock.Any()).Return(newDoc(5), nil)
		documents.EXPECT().UpdateStatus(gomock.Any(), 5, storage.StatusCompleted, gomock.Not(gomock.Nil())).Return(nil)

		ingestor := &stubIngestor{}
		handler := NewIngestHandler(documents, ingestor)

		body := `{"name": "policy.pdf", "pages": [{"page_number": 1, "text": "Waiting Period: 12 months."}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/ingest", strings.NewReader(body))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("status = %v, want %v, body %s", w.Code, http.StatusCreated, w.Body.String())
		}

		var resp IngestResponse
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.DocumentID != 5 || resp.Status != storage.StatusCompleted || resp.ChunkCount != 1 {
			t.Errorf("response = %+v", resp)
		}
		if len(ingestor.pages) != 1 || ingestor.pages[0].Number == nil || *ingestor.pages[0].Number != 1 {
			t.Errorf("ingestor pages = %+v", ingestor.pages)
		}
	})

	t.Run("ingests markdown content", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		documents := mocks.NewMockDocumentStore(ctrl)
		documents.EXPECT().Create(gomock.Any(), gomock.Any()).Return(newDoc(6), nil)
		documents.EXPECT().UpdateStatus(gomock.Any(), 6, storage.StatusCompleted, gomock.Any()).Return(nil)

		ingestor := &stubIngestor{}
		handler := NewIngestHandler(documents, ingestor)

		body := `{"name": "terms.md", "markdown": "## Exclusions\n\nCosmetic procedures are not covered."}`
		req := httptest.NewRequest(http.MethodPost, "/api/ingest", strings.NewReader(body))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("status = %v, body %s", w.Code, w.Body.String())
		}
		if len(ingestor.pages) != 1 {
			t.Fatalf("expected 1 extracted page, got %d", len(ingestor.pages))
		}
		if ingestor.pages[0].Number != nil {
			t.Error("markdown pages should carry no page number")
		}
		if !strings.Contains(ingestor.pages[0].Text, "Exclusions") {
			t.Errorf("extracted text = %q", ingestor.pages[0].Text)
		}
	})

	t.Run("pipeline failure marks the document failed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		documents := mocks.NewMockDocumentStore(ctrl)
		documents.EXPECT().Create(gomock.Any(), gomock.Any()).Return(newDoc(7), nil)
		documents.EXPECT().UpdateStatus(gomock.Any(), 7, storage.StatusFailed, gomock.Nil()).Return(nil)

		ingestor := &stubIngestor{err: errors.New("embedding service down")}
		handler := NewIngestHandler(documents, ingestor)

		body := `{"name": "policy.pdf", "pages": [{"text": "some text"}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/ingest", strings.NewReader(body))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("status = %v, want %v", w.Code, http.StatusInternalServerError)
		}
	})

	t.Run("validation failures", func(t *testing.T) {
		tests := []struct {
			name string
			body string
		}{
			{"invalid JSON", `{not json`},
			{"missing name", `{"pages": [{"text": "x"}]}`},
			{"no content", `{"name": "policy.pdf"}`},
			{"both pages and markdown", `{"name": "p", "pages": [{"text": "x"}], "markdown": "y"}`},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				ctrl := gomock.NewController(t)
				handler := NewIngestHandler(mocks.NewMockDocumentStore(ctrl), &stubIngestor{})

				req := httptest.NewRequest(http.MethodPost, "/api/ingest", strings.NewReader(tt.body))
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, req)

				if w.Code != http.StatusBadRequest {
					t.Errorf("status = %v, want %v", w.Code, http.StatusBadRequest)
				}
			})
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		handler := NewIngestHandler(mocks.NewMockDocumentStore(ctrl), &stubIngestor{})

		req := httptest.NewRequest(http.MethodGet, "/api/ingest", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %v, want %v", w.Code, http.StatusMethodNotAllowed)
		}
	})
}
