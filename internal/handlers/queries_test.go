package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"claimsight/internal/storage"
	"claimsight/internal/storage/mocks"
)

func newQueriesRouter(h *QueriesHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/queries", h.List)
	r.Get("/api/documents/{id}/queries", h.ByDocument)
	return r
}

func TestQueriesHandler(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	amount := "500"

	t.Run("list recent with default limit", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockQueryStore(ctrl)
		store.EXPECT().ListRecent(gomock.Any(), defaultQueryLimit).Return([]*storage.QueryLog{
			{ID: 2, Query: "is surgery covered?", Decision: "approved", Amount: &amount,
				ReferenceClauses: []string{"Clause 9"}, Timestamp: ts},
			{ID: 1, Query: "is dental covered?", Decision: "rejected", Timestamp: ts},
		}, nil)

		router := newQueriesRouter(NewQueriesHandler(store))
		req := httptest.NewRequest(http.MethodGet, "/api/queries", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %v", w.Code)
		}
		var entries []QueryLogResponse
		if err := json.NewDecoder(w.Body).Decode(&entries); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(entries) != 2 || entries[0].ID != 2 {
			t.Errorf("entries = %+v", entries)
		}
		if entries[0].Amount == nil || *entries[0].Amount != "500" {
			t.Errorf("amount = %v", entries[0].Amount)
		}
		if entries[1].ReferenceClauses == nil {
			t.Error("reference_clauses should serialize as an empty list, not null")
		}
	})

	t.Run("explicit limit", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockQueryStore(ctrl)
		store.EXPECT().ListRecent(gomock.Any(), 5).Return(nil, nil)

		router := newQueriesRouter(NewQueriesHandler(store))
		req := httptest.NewRequest(http.MethodGet, "/api/queries?limit=5", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("status = %v", w.Code)
		}
	})

	t.Run("invalid limit", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		router := newQueriesRouter(NewQueriesHandler(mocks.NewMockQueryStore(ctrl)))

		req := httptest.NewRequest(http.MethodGet, "/api/queries?limit=zero", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %v, want %v", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("by document", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockQueryStore(ctrl)
		docID := 3
		store.EXPECT().ListByDocument(gomock.Any(), 3).Return([]*storage.QueryLog{
			{ID: 7, DocumentID: &docID, Query: "is surgery covered?", Decision: "approved", Timestamp: ts},
		}, nil)

		router := newQueriesRouter(NewQueriesHandler(store))
		req := httptest.NewRequest(http.MethodGet, "/api/documents/3/queries", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %v", w.Code)
		}
		var entries []QueryLogResponse
		if err := json.NewDecoder(w.Body).Decode(&entries); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(entries) != 1 || entries[0].DocumentID == nil || *entries[0].DocumentID != 3 {
			t.Errorf("entries = %+v", entries)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockQueryStore(ctrl)
		store.EXPECT().ListRecent(gomock.Any(), gomock.Any()).Return(nil, errors.New("database locked"))

		router := newQueriesRouter(NewQueriesHandler(store))
		req := httptest.NewRequest(http.MethodGet, "/api/queries", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("status = %v, want %v", w.Code, http.StatusInternalServerError)
		}
	})
}
