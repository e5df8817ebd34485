package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"claimsight/internal/contextutil"
	"claimsight/internal/storage"
)

// DocumentsHandler handles HTTP requests over the documents table.
type DocumentsHandler struct {
	documents storage.DocumentStore
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(documents storage.DocumentStore) *DocumentsHandler {
	return &DocumentsHandler{documents: documents}
}

// DocumentResponse is the JSON shape of a document record.
type DocumentResponse struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	FilePath    string  `json:"file_path,omitempty"`
	FileSize    int64   `json:"file_size"`
	Status      string  `json:"status"`
	Summary     string  `json:"summary,omitempty"`
	UploadedAt  string  `json:"uploaded_at"`
	ProcessedAt *string `json:"processed_at"`
}

func documentResponse(doc *storage.Document) DocumentResponse {
	resp := DocumentResponse{
		ID:         doc.ID,
		Name:       doc.Name,
		FilePath:   doc.FilePath,
		FileSize:   doc.FileSize,
		Status:     doc.Status,
		Summary:    doc.Summary,
		UploadedAt: doc.UploadedAt.UTC().Format(time.RFC3339),
	}
	if doc.ProcessedAt != nil {
		s := doc.ProcessedAt.UTC().Format(time.RFC3339)
		resp.ProcessedAt = &s
	}
	return resp
}

// DocumentRequest is the payload for creating or updating a document record.
type DocumentRequest struct {
	Name    string `json:"name"`
	Status  string `json:"status,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// List returns all documents, newest first.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	docs, err := h.documents.ListAll(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list documents", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to list documents")
		return
	}

	responses := make([]DocumentResponse, len(docs))
	for i, doc := range docs {
		responses[i] = documentResponse(doc)
	}
	writeJSON(w, r, http.StatusOK, responses)
}

// Get returns one document by id.
func (h *DocumentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id, ok := documentID(w, r)
	if !ok {
		return
	}

	doc, err := h.documents.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		logger.ErrorContext(ctx, "failed to get document", "doc_id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to get document")
		return
	}
	writeJSON(w, r, http.StatusOK, documentResponse(doc))
}

// Create inserts a document record without content. Records for ingested
// documents are created by the ingest endpoint instead.
func (h *DocumentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req DocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}

	doc, err := h.documents.Create(ctx, &storage.Document{
		Name:    strings.TrimSpace(req.Name),
		Status:  req.Status,
		Summary: req.Summary,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to create document", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to create document")
		return
	}
	writeJSON(w, r, http.StatusCreated, documentResponse(doc))
}

// Update applies name/status/summary changes to a document.
func (h *DocumentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id, ok := documentID(w, r)
	if !ok {
		return
	}

	var req DocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	doc, err := h.documents.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		logger.ErrorContext(ctx, "failed to get document", "doc_id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to update document")
		return
	}

	if strings.TrimSpace(req.Name) != "" {
		doc.Name = strings.TrimSpace(req.Name)
	}
	if req.Status != "" {
		doc.Status = req.Status
	}
	if req.Summary != "" {
		doc.Summary = req.Summary
	}

	if err := h.documents.Update(ctx, doc); err != nil {
		logger.ErrorContext(ctx, "failed to update document", "doc_id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to update document")
		return
	}
	writeJSON(w, r, http.StatusOK, documentResponse(doc))
}

// Delete removes a document record.
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id, ok := documentID(w, r)
	if !ok {
		return
	}

	err := h.documents.Delete(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete document", "doc_id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to delete document")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// documentID parses the {id} route parameter, replying 400 on garbage.
func documentID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusBadRequest, "invalid document id")
		return 0, false
	}
	return id, true
}
