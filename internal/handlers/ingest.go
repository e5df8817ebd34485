package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"claimsight/internal/contextutil"
	"claimsight/internal/ingest"
	"claimsight/internal/storage"
)

// Ingestor chunks, embeds and indexes one document's pages.
// Implemented by ingest.Pipeline.
type Ingestor interface {
	IngestDocument(ctx context.Context, docID int, pages []ingest.Page) (*ingest.Summary, error)
}

// IngestHandler handles HTTP requests for document ingestion.
type IngestHandler struct {
	documents storage.DocumentStore
	ingestor  Ingestor
	markdown  *ingest.MarkdownExtractor
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(documents storage.DocumentStore, ingestor Ingestor) *IngestHandler {
	return &IngestHandler{
		documents: documents,
		ingestor:  ingestor,
		markdown:  ingest.NewMarkdownExtractor(),
	}
}

// IngestPage is one pre-extracted page of document text.
type IngestPage struct {
	PageNumber *int   `json:"page_number"`
	Text       string `json:"text"`
}

// IngestRequest is the request payload for document ingestion. Exactly one
// of Pages or Markdown must carry the document content.
type IngestRequest struct {
	Name     string       `json:"name"`
	Pages    []IngestPage `json:"pages,omitempty"`
	Markdown string       `json:"markdown,omitempty"`
}

// IngestResponse reports the outcome of an ingestion.
type IngestResponse struct {
	DocumentID int    `json:"document_id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	ChunkCount int    `json:"chunk_count"`
}

// ServeHTTP ingests a document. A document record is created in processing
// state first, then flipped to completed or failed once the pipeline ran, so
// partial failures remain visible in the document list.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}
	if len(req.Pages) == 0 && strings.TrimSpace(req.Markdown) == "" {
		writeError(w, r, http.StatusBadRequest, "either pages or markdown content is required")
		return
	}
	if len(req.Pages) > 0 && strings.TrimSpace(req.Markdown) != "" {
		writeError(w, r, http.StatusBadRequest, "pages and markdown are mutually exclusive")
		return
	}

	pages := h.pagesFromRequest(req)

	doc, err := h.documents.Create(ctx, &storage.Document{
		Name:     req.Name,
		FileSize: contentSize(req),
		Status:   storage.StatusProcessing,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to create document record", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to create document record")
		return
	}

	summary, err := h.ingestor.IngestDocument(ctx, doc.ID, pages)
	if err != nil {
		logger.ErrorContext(ctx, "ingestion failed", "doc_id", doc.ID, "error", err)
		if updateErr := h.documents.UpdateStatus(ctx, doc.ID, storage.StatusFailed, nil); updateErr != nil {
			logger.ErrorContext(ctx, "failed to mark document failed", "doc_id", doc.ID, "error", updateErr)
		}
		writeError(w, r, http.StatusInternalServerError, "document ingestion failed")
		return
	}

	processedAt := time.Now().UTC()
	if err := h.documents.UpdateStatus(ctx, doc.ID, storage.StatusCompleted, &processedAt); err != nil {
		logger.ErrorContext(ctx, "failed to mark document completed", "doc_id", doc.ID, "error", err)
	}

	logger.InfoContext(ctx, "document ingested", "doc_id", doc.ID, "chunks", summary.ChunkCount)
	writeJSON(w, r, http.StatusCreated, IngestResponse{
		DocumentID: doc.ID,
		Name:       doc.Name,
		Status:     storage.StatusCompleted,
		ChunkCount: summary.ChunkCount,
	})
}

func (h *IngestHandler) pagesFromRequest(req IngestRequest) []ingest.Page {
	if strings.TrimSpace(req.Markdown) != "" {
		return h.markdown.ExtractPages([]byte(req.Markdown))
	}
	pages := make([]ingest.Page, len(req.Pages))
	for i, p := range req.Pages {
		pages[i] = ingest.Page{Number: p.PageNumber, Text: p.Text}
	}
	return pages
}

func contentSize(req IngestRequest) int64 {
	if req.Markdown != "" {
		return int64(len(req.Markdown))
	}
	var size int64
	for _, p := range req.Pages {
		size += int64(len(p.Text))
	}
	return size
}
