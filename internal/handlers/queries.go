package handlers

import (
	"net/http"
	"strconv"
	"time"

	"claimsight/internal/contextutil"
	"claimsight/internal/storage"
)

const defaultQueryLimit = 50

// QueriesHandler handles HTTP requests over the query log.
type QueriesHandler struct {
	queries storage.QueryStore
}

// NewQueriesHandler creates a new QueriesHandler.
func NewQueriesHandler(queries storage.QueryStore) *QueriesHandler {
	return &QueriesHandler{queries: queries}
}

// QueryLogResponse is the JSON shape of one query-log entry. The raw evidence
// context and raw model output stay internal to the audit log.
type QueryLogResponse struct {
	ID               int      `json:"id"`
	DocumentID       *int     `json:"document_id"`
	Query            string   `json:"query"`
	Decision         string   `json:"decision"`
	Amount           *string  `json:"amount"`
	Justification    string   `json:"justification"`
	ReferenceClauses []string `json:"reference_clauses"`
	Timestamp        string   `json:"timestamp"`
}

func queryLogResponse(entry *storage.QueryLog) QueryLogResponse {
	clauses := entry.ReferenceClauses
	if clauses == nil {
		clauses = []string{}
	}
	return QueryLogResponse{
		ID:               entry.ID,
		DocumentID:       entry.DocumentID,
		Query:            entry.Query,
		Decision:         entry.Decision,
		Amount:           entry.Amount,
		Justification:    entry.Justification,
		ReferenceClauses: clauses,
		Timestamp:        entry.Timestamp.UTC().Format(time.RFC3339),
	}
}

func queryLogResponses(entries []*storage.QueryLog) []QueryLogResponse {
	responses := make([]QueryLogResponse, len(entries))
	for i, entry := range entries {
		responses[i] = queryLogResponse(entry)
	}
	return responses
}

// List returns recent query-log entries, newest first. The limit query
// parameter caps the result, defaulting to 50.
func (h *QueriesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	limit := defaultQueryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, r, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	entries, err := h.queries.ListRecent(ctx, limit)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list queries", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to list queries")
		return
	}
	writeJSON(w, r, http.StatusOK, queryLogResponses(entries))
}

// ByDocument returns all query-log entries for one document, newest first.
func (h *QueriesHandler) ByDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id, ok := documentID(w, r)
	if !ok {
		return
	}

	entries, err := h.queries.ListByDocument(ctx, id)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list document queries", "doc_id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to list queries")
		return
	}
	writeJSON(w, r, http.StatusOK, queryLogResponses(entries))
}
