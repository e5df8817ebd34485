package handlers

import (
	"net/http"
	"time"

	"claimsight/internal/contextutil"
	"claimsight/internal/storage"
)

const reportEntryLimit = 100

// ReportHandler produces a JSON report over the query log.
type ReportHandler struct {
	documents storage.DocumentStore
	queries   storage.QueryStore
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(documents storage.DocumentStore, queries storage.QueryStore) *ReportHandler {
	return &ReportHandler{documents: documents, queries: queries}
}

// ReportResponse summarizes analysis activity: document inventory, decision
// counts and the most recent query-log entries.
type ReportResponse struct {
	GeneratedAt   string             `json:"generated_at"`
	DocumentCount int                `json:"document_count"`
	QueryCount    int                `json:"query_count"`
	Decisions     map[string]int     `json:"decisions"`
	Entries       []QueryLogResponse `json:"entries"`
}

// ServeHTTP builds the report from the most recent query-log entries.
func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	docs, err := h.documents.ListAll(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list documents for report", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to build report")
		return
	}

	entries, err := h.queries.ListRecent(ctx, reportEntryLimit)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list queries for report", "error", err)
		writeError(w, r, http.StatusInternalServerError, "failed to build report")
		return
	}

	decisions := make(map[string]int)
	for _, entry := range entries {
		decisions[entry.Decision]++
	}

	writeJSON(w, r, http.StatusOK, ReportResponse{
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
		DocumentCount: len(docs),
		QueryCount:    len(entries),
		Decisions:     decisions,
		Entries:       queryLogResponses(entries),
	})
}
