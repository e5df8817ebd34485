package handlers

import (
	"context"
	"net/http"
	"strings"

	"claimsight/internal/contextutil"
	"claimsight/internal/rag"
)

// Analyzer runs the claim-analysis pipeline for one query.
// Implemented by rag.Engine.
type Analyzer interface {
	Analyze(ctx context.Context, query string) *rag.Decision
}

// QueryHandler handles HTTP requests for claim queries.
type QueryHandler struct {
	analyzer Analyzer
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(analyzer Analyzer) *QueryHandler {
	return &QueryHandler{analyzer: analyzer}
}

// QueryResponse is the response payload for a claim query. The decision
// fields are inlined next to the echoed query.
type QueryResponse struct {
	Query string `json:"query"`
	rag.Decision
}

// ServeHTTP answers a natural-language claim question. The analysis never
// fails outright; terminal conditions come back as decision kinds.
func (h *QueryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeError(w, r, http.StatusBadRequest, "query parameter is required")
		return
	}

	decision := h.analyzer.Analyze(ctx, query)
	logger.InfoContext(ctx, "query analyzed", "decision", decision.Decision)

	writeJSON(w, r, http.StatusOK, QueryResponse{Query: query, Decision: *decision})
}
