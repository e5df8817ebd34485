package handlers

import (
	"context"
	"net/http"
	"time"

	"claimsight/internal/contextutil"
	"claimsight/internal/llm"
	"claimsight/internal/vectorstore"
)

// ModeReporter exposes the generative client's operating mode.
// Implemented by llm.Client.
type ModeReporter interface {
	Mode() llm.Mode
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	vectorStore        vectorstore.VectorStore
	generator          ModeReporter
	collectionName     string
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(vectorStore vectorstore.VectorStore, generator ModeReporter, collectionName string) *HealthHandler {
	return &HealthHandler{
		vectorStore:        vectorStore,
		generator:          generator,
		collectionName:     collectionName,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	Issues    []string          `json:"issues,omitempty"`
}

// ServeHTTP reports the health of the service and its collaborators. The
// vector index is the hard dependency; a degraded generative client only
// degrades the status, it does not fail the check.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string

	if _, err := h.vectorStore.Count(checkCtx, h.collectionName); err != nil {
		logger.WarnContext(ctx, "vector store health check failed", "error", err)
		checks["vector_store"] = "error"
		issues = append(issues, "vector_store_unavailable")
	} else {
		checks["vector_store"] = "ok"
	}

	mode := h.generator.Mode()
	checks["generative_model"] = mode.String()
	if mode == llm.ModeDegraded {
		issues = append(issues, "generative_model_degraded")
	}

	status := "healthy"
	httpStatus := http.StatusOK
	switch {
	case checks["vector_store"] != "ok":
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	case len(issues) > 0:
		status = "degraded"
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}
	if len(issues) > 0 {
		response.Issues = issues
	}

	writeJSON(w, r, httpStatus, response)
}
