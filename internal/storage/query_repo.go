package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_query_store.go -package=mocks claimsight/internal/storage QueryStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// QueryStore defines the interface for query-log operations.
type QueryStore interface {
	// Insert appends a query-log entry and returns it with the assigned ID.
	Insert(ctx context.Context, entry *QueryLog) (*QueryLog, error)
	// ListRecent returns up to limit entries, newest first.
	ListRecent(ctx context.Context, limit int) ([]*QueryLog, error)
	// ListByDocument returns all entries for a document, newest first.
	ListByDocument(ctx context.Context, documentID int) ([]*QueryLog, error)
}

// QueryRepo provides methods for query-log operations.
// It implements the QueryStore interface.
type QueryRepo struct {
	db *sql.DB
}

// NewQueryRepo creates a new QueryRepo.
func NewQueryRepo(db *sql.DB) *QueryRepo {
	return &QueryRepo{db: db}
}

// Insert appends a query-log entry and returns it with the assigned ID.
func (r *QueryRepo) Insert(ctx context.Context, entry *QueryLog) (*QueryLog, error) {
	clauses := entry.ReferenceClauses
	if clauses == nil {
		clauses = []string{}
	}
	clausesJSON, err := json.Marshal(clauses)
	if err != nil {
		return nil, fmt.Errorf("failed to encode reference clauses: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO queries (document_id, query, decision, amount, justification, reference_clauses, raw_context, raw_response) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		entry.DocumentID, entry.Query, entry.Decision, entry.Amount, entry.Justification, string(clausesJSON), entry.RawContext, entry.RawResponse,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert query log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted query id: %w", err)
	}

	row := r.db.QueryRowContext(ctx, selectQueryLog+" WHERE id = ?", id)
	return scanQueryLog(row)
}

// ListRecent returns up to limit entries, newest first.
func (r *QueryRepo) ListRecent(ctx context.Context, limit int) ([]*QueryLog, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, selectQueryLog+" ORDER BY timestamp DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent queries: %w", err)
	}
	return collectQueryLogs(rows)
}

// ListByDocument returns all entries for a document, newest first.
func (r *QueryRepo) ListByDocument(ctx context.Context, documentID int) ([]*QueryLog, error) {
	rows, err := r.db.QueryContext(ctx, selectQueryLog+" WHERE document_id = ? ORDER BY timestamp DESC, id DESC", documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query queries by document: %w", err)
	}
	return collectQueryLogs(rows)
}

const selectQueryLog = "SELECT id, document_id, query, decision, amount, justification, reference_clauses, COALESCE(raw_context, ''), COALESCE(raw_response, ''), timestamp FROM queries"

func collectQueryLogs(rows *sql.Rows) ([]*QueryLog, error) {
	defer func() {
		_ = rows.Close()
	}()

	var entries []*QueryLog
	for rows.Next() {
		entry, err := scanQueryLog(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate query logs: %w", err)
	}
	return entries, nil
}

func scanQueryLog(row rowScanner) (*QueryLog, error) {
	var entry QueryLog
	var documentID sql.NullInt64
	var amount sql.NullString
	var clausesJSON string
	err := row.Scan(&entry.ID, &documentID, &entry.Query, &entry.Decision, &amount, &entry.Justification, &clausesJSON, &entry.RawContext, &entry.RawResponse, &entry.Timestamp)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan query log: %w", err)
	}
	if documentID.Valid {
		id := int(documentID.Int64)
		entry.DocumentID = &id
	}
	if amount.Valid {
		a := amount.String
		entry.Amount = &a
	}
	if err := json.Unmarshal([]byte(clausesJSON), &entry.ReferenceClauses); err != nil {
		return nil, fmt.Errorf("failed to decode reference clauses: %w", err)
	}
	return &entry, nil
}
