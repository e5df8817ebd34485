package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks claimsight/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DocumentStore defines the interface for document record operations.
type DocumentStore interface {
	// Create inserts a new document record and returns it with the assigned ID.
	Create(ctx context.Context, doc *Document) (*Document, error)
	// GetByID gets a document by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id int) (*Document, error)
	// ListAll returns all documents ordered by upload time, newest first.
	ListAll(ctx context.Context) ([]*Document, error)
	// UpdateStatus sets the status and, when completed, the processed_at time.
	UpdateStatus(ctx context.Context, id int, status string, processedAt *time.Time) error
	// Update applies name/status/summary changes to a document.
	Update(ctx context.Context, doc *Document) error
	// Delete removes a document record. Returns ErrNotFound if not found.
	Delete(ctx context.Context, id int) error
}

// DocumentRepo provides methods for document operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// Create inserts a new document record and returns it with the assigned ID.
func (r *DocumentRepo) Create(ctx context.Context, doc *Document) (*Document, error) {
	if doc.Status == "" {
		doc.Status = StatusProcessing
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO documents (name, file_path, file_size, status, summary) VALUES (?, ?, ?, ?, ?)",
		doc.Name, doc.FilePath, doc.FileSize, doc.Status, doc.Summary,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted document id: %w", err)
	}
	return r.GetByID(ctx, int(id))
}

// GetByID gets a document by its ID. Returns ErrNotFound if not found.
func (r *DocumentRepo) GetByID(ctx context.Context, id int) (*Document, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, COALESCE(file_path, ''), COALESCE(file_size, 0), status, COALESCE(summary, ''), uploaded_at, processed_at FROM documents WHERE id = ?",
		id,
	)
	return scanDocument(row)
}

// ListAll returns all documents ordered by upload time, newest first.
func (r *DocumentRepo) ListAll(ctx context.Context) ([]*Document, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, COALESCE(file_path, ''), COALESCE(file_size, 0), status, COALESCE(summary, ''), uploaded_at, processed_at FROM documents ORDER BY uploaded_at DESC, id DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}

// UpdateStatus sets the status and, when completed, the processed_at time.
func (r *DocumentRepo) UpdateStatus(ctx context.Context, id int, status string, processedAt *time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE documents SET status = ?, processed_at = ? WHERE id = ?",
		status, processedAt, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Update applies name/status/summary changes to a document.
func (r *DocumentRepo) Update(ctx context.Context, doc *Document) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE documents SET name = ?, status = ?, summary = ? WHERE id = ?",
		doc.Name, doc.Status, doc.Summary, doc.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a document record. Returns ErrNotFound if not found.
func (r *DocumentRepo) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// rowScanner abstracts sql.Row and sql.Rows for scanDocument.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var doc Document
	var processedAt sql.NullTime
	err := row.Scan(&doc.ID, &doc.Name, &doc.FilePath, &doc.FileSize, &doc.Status, &doc.Summary, &doc.UploadedAt, &processedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}
	if processedAt.Valid {
		t := processedAt.Time
		doc.ProcessedAt = &t
	}
	return &doc, nil
}
