package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks claimsight/internal/vectorstore VectorStore

import "context"

// Point represents a passage to be stored in the vector index.
// ID is the structured chunk id (doc{id}_{epoch}_chunk_{n}); the store is
// responsible for mapping it to whatever id scheme the backend requires.
type Point struct {
	ID   string
	Vec  []float32
	Text string
	Meta map[string]any
}

// SearchResult represents a single retrieved passage, in similarity rank order.
type SearchResult struct {
	ID    string
	Score float32
	Text  string
	Meta  map[string]any
}

// FetchResult represents a passage returned by a point lookup.
type FetchResult struct {
	ID   string
	Text string
	Meta map[string]any
}

// VectorStore defines the interface for vector index operations.
type VectorStore interface {
	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search performs a similarity search returning up to k results, best first.
	Search(ctx context.Context, collection string, query []float32, k int) ([]SearchResult, error)

	// Fetch retrieves points by their structured ids. Missing ids are simply
	// absent from the result, not an error.
	Fetch(ctx context.Context, collection string, ids []string) ([]FetchResult, error)

	// Count returns the number of points stored in the collection.
	Count(ctx context.Context, collection string) (int, error)

	// Delete removes points by their structured ids.
	Delete(ctx context.Context, collection string, ids []string) error
}
