package domain

import "context"

// Embedder converts free text into a numeric vector representation.
// Documents and queries are embedded with distinct task types; the provider
// may apply different transforms per type.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float64, error)
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
	Dimension() int
}

// VectorStore persists embedded documents and supports similarity search.
// An empty store yields zero results rather than errors.
type VectorStore interface {
	// Init prepares the backing collection for vectors of the given
	// dimensionality.
	Init(ctx context.Context, dimension int) error
	// Upsert writes or overwrites documents by id; last write wins, including
	// within a single batch. A batch applies atomically.
	Upsert(ctx context.Context, docs []IndexedDocument) error
	// Query returns the k nearest documents, optionally restricted to those
	// whose metadata satisfies the exact-match filter.
	Query(ctx context.Context, vector []float64, k int, filter map[string]string) ([]SearchResult, error)
	// FetchCourse returns every section of an exact course identity,
	// regardless of embedding similarity, ordered by section number.
	FetchCourse(ctx context.Context, subject, catalogNumber string) ([]SearchResult, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// Generator produces model text for an assembled prompt. The call is an
// opaque boundary: prompt in, text out.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
