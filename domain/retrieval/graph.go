package retrieval

import "context"

// Graph is the narrow surface the retriever needs from the property graph.
// Implementations own the driver and its connection pool.
type Graph interface {
	// VectorSearch returns up to k nearest chunks for the vector, ordered
	// by descending similarity. An empty result is a valid outcome.
	VectorSearch(ctx context.Context, vec []float32, k int) ([]Hit, error)

	// Expand resolves article/author context for the given chunk IDs in a
	// single round-trip. Unknown IDs yield a Context with absent fields.
	Expand(ctx context.Context, chunkIDs []string) ([]Context, error)

	// Close releases the pool and driver. Idempotent.
	Close(ctx context.Context) error
}
