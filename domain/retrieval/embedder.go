package retrieval

import "context"

// ModelInfo describes a loaded embedding model.
type ModelInfo struct {
	modelID   string
	dimension int
}

// NewModelInfo creates a new ModelInfo.
func NewModelInfo(modelID string, dimension int) ModelInfo {
	return ModelInfo{modelID: modelID, dimension: dimension}
}

// ModelID returns the model identifier.
func (m ModelInfo) ModelID() string { return m.modelID }

// Dimension returns the embedding dimension.
func (m ModelInfo) Dimension() int { return m.dimension }

// Embedder converts a single text into a fixed-dimension dense vector.
// Implementations are safe for concurrent callers.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Info() ModelInfo
}
