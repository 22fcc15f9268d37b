package domain

import "context"

// Embedder is the text vectorization contract used by the transport
// layer to turn query text into a query vector. The core itself never
// generates embeddings; ingestion supplies them ready-made.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}
