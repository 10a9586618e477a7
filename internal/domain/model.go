package domain

import "context"

// Embedder is the text vectorization contract shared between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes multiple texts in a single provider call.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// Generator produces a completion for an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// EmbeddingResult carries one embedding vector and its token usage.
type EmbeddingResult struct {
	Embedding   []float32
	TotalTokens int
}

// BatchEmbeddingResult carries multiple vectors and aggregate token usage.
type BatchEmbeddingResult struct {
	Embeddings  [][]float32
	TotalTokens int
}

// WorkerCredentialValidator checks a worker credential against its issuing
// service and returns the identity it belongs to. Consumed at onboarding only.
type WorkerCredentialValidator interface {
	ValidateWorkerCredential(ctx context.Context, token string) (identity string, err error)
}

// ModelCredentialValidator checks a model provider credential. Consumed at
// onboarding only.
type ModelCredentialValidator interface {
	ValidateModelCredential(ctx context.Context, key string) error
}
