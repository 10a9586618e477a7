// Package openai provides the model-provider capability for workers:
// embeddings, chat completion, and credential verification over any
// OpenAI-compatible API.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragfleet/internal/domain"
	"github.com/kailas-cloud/ragfleet/internal/metrics"
)

// Config holds the model provider settings for one tenant.
type Config struct {
	APIKey          string
	BaseURL         string // empty uses the provider default
	EmbeddingModel  string
	GenerationModel string
	Dimensions      int
	Timeout         time.Duration // per-request HTTP timeout, zero disables
	Logger          *zap.Logger
}

// TextModel is a per-tenant model provider client. Each worker owns one,
// constructed with that tenant's decrypted credential.
type TextModel struct {
	client          *openai.Client
	embeddingModel  openai.EmbeddingModel
	generationModel string
	dimensions      int
	logger          *zap.Logger
}

// NewTextModel creates an OpenAI-compatible model provider client.
func NewTextModel(cfg *Config) *TextModel {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TextModel{
		client:          openai.NewClientWithConfig(clientCfg),
		embeddingModel:  openai.EmbeddingModel(cfg.EmbeddingModel),
		generationModel: cfg.GenerationModel,
		dimensions:      cfg.Dimensions,
		logger:          logger,
	}
}

// Embed implements domain.Embedder.
func (m *TextModel) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	batch, err := m.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:   batch.Embeddings[0],
		TotalTokens: batch.TotalTokens,
	}, nil
}

// BatchEmbed implements domain.BatchEmbedder. Returns one vector per input,
// in input order.
func (m *TextModel) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	req := openai.EmbeddingRequest{
		Input:          texts,
		Model:          m.embeddingModel,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if m.dimensions > 0 {
		req.Dimensions = m.dimensions
	}

	start := time.Now()
	resp, err := m.client.CreateEmbeddings(ctx, req)
	duration := time.Since(start)

	model := string(m.embeddingModel)
	if err != nil {
		metrics.ModelRequestsTotal.WithLabelValues("embed", model, "error").Inc()
		return domain.BatchEmbeddingResult{}, parseAPIError("embedding", err)
	}
	if len(resp.Data) != len(texts) {
		metrics.ModelRequestsTotal.WithLabelValues("embed", model, "error").Inc()
		return domain.BatchEmbeddingResult{}, fmt.Errorf(
			"expected %d embeddings, got %d: %w", len(texts), len(resp.Data), domain.ErrModelProviderError)
	}

	metrics.ModelRequestsTotal.WithLabelValues("embed", model, "success").Inc()
	metrics.ModelRequestDuration.WithLabelValues("embed", model).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.ModelTokensTotal.WithLabelValues("embed", model).Add(float64(resp.Usage.TotalTokens))
	}

	embeddings := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		embeddings[d.Index] = d.Embedding
	}

	return domain.BatchEmbeddingResult{
		Embeddings:  embeddings,
		TotalTokens: resp.Usage.TotalTokens,
	}, nil
}

// Generate implements domain.Generator via chat completion.
func (m *TextModel) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m.generationModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	duration := time.Since(start)

	if err != nil {
		metrics.ModelRequestsTotal.WithLabelValues("generate", m.generationModel, "error").Inc()
		return "", parseAPIError("completion", err)
	}
	if len(resp.Choices) == 0 {
		metrics.ModelRequestsTotal.WithLabelValues("generate", m.generationModel, "error").Inc()
		return "", fmt.Errorf("empty completion response: %w", domain.ErrModelProviderError)
	}

	metrics.ModelRequestsTotal.WithLabelValues("generate", m.generationModel, "success").Inc()
	metrics.ModelRequestDuration.WithLabelValues("generate", m.generationModel).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.ModelTokensTotal.WithLabelValues("generate", m.generationModel).Add(float64(resp.Usage.TotalTokens))
	}

	return resp.Choices[0].Message.Content, nil
}

// ValidateCredential verifies the API key via ListModels (free endpoint).
func (m *TextModel) ValidateCredential(ctx context.Context) error {
	if _, err := m.client.ListModels(ctx); err != nil {
		return parseAPIError("list models", err)
	}
	return nil
}
