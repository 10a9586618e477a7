// Package query answers questions from a tenant's indexed documents.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragfleet/internal/domain"
	"github.com/kailas-cloud/ragfleet/internal/metrics"
	"github.com/kailas-cloud/ragfleet/internal/retry"
)

// NotFoundAnswer is the exact sentence the model is instructed to emit
// when the retrieved context does not contain the answer.
const NotFoundAnswer = "The answer is not in the provided documents."

// Limits bound the retrieval and prompt assembly of a single query.
type Limits struct {
	TopK             int
	MaxContextChars  int
	MaxQuestionChars int
}

// Answer is the result of one question against a tenant's documents.
type Answer struct {
	Text    string
	Sources []string
}

// Service runs retrieval-augmented question answering for one tenant.
type Service struct {
	tenantID   string
	collection string
	embedder   domain.Embedder
	generator  domain.Generator
	retriever  Retriever
	counter    CollectionCounter
	limits     Limits
	retryPol   retry.Policy
	logger     *zap.Logger
}

// New creates a query service bound to one tenant's collection.
func New(
	tenantID string,
	embedder domain.Embedder,
	generator domain.Generator,
	retriever Retriever,
	counter CollectionCounter,
	limits Limits,
	logger *zap.Logger,
) *Service {
	if limits.TopK < 1 {
		limits.TopK = 5
	}
	return &Service{
		tenantID:   tenantID,
		collection: domain.CollectionName(tenantID),
		embedder:   embedder,
		generator:  generator,
		retriever:  retriever,
		counter:    counter,
		limits:     limits,
		retryPol:   retry.DefaultPolicy(),
		logger:     logger,
	}
}

// Query answers a question from the tenant's documents. An empty index is
// reported as ErrEmptyIndex before any model call is made.
func (s *Service) Query(ctx context.Context, question string) (Answer, error) {
	start := time.Now()

	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, domain.ErrEmptyQuestion
	}
	if s.limits.MaxQuestionChars > 0 && len(question) > s.limits.MaxQuestionChars {
		return Answer{}, fmt.Errorf(
			"question is %d chars, limit %d: %w", len(question), s.limits.MaxQuestionChars, domain.ErrPayloadTooLarge)
	}

	count, err := s.counter.Count(ctx, s.collection)
	if err != nil {
		return Answer{}, fmt.Errorf("count chunks: %w", err)
	}
	if count == 0 {
		metrics.QueriesTotal.WithLabelValues("empty").Inc()
		return Answer{}, domain.ErrEmptyIndex
	}

	answer, err := s.answer(ctx, question)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("error").Inc()
		return Answer{}, err
	}

	metrics.QueriesTotal.WithLabelValues("success").Inc()
	metrics.QueryDuration.Observe(time.Since(start).Seconds())

	s.logger.Info("query answered",
		zap.String("tenant_id", s.tenantID),
		zap.Int("sources", len(answer.Sources)),
		zap.Duration("took", time.Since(start)),
	)
	return answer, nil
}

func (s *Service) answer(ctx context.Context, question string) (Answer, error) {
	var embedded domain.EmbeddingResult
	err := retry.Do(ctx, s.retryPol, func(ctx context.Context) error {
		var embedErr error
		embedded, embedErr = s.embedder.Embed(ctx, question)
		return embedErr
	})
	if err != nil {
		return Answer{}, errors.Join(domain.ErrQueryFailed, fmt.Errorf("embed question: %w", err))
	}

	scored, err := s.retriever.TopK(ctx, s.collection, embedded.Embedding, s.limits.TopK)
	if err != nil {
		return Answer{}, errors.Join(domain.ErrQueryFailed, fmt.Errorf("retrieve chunks: %w", err))
	}
	if len(scored) == 0 {
		return Answer{Text: NotFoundAnswer}, nil
	}

	contextText, sources := assembleContext(scored, s.limits.MaxContextChars)
	prompt := buildPrompt(contextText, question)

	var generated string
	err = retry.Do(ctx, s.retryPol, func(ctx context.Context) error {
		var genErr error
		generated, genErr = s.generator.Generate(ctx, prompt)
		return genErr
	})
	if err != nil {
		return Answer{}, errors.Join(domain.ErrQueryFailed, fmt.Errorf("generate answer: %w", err))
	}

	return Answer{Text: strings.TrimSpace(generated), Sources: sources}, nil
}

// assembleContext concatenates chunk texts up to the character budget and
// collects their source names, deduplicated in first-seen order. Chunks
// arrive most similar first, so truncation drops the least relevant ones.
func assembleContext(scored []domain.ScoredChunk, maxChars int) (string, []string) {
	var (
		b       strings.Builder
		sources []string
		seen    = make(map[string]struct{})
	)

	for i, sc := range scored {
		block := fmt.Sprintf("[source: %s]\n%s", sc.Source, sc.Text)
		if maxChars > 0 && i > 0 && b.Len()+len(block)+2 > maxChars {
			break
		}
		if i > 0 {
			b.WriteString("\n\n")
		}
		if maxChars > 0 && len(block) > maxChars {
			cut := maxChars
			for cut > 0 && !utf8.RuneStart(block[cut]) {
				cut--
			}
			block = block[:cut]
		}
		b.WriteString(block)

		if _, ok := seen[sc.Source]; !ok {
			seen[sc.Source] = struct{}{}
			sources = append(sources, sc.Source)
		}
	}
	return b.String(), sources
}

func buildPrompt(contextText, question string) string {
	return fmt.Sprintf(
		"Answer the question using only the context below.\n"+
			"If the context does not contain the answer, reply exactly: %s\n\n"+
			"Context:\n%s\n\nQuestion: %s\n\nAnswer:",
		NotFoundAnswer, contextText, question)
}
