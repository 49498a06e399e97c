package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"alfredoptarigan/profile-matcher/internal/apperrors"
)

// maxEmbedRunes keeps a single input under the model's token limit.
const maxEmbedRunes = 40000

// Embedder turns text into dense vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// GeminiService embeds text with a Gemini embedding model.
type GeminiService interface {
	Embedder
	Model() string
}

type geminiService struct {
	client     *genai.Client
	model      string
	dimensions int32
	retry      RetryPolicy
	logger     *zap.Logger
}

func NewGeminiService(ctx context.Context, apiKey, model string, dimensions int, retry RetryPolicy, logger *zap.Logger) (GeminiService, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiService{
		client:     client,
		model:      model,
		dimensions: int32(dimensions),
		retry:      retry,
		logger:     logger.Named("gemini"),
	}, nil
}

func (g *geminiService) Model() string { return g.model }

func (g *geminiService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := g.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, apperrors.Transient(apperrors.CodeEmbeddingFailed, nil, "empty embedding result")
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in a single request, retrying transient failures.
// The provider may return fewer vectors than inputs; callers must check.
func (g *geminiService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.Text(truncateRunes(t, maxEmbedRunes))...)
	}
	config := &genai.EmbedContentConfig{OutputDimensionality: genai.Ptr(g.dimensions)}

	var vectors [][]float32
	attempt := 0
	err := RetryWithBackoff(ctx, g.retry, func(ctx context.Context) error {
		attempt++
		result, err := g.client.Models.EmbedContent(ctx, g.model, contents, config)
		if err != nil {
			g.logger.Warn("embedding request failed",
				zap.Int("attempt", attempt),
				zap.Int("inputs", len(texts)),
				zap.Error(err),
			)
			return apperrors.Transient(apperrors.CodeEmbeddingFailed, err, "failed to generate embeddings")
		}
		if result == nil || len(result.Embeddings) == 0 {
			return apperrors.Transient(apperrors.CodeEmbeddingFailed, nil, "empty embedding result")
		}

		vectors = make([][]float32, 0, len(result.Embeddings))
		for _, e := range result.Embeddings {
			vectors = append(vectors, e.Values)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return vectors, nil
}

func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
