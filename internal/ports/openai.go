package ports

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEmbedderConfig configures the OpenAI-compatible text embedder.
type OpenAIEmbedderConfig struct {
	APIKey  string
	BaseURL string        // Optional override for OpenAI-compatible providers
	Model   string        // Embedding model name (default: text-embedding-3-small)
	Timeout time.Duration // Per-request timeout (default: 30s)
}

// OpenAITextEmbedder implements TextEmbedder against any OpenAI-compatible
// embeddings endpoint. Calls run through a circuit breaker so a failing
// provider degrades the engine to lexical similarity instead of stalling
// every request.
type OpenAITextEmbedder struct {
	client         *openai.Client
	model          string
	timeout        time.Duration
	circuitBreaker *CircuitBreaker
}

// NewOpenAITextEmbedder creates a text embedder from the given configuration.
func NewOpenAITextEmbedder(cfg OpenAIEmbedderConfig) *OpenAITextEmbedder {
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAITextEmbedder{
		client:         openai.NewClientWithConfig(clientConfig),
		model:          cfg.Model,
		timeout:        cfg.Timeout,
		circuitBreaker: NewCircuitBreaker("openai-text-embedder"),
	}
}

// EmbedText generates an embedding vector for the given text.
func (e *OpenAITextEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, errors.New("text is empty")
	}

	result, err := e.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return e.embed(ctx, text)
	})
	if err != nil {
		return nil, err
	}

	return result.([]float32), nil
}

func (e *OpenAITextEmbedder) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings failed: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("empty embedding response")
	}

	return resp.Data[0].Embedding, nil
}
