// Package ports defines the external feature-extraction and classification
// ports consumed by the scoring engine, plus concrete implementations backed
// by OpenAI-compatible embedding APIs and remote HTTP services. Every port is
// constructed once at process start and injected; the engine treats a failing
// or missing port as a documented fallback, never as a request error.
package ports

import "context"

// TextEmbedder produces a fixed-length embedding for free text.
type TextEmbedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// ImageEmbedder produces a feature vector for an opaque image payload
// (base64 or data URL).
type ImageEmbedder interface {
	EmbedImage(ctx context.Context, image string) ([]float32, error)
}

// FraudClassifier turns the six-component similarity vector into a fraud
// probability in [0,1]. Callers treat any error as "probability unknown"
// and fall back to 0.5.
type FraudClassifier interface {
	Probability(ctx context.Context, features []float64) (float64, error)
}
