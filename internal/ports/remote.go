package ports

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RemoteConfig configures an HTTP-backed port.
type RemoteConfig struct {
	BaseURL string
	Timeout time.Duration // Per-request timeout (default: 30s)
}

// RemoteImageEmbedder implements ImageEmbedder against an HTTP feature
// extraction service. The service receives the opaque image payload and
// returns a fixed-length feature vector; decoding and model inference stay
// entirely on the remote side.
type RemoteImageEmbedder struct {
	baseURL        string
	timeout        time.Duration
	httpClient     *http.Client
	circuitBreaker *CircuitBreaker
}

// NewRemoteImageEmbedder creates an image embedder for the given service URL.
func NewRemoteImageEmbedder(cfg RemoteConfig) *RemoteImageEmbedder {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &RemoteImageEmbedder{
		baseURL:        cfg.BaseURL,
		timeout:        cfg.Timeout,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		circuitBreaker: NewCircuitBreaker("remote-image-embedder"),
	}
}

type imageEmbedRequest struct {
	Image string `json:"image"`
}

type imageEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// EmbedImage extracts a feature vector from the given image payload.
func (e *RemoteImageEmbedder) EmbedImage(ctx context.Context, image string) ([]float32, error) {
	if image == "" {
		return nil, errors.New("image payload is empty")
	}

	result, err := e.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		var resp imageEmbedResponse
		if err := postJSON(ctx, e.httpClient, e.baseURL+"/embed-image", imageEmbedRequest{Image: image}, &resp); err != nil {
			return nil, err
		}
		if len(resp.Embedding) == 0 {
			return nil, errors.New("empty embedding response")
		}
		return resp.Embedding, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]float32), nil
}

// RemoteFraudClassifier implements FraudClassifier against an HTTP inference
// service hosting the trained model.
type RemoteFraudClassifier struct {
	baseURL        string
	httpClient     *http.Client
	circuitBreaker *CircuitBreaker
}

// NewRemoteFraudClassifier creates a classifier port for the given service URL.
func NewRemoteFraudClassifier(cfg RemoteConfig) *RemoteFraudClassifier {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &RemoteFraudClassifier{
		baseURL:        cfg.BaseURL,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		circuitBreaker: NewCircuitBreaker("remote-fraud-classifier"),
	}
}

type classifyRequest struct {
	Features []float64 `json:"features"`
}

type classifyResponse struct {
	Probability float64 `json:"probability"`
}

// Probability returns the fraud probability predicted for the given feature
// vector.
func (c *RemoteFraudClassifier) Probability(ctx context.Context, features []float64) (float64, error) {
	if len(features) == 0 {
		return 0, errors.New("feature vector is empty")
	}

	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		var resp classifyResponse
		if err := postJSON(ctx, c.httpClient, c.baseURL+"/classify", classifyRequest{Features: features}, &resp); err != nil {
			return nil, err
		}
		if resp.Probability < 0 || resp.Probability > 1 {
			return nil, fmt.Errorf("probability out of range: %f", resp.Probability)
		}
		return resp.Probability, nil
	})
	if err != nil {
		return 0, err
	}

	return result.(float64), nil
}

// postJSON posts a JSON body to the given URL and decodes the JSON response
// into out.
func postJSON(ctx context.Context, client *http.Client, url string, body, out interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(data))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
