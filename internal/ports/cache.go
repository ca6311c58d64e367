package ports

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CachingTextEmbedder wraps a TextEmbedder with an in-memory TTL cache so
// repeated comparisons of the same report text do not re-hit the provider.
// Errors are never cached.
type CachingTextEmbedder struct {
	inner TextEmbedder
	cache *gocache.Cache
}

// NewCachingTextEmbedder wraps the given embedder with a TTL cache.
func NewCachingTextEmbedder(inner TextEmbedder, ttl, cleanupInterval time.Duration) *CachingTextEmbedder {
	return &CachingTextEmbedder{
		inner: inner,
		cache: gocache.New(ttl, cleanupInterval),
	}
}

// EmbedText returns the cached embedding for the text when present,
// otherwise delegates to the wrapped embedder and caches the result.
func (e *CachingTextEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)
	if cached, found := e.cache.Get(key); found {
		return cached.([]float32), nil
	}

	embedding, err := e.inner.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}

	e.cache.Set(key, embedding, gocache.DefaultExpiration)
	return embedding, nil
}

// cacheKey hashes the text so arbitrarily long descriptions stay cheap map keys.
func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
