package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/jainqa/internal/ai"
)

// Cache memoizes embeddings keyed by model, task type and text hash.
// Embedders are rebuilt per request from the caller's credential, so
// the cache lives process-wide and each request wraps its transient
// embedder around it. Identical scripture passages recur across
// uploads and every chat re-embeds the question; the cache avoids
// paying the provider twice for the same text.
type Cache struct {
	lru *expirable.LRU[string, []float32]
}

func NewCache(size int, ttl time.Duration) *Cache {
	if size <= 0 || ttl <= 0 {
		return nil
	}
	return &Cache{
		lru: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

func (c *Cache) Wrap(e ai.IEmbedder) ai.IEmbedder {
	if c == nil || e == nil {
		return e
	}
	return &lruEmbedder{next: e, cache: c.lru}
}

type lruEmbedder struct {
	next  ai.IEmbedder
	cache *expirable.LRU[string, []float32]
}

func (l *lruEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	cacheKey := buildCacheKey(l.next.ModelName(), taskType, text)
	if cached, ok := l.cache.Get(cacheKey); ok {
		logutil.GetLogger(ctx).Debug("embedding cache hit (lru)", zap.String("task_type", taskType))
		return cloneEmbedding(cached), nil
	}
	res, err := l.next.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	l.cache.Add(cacheKey, cloneEmbedding(res))
	return res, nil
}

func (l *lruEmbedder) ModelName() string {
	return l.next.ModelName()
}

func buildCacheKey(model, taskType, text string) string {
	hash := sha256.Sum256([]byte(text))
	return model + ":" + taskType + ":" + hex.EncodeToString(hash[:])
}

func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
