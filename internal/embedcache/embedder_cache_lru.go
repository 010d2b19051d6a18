package embedcache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"

	"github.com/finsight/filingrag/internal/ai"
)

// WrapLruCacheToEmbedder adds an in-process LRU in front of an embedder.
// Typically stacked on top of the DB cache so hot queries skip the database.
func WrapLruCacheToEmbedder(e ai.IEmbedder, size int, ttl time.Duration) ai.IEmbedder {
	if e == nil || size <= 0 || ttl <= 0 {
		return e
	}
	return &lruEmbedder{
		next:  e,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

type lruEmbedder struct {
	next  ai.IEmbedder
	cache *expirable.LRU[string, []float32]
}

func (l *lruEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if l == nil || l.next == nil {
		return nil, nil
	}
	cacheKey, _, _ := buildCacheKey(l.next.ModelName(), text)
	if cached, ok := l.cache.Get(cacheKey); ok {
		logutil.GetLogger(ctx).Debug("embedding cache hit (lru)")
		return cloneEmbedding(cached), nil
	}
	res, err := l.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	l.cache.Add(cacheKey, cloneEmbedding(res))
	return res, nil
}

func (l *lruEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if l == nil || l.next == nil {
		return nil, nil
	}
	vectors := make([][]float32, len(texts))
	var missTexts []string
	var missIndices []int
	var missKeys []string
	for i, text := range texts {
		cacheKey, _, _ := buildCacheKey(l.next.ModelName(), text)
		if cached, ok := l.cache.Get(cacheKey); ok {
			vectors[i] = cloneEmbedding(cached)
			continue
		}
		missTexts = append(missTexts, text)
		missIndices = append(missIndices, i)
		missKeys = append(missKeys, cacheKey)
	}
	if len(missTexts) == 0 {
		return vectors, nil
	}
	fresh, err := l.next.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, values := range fresh {
		vectors[missIndices[j]] = values
		l.cache.Add(missKeys[j], cloneEmbedding(values))
	}
	return vectors, nil
}

func (l *lruEmbedder) ModelName() string {
	if l == nil || l.next == nil {
		return ""
	}
	return l.next.ModelName()
}

func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
