package embedcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	embedCalls int
	batchCalls int
	batchTexts []string
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.embedCalls++
	return []float32{float32(len(text))}, nil
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.batchCalls++
	c.batchTexts = append([]string(nil), texts...)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

func (c *countingEmbedder) ModelName() string { return "counting" }

func TestLruEmbedderCachesSingle(t *testing.T) {
	inner := &countingEmbedder{}
	cached := WrapLruCacheToEmbedder(inner, 16, time.Minute)

	first, err := cached.Embed(context.Background(), "hello")
	require.NoError(t, err)
	second, err := cached.Embed(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, inner.embedCalls)

	// Cached values are copies; mutating one must not poison the cache.
	second[0] = -1
	third, err := cached.Embed(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, first, third)
	require.Equal(t, 1, inner.embedCalls)
}

func TestLruEmbedderBatchPartialHits(t *testing.T) {
	inner := &countingEmbedder{}
	cached := WrapLruCacheToEmbedder(inner, 16, time.Minute)

	_, err := cached.Embed(context.Background(), "aa")
	require.NoError(t, err)

	got, err := cached.EmbedBatch(context.Background(), []string{"aa", "bbb", "cccc"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, []float32{2}, got[0])
	require.Equal(t, []float32{3}, got[1])
	require.Equal(t, []float32{4}, got[2])
	// Only the misses reach the inner embedder.
	require.Equal(t, []string{"bbb", "cccc"}, inner.batchTexts)

	// Everything is warm now.
	_, err = cached.EmbedBatch(context.Background(), []string{"aa", "bbb", "cccc"})
	require.NoError(t, err)
	require.Equal(t, 1, inner.batchCalls)
}

func TestWrapLruCacheDisabled(t *testing.T) {
	inner := &countingEmbedder{}
	require.Same(t, inner, WrapLruCacheToEmbedder(inner, 0, time.Minute))
	require.Same(t, inner, WrapLruCacheToEmbedder(inner, 16, 0))
}
