package ai

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeEmbedProvider struct {
	calls [][]string
}

func (f *fakeEmbedProvider) Name() string { return "fake" }

func (f *fakeEmbedProvider) Embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, append([]string(nil), texts...))
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

func TestEmbedderBatchSplitting(t *testing.T) {
	provider := &fakeEmbedProvider{}
	embedder := NewEmbedder(provider, "fake-model")

	texts := make([]string, 250)
	for i := range texts {
		texts[i] = fmt.Sprintf("%0*d", i%7+1, i)
	}
	vectors, err := embedder.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, 250)
	require.Len(t, provider.calls, 3)
	require.Len(t, provider.calls[0], 100)
	require.Len(t, provider.calls[2], 50)
	for i, v := range vectors {
		require.Equal(t, []float32{float32(len(texts[i]))}, v)
	}
}

func TestEmbedderEmptyBatch(t *testing.T) {
	provider := &fakeEmbedProvider{}
	embedder := NewEmbedder(provider, "fake-model")
	vectors, err := embedder.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, vectors)
	require.Empty(t, provider.calls)
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider("definitely-not-registered", nil)
	require.Error(t, err)
	_, err = NewEmbedProvider("definitely-not-registered", nil)
	require.Error(t, err)
}

func TestNewProviderRegistered(t *testing.T) {
	p, err := NewProvider("openai", map[string]interface{}{"api_key": "k"})
	require.NoError(t, err)
	require.Equal(t, "openai", p.Name())

	e, err := NewEmbedProvider("gemini", map[string]interface{}{"api_key": "k"})
	require.NoError(t, err)
	require.Equal(t, "gemini", e.Name())
}
