package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/finsight/filingrag/internal/ai"
	"github.com/finsight/filingrag/internal/model"
	"github.com/finsight/filingrag/internal/repo"
)

// WrapDBCacheToEmbedder caches embeddings in the database, keyed by
// (model, content hash). Cache writes are best-effort: a failed write logs a
// warning and the embedding is still returned.
func WrapDBCacheToEmbedder(e ai.IEmbedder, cacheRepo *repo.EmbeddingCacheRepo) ai.IEmbedder {
	if e == nil || cacheRepo == nil {
		return e
	}
	return &dbEmbedder{next: e, repo: cacheRepo}
}

type dbEmbedder struct {
	next ai.IEmbedder
	repo *repo.EmbeddingCacheRepo
}

func (d *dbEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if d == nil || d.next == nil {
		return nil, nil
	}
	_, contentHash, modelName := buildCacheKey(d.next.ModelName(), text)
	values, ok, err := d.repo.Get(ctx, modelName, contentHash)
	if err != nil {
		return nil, err
	}
	if ok {
		logutil.GetLogger(ctx).Debug("embedding cache hit (db)", zap.String("model", modelName))
		return values, nil
	}
	res, err := d.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	d.save(ctx, modelName, contentHash, res)
	return res, nil
}

// EmbedBatch resolves each input against the cache first and only sends the
// misses downstream, mapping the results back to their original positions.
func (d *dbEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if d == nil || d.next == nil {
		return nil, nil
	}
	vectors := make([][]float32, len(texts))
	var missTexts []string
	var missIndices []int
	var missHashes []string
	modelName := ""
	for i, text := range texts {
		_, contentHash, name := buildCacheKey(d.next.ModelName(), text)
		modelName = name
		values, ok, err := d.repo.Get(ctx, name, contentHash)
		if err != nil {
			return nil, err
		}
		if ok {
			vectors[i] = values
			continue
		}
		missTexts = append(missTexts, text)
		missIndices = append(missIndices, i)
		missHashes = append(missHashes, contentHash)
	}
	logutil.GetLogger(ctx).Debug("embedding batch cache lookup",
		zap.Int("total", len(texts)),
		zap.Int("hits", len(texts)-len(missTexts)),
	)
	if len(missTexts) == 0 {
		return vectors, nil
	}
	fresh, err := d.next.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, values := range fresh {
		vectors[missIndices[j]] = values
		d.save(ctx, modelName, missHashes[j], values)
	}
	return vectors, nil
}

func (d *dbEmbedder) save(ctx context.Context, modelName, contentHash string, values []float32) {
	if err := d.repo.Save(ctx, &model.EmbeddingCache{
		ModelName:   modelName,
		ContentHash: contentHash,
		Embedding:   values,
		Ctime:       time.Now().Unix(),
	}); err != nil {
		logutil.GetLogger(ctx).Warn("failed to cache embedding", zap.Error(err))
	}
}

func (d *dbEmbedder) ModelName() string {
	if d == nil || d.next == nil {
		return ""
	}
	return d.next.ModelName()
}

func buildCacheKey(modelName, text string) (string, string, string) {
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		modelName = "unknown"
	}
	hash := sha256.Sum256([]byte(modelName + ":" + text))
	contentHash := hex.EncodeToString(hash[:])
	return "embed:" + modelName + ":" + contentHash, contentHash, modelName
}
