package repo_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/finsight/filingrag/internal/model"
	"github.com/finsight/filingrag/internal/repo"
	"github.com/finsight/filingrag/test/testutil"
)

func testEmbedding(seed float32) []float32 {
	emb := make([]float32, 1536)
	for i := range emb {
		emb[i] = seed
	}
	emb[0] = 1
	return emb
}

func testChunk(ticker, section string, index int, seed float32) *model.EmbeddedChunk {
	c := &model.Chunk{
		Text:       fmt.Sprintf("chunk %d of %s %s", index, ticker, section),
		Ticker:     ticker,
		FilingType: model.FilingType10K,
		FilingDate: "2023-10-27",
		Section:    section,
		ChunkIndex: index,
	}
	c.ID = model.ChunkID(c.Ticker, c.FilingType, c.FilingDate, c.Section, c.ChunkIndex)
	return &model.EmbeddedChunk{Chunk: c, Embedding: testEmbedding(seed)}
}

func TestChunkRepoUpsertAndQuery(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	chunks := repo.NewChunkRepo(db)
	ctx := context.Background()

	_, err := chunks.DeleteByFiling(ctx, "AAPL", model.FilingType10K, "2023-10-27")
	require.NoError(t, err)

	batch := []*model.EmbeddedChunk{
		testChunk("AAPL", "item_1a", 0, 0.1),
		testChunk("AAPL", "item_7", 0, 0.5),
	}
	inserted, err := chunks.Upsert(ctx, batch)
	require.NoError(t, err)
	require.Equal(t, 2, inserted)

	// Same IDs again, nothing new gets written.
	inserted, err = chunks.Upsert(ctx, batch)
	require.NoError(t, err)
	require.Equal(t, 0, inserted)

	results, err := chunks.Query(ctx, testEmbedding(0.1), 10, model.QueryFilters{Ticker: "AAPL"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "item_1a", results[0].Section)
	require.LessOrEqual(t, results[0].Distance, results[1].Distance)

	results, err = chunks.Query(ctx, testEmbedding(0.1), 10, model.QueryFilters{Ticker: "MSFT"})
	require.NoError(t, err)
	require.Empty(t, results)

	listed, err := chunks.ListByFiling(ctx, "AAPL", model.FilingType10K, "2023-10-27")
	require.NoError(t, err)
	require.Len(t, listed, 2)

	deleted, err := chunks.DeleteByFiling(ctx, "AAPL", model.FilingType10K, "2023-10-27")
	require.NoError(t, err)
	require.EqualValues(t, 2, deleted)
}

func TestChunkRepoFilingTypeFilter(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	chunks := repo.NewChunkRepo(db)
	ctx := context.Background()

	annual := testChunk("TSLA", "item_7", 0, 0.2)
	quarterly := testChunk("TSLA", "item_7", 1, 0.3)
	quarterly.Chunk.FilingType = model.FilingType10Q
	quarterly.Chunk.ID = model.ChunkID("TSLA", model.FilingType10Q, "2023-10-27", "item_7", 1)

	defer func() {
		_, _ = chunks.DeleteByFiling(ctx, "TSLA", model.FilingType10K, "2023-10-27")
		_, _ = chunks.DeleteByFiling(ctx, "TSLA", model.FilingType10Q, "2023-10-27")
	}()

	_, err := chunks.Upsert(ctx, []*model.EmbeddedChunk{annual, quarterly})
	require.NoError(t, err)

	results, err := chunks.Query(ctx, testEmbedding(0.2), 10, model.QueryFilters{
		Ticker:     "TSLA",
		FilingType: model.FilingType10Q,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, model.FilingType10Q, results[0].FilingType)
}
