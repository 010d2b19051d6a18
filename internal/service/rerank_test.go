package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/finsight/filingrag/internal/model"
)

func hit(id, section string, distance float64) *model.RetrievalResult {
	return &model.RetrievalResult{
		ID:         id,
		Text:       "text of " + id,
		Ticker:     "AAPL",
		FilingType: model.FilingType10K,
		FilingDate: "2023-10-27",
		Section:    section,
		Distance:   distance,
	}
}

func TestRerankBoostsRiskSectionForRiskQuery(t *testing.T) {
	results := []*model.RetrievalResult{
		hit("a", "item_7", 0.30),
		hit("b", "item_1a", 0.35),
	}
	ranked := Rerank("What are the main risk factors?", results, 2, 0)
	// 0.35 - 0.1 = 0.25 beats 0.30.
	require.Equal(t, "b", ranked[0].ID)
	require.Equal(t, 1, ranked[0].Rank)
	require.Equal(t, 2, ranked[1].Rank)
}

func TestRerankEqualDistanceRiskFirst(t *testing.T) {
	results := []*model.RetrievalResult{
		hit("a", "item_7", 0.40),
		hit("b", "item_1a", 0.40),
	}
	ranked := Rerank("any risk concerns?", results, 2, 0)
	require.Equal(t, "b", ranked[0].ID)
}

func TestRerankMultipleIntents(t *testing.T) {
	results := []*model.RetrievalResult{
		hit("a", "item_1a", 0.50),
		hit("b", "item_8", 0.50),
		hit("c", "item_2", 0.45),
	}
	ranked := Rerank("risk to revenue this year", results, 3, 0)
	// Both item_1a and item_8 get boosted to 0.40, beating the closer item_2.
	require.Equal(t, "a", ranked[0].ID)
	require.Equal(t, "b", ranked[1].ID)
	require.Equal(t, "c", ranked[2].ID)
}

func TestRerankNoIntentKeepsDistanceOrder(t *testing.T) {
	results := []*model.RetrievalResult{
		hit("far", "item_1a", 0.60),
		hit("near", "item_7", 0.20),
	}
	ranked := Rerank("tell me something", results, 2, 0)
	require.Equal(t, "near", ranked[0].ID)
	require.InDelta(t, 0.20, ranked[0].Score, 1e-9)
}

func TestRerankStableOnTies(t *testing.T) {
	results := []*model.RetrievalResult{
		hit("first", "item_2", 0.40),
		hit("second", "item_3", 0.40),
		hit("third", "item_4", 0.40),
	}
	ranked := Rerank("no intent words here", results, 3, 0)
	require.Equal(t, []string{"first", "second", "third"}, []string{ranked[0].ID, ranked[1].ID, ranked[2].ID})
}

func TestRerankTruncatesToTopK(t *testing.T) {
	results := []*model.RetrievalResult{
		hit("a", "item_2", 0.10),
		hit("b", "item_3", 0.20),
		hit("c", "item_4", 0.30),
		hit("d", "item_5", 0.40),
	}
	ranked := Rerank("whatever", results, 2, 0)
	require.Len(t, ranked, 2)
	require.Equal(t, "a", ranked[0].ID)
	require.Equal(t, "b", ranked[1].ID)
}
