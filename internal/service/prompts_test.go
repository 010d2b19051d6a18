package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/finsight/filingrag/internal/model"
)

func TestFormatContextNumbering(t *testing.T) {
	results := []*model.RetrievalResult{
		hit("a", "item_1a", 0.1),
		hit("b", "item_7", 0.2),
	}
	ctx := FormatContext(results, 0, 0)
	require.Contains(t, ctx, "[1] Source: AAPL 10-K (2023-10-27) - item_1a")
	require.Contains(t, ctx, "[2] Source: AAPL 10-K (2023-10-27) - item_7")
	require.Contains(t, ctx, "\n---\n")
	require.Contains(t, ctx, "text of a")
}

func TestFormatContextTruncatesLongChunks(t *testing.T) {
	res := hit("a", "item_7", 0.1)
	res.Text = strings.Repeat("x", 3000)
	ctx := FormatContext([]*model.RetrievalResult{res}, 0, 0)
	require.Contains(t, ctx, "... [truncated]")
	require.NotContains(t, ctx, strings.Repeat("x", 2001))
}

func TestFormatContextMaxCharsStopsAssembly(t *testing.T) {
	long := hit("a", "item_7", 0.1)
	long.Text = strings.Repeat("a", 500)
	second := hit("b", "item_8", 0.2)
	second.Text = strings.Repeat("b", 500)

	ctx := FormatContext([]*model.RetrievalResult{long, second}, 600, 2000)
	require.Contains(t, ctx, "[1]")
	require.NotContains(t, ctx, "[2]")
}

func TestFormatContextUnknownMetadata(t *testing.T) {
	res := hit("a", "", 0.1)
	res.Ticker = ""
	res.FilingDate = ""
	ctx := FormatContext([]*model.RetrievalResult{res}, 0, 0)
	require.Contains(t, ctx, "Unknown 10-K (Unknown) - Unknown")
}

func TestBuildAnswerPrompt(t *testing.T) {
	prompt := BuildAnswerPrompt("What was revenue?", "[1] Source: ...")
	require.True(t, strings.HasPrefix(prompt, "Question: What was revenue?"))
	require.Contains(t, prompt, "Context from SEC filings:")
	require.Contains(t, prompt, "[1] Source: ...")
	require.Contains(t, prompt, "Cite sources using [1], [2], etc.")
}
