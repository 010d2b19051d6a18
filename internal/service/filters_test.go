package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/finsight/filingrag/internal/model"
)

func TestExtractFiltersCompanyName(t *testing.T) {
	tests := []struct {
		query string
		want  model.QueryFilters
	}{
		{"What are Apple's main risks?", model.QueryFilters{Ticker: "AAPL"}},
		{"Summarize microsoft's annual report", model.QueryFilters{Ticker: "MSFT", FilingType: model.FilingType10K}},
		{"How did Alphabet do last quarter?", model.QueryFilters{Ticker: "GOOGL"}},
		{"facebook revenue trends", model.QueryFilters{Ticker: "META"}},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			require.Equal(t, tc.want, ExtractFilters(tc.query))
		})
	}
}

func TestExtractFiltersRawTicker(t *testing.T) {
	got := ExtractFilters("What does NVDA say about data center demand?")
	require.Equal(t, "NVDA", got.Ticker)
}

func TestExtractFiltersCompanyNameWinsOverTicker(t *testing.T) {
	got := ExtractFilters("Compare Apple with MSFT")
	require.Equal(t, "AAPL", got.Ticker)
}

func TestExtractFiltersStopwordNotATicker(t *testing.T) {
	// "What" fails the all-caps pattern; "I" matches first and is a stopword,
	// so no ticker is extracted at all.
	got := ExtractFilters("I want risk details on some company")
	require.Empty(t, got.Ticker)
}

func TestExtractFiltersFilingType(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"latest annual report highlights", model.FilingType10K},
		{"what does the 10-k say", model.FilingType10K},
		{"summarize the 10k", model.FilingType10K},
		{"quarterly results overview", model.FilingType10Q},
		{"pull the 10-q numbers", model.FilingType10Q},
		{"nothing relevant here", ""},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			require.Equal(t, tc.want, ExtractFilters(tc.query).FilingType)
		})
	}
}

func TestExtractFiltersAnnualBeatsQuarterly(t *testing.T) {
	// The annual cue is checked first; mixed mentions resolve to 10-K.
	got := ExtractFilters("compare annual and quarterly trends")
	require.Equal(t, model.FilingType10K, got.FilingType)
}

func TestQueryFiltersMerge(t *testing.T) {
	extracted := model.QueryFilters{Ticker: "AAPL", FilingType: model.FilingType10K}
	merged := extracted.Merge(model.QueryFilters{Ticker: "MSFT"})
	require.Equal(t, "MSFT", merged.Ticker)
	require.Equal(t, model.FilingType10K, merged.FilingType)
}
