package service

import (
	"regexp"
	"strings"

	"github.com/finsight/filingrag/internal/model"
)

// companyTicker maps a lowercase company-name fragment to its ticker. Order
// matters: the first fragment found in the query wins, so more specific names
// (alphabet, facebook) sit next to their siblings.
type companyTicker struct {
	name   string
	ticker string
}

var companyTickers = []companyTicker{
	{"apple", "AAPL"},
	{"microsoft", "MSFT"},
	{"google", "GOOGL"},
	{"alphabet", "GOOGL"},
	{"amazon", "AMZN"},
	{"meta", "META"},
	{"facebook", "META"},
	{"nvidia", "NVDA"},
	{"tesla", "TSLA"},
	{"jpmorgan", "JPM"},
	{"johnson", "JNJ"},
	{"procter", "PG"},
}

// tickerStopwords are all-caps tokens that look like tickers but are just
// English words at the start of a sentence.
var tickerStopwords = map[string]struct{}{
	"A": {}, "I": {}, "AND": {}, "THE": {}, "FOR": {}, "OR": {}, "IN": {}, "TO": {},
}

var tickerPattern = regexp.MustCompile(`\b([A-Z]{1,5})\b`)

// ExtractFilters derives metadata filters from a natural-language query.
// Known company names take precedence over raw ticker tokens; only the first
// all-caps token is considered, and it is dropped entirely (not retried) when
// it is a stopword.
func ExtractFilters(query string) model.QueryFilters {
	var filters model.QueryFilters
	queryLower := strings.ToLower(query)

	for _, ct := range companyTickers {
		if strings.Contains(queryLower, ct.name) {
			filters.Ticker = ct.ticker
			break
		}
	}

	if filters.Ticker == "" {
		if m := tickerPattern.FindStringSubmatch(query); m != nil {
			if _, stop := tickerStopwords[m[1]]; !stop {
				filters.Ticker = m[1]
			}
		}
	}

	switch {
	case strings.Contains(queryLower, "annual"),
		strings.Contains(queryLower, "10-k"),
		strings.Contains(queryLower, "10k"):
		filters.FilingType = model.FilingType10K
	case strings.Contains(queryLower, "quarterly"),
		strings.Contains(queryLower, "10-q"),
		strings.Contains(queryLower, "10q"):
		filters.FilingType = model.FilingType10Q
	}

	return filters
}
