package model

// QueryFilters are exact-match metadata predicates for vector retrieval.
// Empty fields mean "no constraint"; present fields AND together.
type QueryFilters struct {
	Ticker     string
	FilingType string
}

// Merge overlays caller-supplied filters on top of extracted ones. Caller
// values always win.
func (f QueryFilters) Merge(override QueryFilters) QueryFilters {
	out := f
	if override.Ticker != "" {
		out.Ticker = override.Ticker
	}
	if override.FilingType != "" {
		out.FilingType = override.FilingType
	}
	return out
}

// IsEmpty reports whether no filter is set.
func (f QueryFilters) IsEmpty() bool {
	return f.Ticker == "" && f.FilingType == ""
}

// RetrievalResult is one vector-search hit. Distance comes from the index
// (lower is more similar); Score is the rerank-adjusted distance and Rank the
// final position after reranking. Lives for a single query.
type RetrievalResult struct {
	ID         string
	Text       string
	Ticker     string
	FilingType string
	FilingDate string
	Section    string
	Distance   float64
	Score      float64
	Rank       int
}
