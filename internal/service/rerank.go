package service

import (
	"sort"
	"strings"

	"github.com/finsight/filingrag/internal/model"
)

const defaultSectionBoost = 0.1

// intentCue groups the query keywords that signal interest in particular
// filing sections. A query can trigger several cues at once; each matched cue
// boosts all of its sections.
type intentCue struct {
	keywords []string
	sections []string
}

var intentCues = []intentCue{
	{
		keywords: []string{"risk", "threat", "concern", "challenge"},
		sections: []string{"item_1a"},
	},
	{
		keywords: []string{"revenue", "income", "profit", "financial", "earnings"},
		sections: []string{"item_7", "item_8"},
	},
	{
		keywords: []string{"business", "company", "product", "service"},
		sections: []string{"item_1"},
	},
}

// sectionBoosts returns per-section score boosts for the query.
func sectionBoosts(query string, boost float64) map[string]float64 {
	queryLower := strings.ToLower(query)
	boosts := make(map[string]float64)
	for _, cue := range intentCues {
		for _, kw := range cue.keywords {
			if strings.Contains(queryLower, kw) {
				for _, sec := range cue.sections {
					boosts[sec] = boost
				}
				break
			}
		}
	}
	return boosts
}

// Rerank scores retrieval hits by distance minus section boost and returns
// the best topK in ascending score order. The sort is stable so equally
// scored hits keep their retrieval order. Input order is not modified for the
// caller; Rank is assigned starting at 1.
func Rerank(query string, results []*model.RetrievalResult, topK int, boost float64) []*model.RetrievalResult {
	if boost <= 0 {
		boost = defaultSectionBoost
	}
	boosts := sectionBoosts(query, boost)

	scored := make([]*model.RetrievalResult, len(results))
	copy(scored, results)
	for _, res := range scored {
		res.Score = res.Distance - boosts[res.Section]
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score < scored[j].Score
	})

	if topK > 0 && topK < len(scored) {
		scored = scored[:topK]
	}
	for i, res := range scored {
		res.Rank = i + 1
	}
	return scored
}
