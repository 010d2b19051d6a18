package chunker

import "github.com/finsight/filingrag/internal/model"

// Stats summarizes a chunk set for logging and inspection.
type Stats struct {
	Count         int            `json:"count"`
	TotalChars    int            `json:"total_chars"`
	AvgSize       float64        `json:"avg_size"`
	MinSize       int            `json:"min_size"`
	MaxSize       int            `json:"max_size"`
	SectionCounts map[string]int `json:"section_counts"`
}

func ComputeStats(chunks []*model.Chunk) Stats {
	stats := Stats{SectionCounts: map[string]int{}}
	if len(chunks) == 0 {
		return stats
	}
	stats.Count = len(chunks)
	stats.MinSize = len(chunks[0].Text)
	for _, c := range chunks {
		size := len(c.Text)
		stats.TotalChars += size
		if size < stats.MinSize {
			stats.MinSize = size
		}
		if size > stats.MaxSize {
			stats.MaxSize = size
		}
		stats.SectionCounts[c.Section]++
	}
	stats.AvgSize = float64(stats.TotalChars) / float64(stats.Count)
	return stats
}
