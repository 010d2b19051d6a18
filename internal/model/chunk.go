package model

import "fmt"

// Chunk is a contiguous span of one section's text, sized for embedding.
// CharStart/CharEnd are offsets into the section-local, overlap-adjusted
// chunk sequence; adjacent chunks may overlap but never skip content.
//
// The JSON shape is a serialization contract: archived chunk records are
// inspected by external tooling and must keep these field names.
type Chunk struct {
	ID         string `json:"id" db:"id"`
	Text       string `json:"text" db:"text"`
	Ticker     string `json:"ticker" db:"ticker"`
	FilingType string `json:"filing_type" db:"filing_type"`
	FilingDate string `json:"filing_date" db:"filing_date"`
	Section    string `json:"section" db:"section"`
	ChunkIndex int    `json:"chunk_index" db:"chunk_index"`
	CharStart  int    `json:"char_start" db:"char_start"`
	CharEnd    int    `json:"char_end" db:"char_end"`
}

// ChunkID builds the stable chunk identifier. Re-ingesting the same filing
// yields the same IDs, which is what makes upserts idempotent.
func ChunkID(ticker, filingType, filingDate, section string, index int) string {
	return fmt.Sprintf("%s_%s_%s_%s_%d", ticker, filingType, filingDate, section, index)
}

// EmbeddedChunk pairs a chunk with its embedding vector. It only lives long
// enough to be written to the vector index.
type EmbeddedChunk struct {
	Chunk     *Chunk
	Embedding []float32
}
